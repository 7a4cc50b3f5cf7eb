/*
 * Cherry - An OpenFlow Controller
 *
 * Copyright (C) 2015-2019 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package openflow

import (
	"fmt"

	"github.com/pkg/errors"
)

// Version is the OpenFlow wire protocol version carried in the message header.
type Version uint8

const (
	OF10_VERSION Version = 0x01
	OF11_VERSION Version = 0x02
	OF12_VERSION Version = 0x03
	OF13_VERSION Version = 0x04
)

// Versions lists every protocol version this module can encode and decode.
var Versions = []Version{OF10_VERSION, OF11_VERSION, OF12_VERSION, OF13_VERSION}

func (r Version) String() string {
	switch r {
	case OF10_VERSION:
		return "OF1.0"
	case OF11_VERSION:
		return "OF1.1"
	case OF12_VERSION:
		return "OF1.2"
	case OF13_VERSION:
		return "OF1.3"
	default:
		return fmt.Sprintf("OF(0x%02x)", uint8(r))
	}
}

func (r Version) Supported() bool {
	return r >= OF10_VERSION && r <= OF13_VERSION
}

// VerMin returns ErrVersionNotSupported if pv is earlier than min or is not a
// version this module knows about. what names the item being checked.
func VerMin(pv, min Version, what string) error {
	if !pv.Supported() {
		return errors.Wrapf(ErrVersionNotSupported, "%v: unknown protocol version 0x%02x", what, uint8(pv))
	}
	if pv < min {
		return errors.Wrapf(ErrVersionNotSupported, "%v requires %v or later (got %v)", what, min, pv)
	}

	return nil
}

// VerMismatch returns ErrVersionMismatch for a field that is not available at pv.
func VerMismatch(pv Version, what string) error {
	return errors.Wrapf(ErrVersionMismatch, "%v is not available at %v", what, pv)
}

// VerRange returns nil if pv is within [min, max], and a version mismatch error
// for what otherwise.
func VerRange(pv, min, max Version, what string) error {
	if pv < min || pv > max {
		return VerMismatch(pv, what)
	}

	return nil
}
