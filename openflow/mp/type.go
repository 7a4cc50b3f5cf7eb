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

package mp

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
)

// MultipartType identifies the body carried by a multipart (OF1.0: stats)
// request or reply.
type MultipartType uint16

const (
	OFPMP_DESC           MultipartType = 0
	OFPMP_FLOW           MultipartType = 1
	OFPMP_AGGREGATE      MultipartType = 2
	OFPMP_TABLE          MultipartType = 3
	OFPMP_PORT_STATS     MultipartType = 4
	OFPMP_QUEUE          MultipartType = 5
	OFPMP_GROUP          MultipartType = 6
	OFPMP_GROUP_DESC     MultipartType = 7
	OFPMP_GROUP_FEATURES MultipartType = 8
	OFPMP_METER          MultipartType = 9
	OFPMP_METER_CONFIG   MultipartType = 10
	OFPMP_METER_FEATURES MultipartType = 11
	OFPMP_TABLE_FEATURES MultipartType = 12
	OFPMP_PORT_DESC      MultipartType = 13
	// OFPMP_EXPERIMENTER is the OFPST_VENDOR type of OF1.0.
	OFPMP_EXPERIMENTER MultipartType = 0xffff
)

type typeInfo struct {
	name  string
	since openflow.Version
}

var typeInfos = map[MultipartType]typeInfo{
	OFPMP_DESC:           {"DESC", openflow.OF10_VERSION},
	OFPMP_FLOW:           {"FLOW", openflow.OF10_VERSION},
	OFPMP_AGGREGATE:      {"AGGREGATE", openflow.OF10_VERSION},
	OFPMP_TABLE:          {"TABLE", openflow.OF10_VERSION},
	OFPMP_PORT_STATS:     {"PORT_STATS", openflow.OF10_VERSION},
	OFPMP_QUEUE:          {"QUEUE", openflow.OF10_VERSION},
	OFPMP_GROUP:          {"GROUP", openflow.OF11_VERSION},
	OFPMP_GROUP_DESC:     {"GROUP_DESC", openflow.OF11_VERSION},
	OFPMP_GROUP_FEATURES: {"GROUP_FEATURES", openflow.OF12_VERSION},
	OFPMP_METER:          {"METER", openflow.OF13_VERSION},
	OFPMP_METER_CONFIG:   {"METER_CONFIG", openflow.OF13_VERSION},
	OFPMP_METER_FEATURES: {"METER_FEATURES", openflow.OF13_VERSION},
	OFPMP_TABLE_FEATURES: {"TABLE_FEATURES", openflow.OF13_VERSION},
	OFPMP_PORT_DESC:      {"PORT_DESC", openflow.OF13_VERSION},
	OFPMP_EXPERIMENTER:   {"EXPERIMENTER", openflow.OF10_VERSION},
}

// Types returns every defined multipart type in code order.
func Types() []MultipartType {
	return []MultipartType{
		OFPMP_DESC, OFPMP_FLOW, OFPMP_AGGREGATE, OFPMP_TABLE, OFPMP_PORT_STATS,
		OFPMP_QUEUE, OFPMP_GROUP, OFPMP_GROUP_DESC, OFPMP_GROUP_FEATURES,
		OFPMP_METER, OFPMP_METER_CONFIG, OFPMP_METER_FEATURES,
		OFPMP_TABLE_FEATURES, OFPMP_PORT_DESC, OFPMP_EXPERIMENTER,
	}
}

func (r MultipartType) String() string {
	info, ok := typeInfos[r]
	if !ok {
		return fmt.Sprintf("UNKNOWN(%d)", uint16(r))
	}
	return info.name
}

// ValidSince returns the first protocol version defining r, or 0 if r is not
// a defined type.
func (r MultipartType) ValidSince() openflow.Version {
	return typeInfos[r].since
}

// Code returns the wire code of r at pv.
func (r MultipartType) Code(pv openflow.Version) (uint16, error) {
	if err := r.check(pv); err != nil {
		return 0, err
	}
	return uint16(r), nil
}

func (r MultipartType) check(pv openflow.Version) error {
	info, ok := typeInfos[r]
	if !ok {
		return errors.Wrapf(openflow.ErrUnknownType, "multipart type %d", uint16(r))
	}

	return openflow.VerMin(pv, info.since, info.name+" multipart")
}

// DecodeType maps a wire code to its type. Unknown codes and codes defined
// only by a later version are errors.
func DecodeType(code uint16, pv openflow.Version) (MultipartType, error) {
	t := MultipartType(code)
	if err := t.check(pv); err != nil {
		return 0, err
	}

	return t, nil
}
