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
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
)

const (
	descStrLen   = 256
	serialNumLen = 32
	descLength   = 4*descStrLen + serialNumLen
)

// Desc is the switch description reply.
type Desc struct {
	version      openflow.Version
	manufacturer string
	hardware     string
	software     string
	serialNumber string
	datapath     string
}

func (r *Desc) view() *Desc {
	return r
}

func (r *Desc) Version() openflow.Version {
	return r.version
}

func (r *Desc) Validate() error {
	return nil
}

func (r *Desc) TotalLength() int {
	return descLength
}

func (r *Desc) Manufacturer() string {
	return r.manufacturer
}

func (r *Desc) Hardware() string {
	return r.hardware
}

func (r *Desc) Software() string {
	return r.software
}

func (r *Desc) SerialNumber() string {
	return r.serialNumber
}

func (r *Desc) Datapath() string {
	return r.datapath
}

type MutableDesc struct {
	Desc
	mutable
}

func NewMutableDesc(pv openflow.Version) *MutableDesc {
	return &MutableDesc{Desc: Desc{version: pv}}
}

func (r *MutableDesc) setString(dst *string, v string, width int, what string) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if len(v) > width-1 {
		return openflow.IllegalArgument("%v is longer than %v bytes", what, width-1)
	}
	*dst = v

	return nil
}

func (r *MutableDesc) SetManufacturer(v string) error {
	return r.setString(&r.manufacturer, v, descStrLen, "manufacturer")
}

func (r *MutableDesc) SetHardware(v string) error {
	return r.setString(&r.hardware, v, descStrLen, "hardware description")
}

func (r *MutableDesc) SetSoftware(v string) error {
	return r.setString(&r.software, v, descStrLen, "software description")
}

func (r *MutableDesc) SetSerialNumber(v string) error {
	return r.setString(&r.serialNumber, v, serialNumLen, "serial number")
}

func (r *MutableDesc) SetDatapath(v string) error {
	return r.setString(&r.datapath, v, descStrLen, "datapath description")
}

func (r *MutableDesc) ToImmutable() (*Desc, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.Desc

	return &v, nil
}

func (r *MutableDesc) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeDesc(b Body, w *openflow.PacketWriter) error {
	v, err := viewOf[Desc](b)
	if err != nil {
		return err
	}

	for _, f := range []struct {
		value string
		width int
	}{
		{v.manufacturer, descStrLen},
		{v.hardware, descStrLen},
		{v.software, descStrLen},
		{v.serialNumber, serialNumLen},
		{v.datapath, descStrLen},
	} {
		if err := w.WriteString(f.value, f.width); err != nil {
			return err
		}
	}

	return nil
}

func parseDesc(r *openflow.PacketReader, pv openflow.Version) (*MutableDesc, error) {
	v := NewMutableDesc(pv)
	v.manufacturer = r.ReadString(descStrLen)
	v.hardware = r.ReadString(descStrLen)
	v.software = r.ReadString(descStrLen)
	v.serialNumber = r.ReadString(serialNumLen)
	v.datapath = r.ReadString(descStrLen)
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse description")
	}

	return v, nil
}
