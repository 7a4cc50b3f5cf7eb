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
	"net"

	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
)

// PortDesc describes one port in a PORT_DESC reply.
type PortDesc struct {
	version openflow.Version
	port    openflow.Port
}

func (r *PortDesc) view() *PortDesc {
	return r
}

func (r *PortDesc) Version() openflow.Version {
	return r.version
}

func (r *PortDesc) Validate() error {
	if r.port.HWAddr == nil {
		return openflow.NewIncompleteStructure("port hardware address")
	}
	return nil
}

func (r *PortDesc) TotalLength() int {
	return openflow.PortLength(r.version)
}

// Desc returns a copy of the whole port structure.
func (r *PortDesc) Desc() openflow.Port {
	return r.port.Clone()
}

func (r *PortDesc) Port() openflow.PortNumber {
	return r.port.Number
}

func (r *PortDesc) HWAddr() net.HardwareAddr {
	return r.port.Clone().HWAddr
}

func (r *PortDesc) Name() string {
	return r.port.Name
}

// Config returns the OFPPC_* flags of the port.
func (r *PortDesc) Config() uint32 {
	return r.port.Config
}

// State returns the OFPPS_* flags of the port.
func (r *PortDesc) State() uint32 {
	return r.port.State
}

func (r *PortDesc) Features() openflow.PortFeatures {
	return r.port.Features
}

type MutablePortDesc struct {
	PortDesc
	mutable
}

func NewMutablePortDesc(pv openflow.Version) *MutablePortDesc {
	return &MutablePortDesc{PortDesc: PortDesc{version: pv}}
}

func (r *MutablePortDesc) SetPort(port openflow.PortNumber) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.CheckPortNumber(r.version, port); err != nil {
		return err
	}
	r.port.Number = port

	return nil
}

func (r *MutablePortDesc) SetHWAddr(mac net.HardwareAddr) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if mac == nil {
		return openflow.NullArgument("hardware address")
	}
	if len(mac) != 6 {
		return openflow.IllegalArgument("invalid hardware address: %v", mac)
	}
	r.port.HWAddr = append(net.HardwareAddr{}, mac...)

	return nil
}

func (r *MutablePortDesc) SetName(name string) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if len(name) > openflow.OFP_MAX_PORT_NAME_LEN-1 {
		return openflow.IllegalArgument("port name is longer than %v bytes", openflow.OFP_MAX_PORT_NAME_LEN-1)
	}
	r.port.Name = name

	return nil
}

func (r *MutablePortDesc) SetConfig(config uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.port.Config = config

	return nil
}

func (r *MutablePortDesc) SetState(state uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.port.State = state

	return nil
}

func (r *MutablePortDesc) SetFeatures(f openflow.PortFeatures) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if r.version == openflow.OF10_VERSION && (f.CurrentSpeed != 0 || f.MaxSpeed != 0) {
		return openflow.VerMismatch(r.version, "port speed")
	}
	r.port.Features = f

	return nil
}

func (r *MutablePortDesc) ToImmutable() (*PortDesc, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.PortDesc
	v.port = r.port.Clone()

	return &v, nil
}

func (r *MutablePortDesc) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodePortDesc(v *PortDesc, w *openflow.PacketWriter) error {
	return openflow.EncodePort(w, v.version, &v.port)
}

func parsePortDesc(r *openflow.PacketReader, pv openflow.Version) (*PortDesc, error) {
	p, err := openflow.DecodePort(r, pv)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse port desc")
	}

	v := NewMutablePortDesc(pv)
	v.port = *p

	return v.ToImmutable()
}
