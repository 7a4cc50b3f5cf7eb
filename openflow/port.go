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
	"net"

	"github.com/pkg/errors"
)

// PortNumber is a switch port number in the 32-bit space used since OF1.1.
// OF1.0 ports are 16 bits wide and are mapped into this space on decode.
type PortNumber uint32

const (
	OFPP_MAX        PortNumber = 0xffffff00
	OFPP_IN_PORT    PortNumber = 0xfffffff8
	OFPP_TABLE      PortNumber = 0xfffffff9
	OFPP_NORMAL     PortNumber = 0xfffffffa
	OFPP_FLOOD      PortNumber = 0xfffffffb
	OFPP_ALL        PortNumber = 0xfffffffc
	OFPP_CONTROLLER PortNumber = 0xfffffffd
	OFPP_LOCAL      PortNumber = 0xfffffffe
	// OFPP_ANY is OFPP_NONE in OF1.0.
	OFPP_ANY PortNumber = 0xffffffff
)

const (
	of10PortMax      = 0xff00
	of10ReservedBase = 0xffff0000
)

func (r PortNumber) IsReserved() bool {
	return r > OFPP_MAX
}

func (r PortNumber) String() string {
	switch r {
	case OFPP_MAX:
		return "MAX"
	case OFPP_IN_PORT:
		return "IN_PORT"
	case OFPP_TABLE:
		return "TABLE"
	case OFPP_NORMAL:
		return "NORMAL"
	case OFPP_FLOOD:
		return "FLOOD"
	case OFPP_ALL:
		return "ALL"
	case OFPP_CONTROLLER:
		return "CONTROLLER"
	case OFPP_LOCAL:
		return "LOCAL"
	case OFPP_ANY:
		return "ANY"
	default:
		return fmt.Sprintf("%d", uint32(r))
	}
}

// CheckPortNumber verifies that p fits the port number width of pv.
func CheckPortNumber(pv Version, p PortNumber) error {
	if pv != OF10_VERSION {
		return nil
	}
	if p > OFPP_MAX || p <= of10PortMax {
		return nil
	}

	return OutOfRange("OF1.0 port number", uint64(p), of10PortMax)
}

func ReadPortNumber(r *PacketReader, pv Version) PortNumber {
	if pv != OF10_VERSION {
		return PortNumber(r.ReadU32())
	}

	v := r.ReadU16()
	if v > of10PortMax {
		return PortNumber(of10ReservedBase | uint32(v))
	}
	return PortNumber(v)
}

func WritePortNumber(w *PacketWriter, pv Version, p PortNumber) error {
	if err := CheckPortNumber(pv, p); err != nil {
		return err
	}
	if pv != OF10_VERSION {
		w.WriteU32(uint32(p))
		return nil
	}
	w.WriteU16(uint16(p & 0xffff))

	return nil
}

// Port config flags.
const (
	OFPPC_PORT_DOWN    = 1 << 0
	OFPPC_NO_RECV      = 1 << 2
	OFPPC_NO_FWD       = 1 << 5
	OFPPC_NO_PACKET_IN = 1 << 6
)

// Port state flags.
const (
	OFPPS_LINK_DOWN = 1 << 0
	OFPPS_BLOCKED   = 1 << 1
	OFPPS_LIVE      = 1 << 2
)

const (
	OFP_MAX_PORT_NAME_LEN = 16

	of10PortLength = 48
	portLength     = 64
)

// PortFeatures holds the feature bitmaps and speeds of a port.
type PortFeatures struct {
	Current    uint32
	Advertised uint32
	Supported  uint32
	Peer       uint32
	// CurrentSpeed and MaxSpeed are in kbps. OF1.0 does not carry them.
	CurrentSpeed uint32
	MaxSpeed     uint32
}

// Port is ofp_phy_port in OF1.0 and ofp_port since OF1.1.
type Port struct {
	Number   PortNumber
	HWAddr   net.HardwareAddr
	Name     string
	Config   uint32
	State    uint32
	Features PortFeatures
}

// PortLength returns the encoded length of a port at pv.
func PortLength(pv Version) int {
	if pv == OF10_VERSION {
		return of10PortLength
	}
	return portLength
}

// Clone returns a deep copy of r.
func (r Port) Clone() Port {
	if r.HWAddr != nil {
		r.HWAddr = append(net.HardwareAddr{}, r.HWAddr...)
	}
	return r
}

func EncodePort(w *PacketWriter, pv Version, p *Port) error {
	if p == nil {
		return NullArgument("port")
	}
	if len(p.HWAddr) != 6 {
		return IllegalArgument("invalid port hardware address: %v", p.HWAddr)
	}
	if len(p.Name) > OFP_MAX_PORT_NAME_LEN-1 {
		return IllegalArgument("port name is longer than %v bytes", OFP_MAX_PORT_NAME_LEN-1)
	}
	if err := CheckPortNumber(pv, p.Number); err != nil {
		return err
	}
	if pv == OF10_VERSION && (p.Features.CurrentSpeed != 0 || p.Features.MaxSpeed != 0) {
		return VerMismatch(pv, "port speed")
	}

	start := w.Position()
	if err := WritePortNumber(w, pv, p.Number); err != nil {
		return err
	}
	if pv != OF10_VERSION {
		// 4 bytes padding
		w.WriteZeros(4)
	}
	w.WriteBytes(p.HWAddr)
	if pv != OF10_VERSION {
		// 2 bytes padding
		w.WriteZeros(2)
	}
	if err := w.WriteString(p.Name, OFP_MAX_PORT_NAME_LEN); err != nil {
		return err
	}
	w.WriteU32(p.Config)
	w.WriteU32(p.State)
	w.WriteU32(p.Features.Current)
	w.WriteU32(p.Features.Advertised)
	w.WriteU32(p.Features.Supported)
	w.WriteU32(p.Features.Peer)
	if pv != OF10_VERSION {
		w.WriteU32(p.Features.CurrentSpeed)
		w.WriteU32(p.Features.MaxSpeed)
	}
	if n := w.Position() - start; n != PortLength(pv) {
		return errors.Wrapf(ErrInvalidPacketLength, "encoded port has %v bytes", n)
	}

	return nil
}

// DecodePort reads one port. r must hold at least PortLength(pv) bytes.
func DecodePort(r *PacketReader, pv Version) (*Port, error) {
	body, err := r.Bounded(PortLength(pv))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read port")
	}

	p := &Port{Number: ReadPortNumber(body, pv)}
	if pv != OF10_VERSION {
		body.Skip(4)
	}
	p.HWAddr = net.HardwareAddr(body.ReadBytes(6))
	if pv != OF10_VERSION {
		body.Skip(2)
	}
	p.Name = body.ReadString(OFP_MAX_PORT_NAME_LEN)
	p.Config = body.ReadU32()
	p.State = body.ReadU32()
	p.Features.Current = body.ReadU32()
	p.Features.Advertised = body.ReadU32()
	p.Features.Supported = body.ReadU32()
	p.Features.Peer = body.ReadU32()
	if pv != OF10_VERSION {
		p.Features.CurrentSpeed = body.ReadU32()
		p.Features.MaxSpeed = body.ReadU32()
	}
	if err := body.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to decode port")
	}

	return p, nil
}
