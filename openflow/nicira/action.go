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

// Package nicira implements the Nicira vendor extensions: NXAST actions and
// NXM match fields. Nothing is usable until a Registrator installs the codecs.
package nicira

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/action"
)

// NX_VENDOR_ID is the experimenter ID of Nicira Networks.
const NX_VENDOR_ID = 0x00002320

// Action subtypes.
const (
	NXAST_RESUBMIT       = 1
	NXAST_SET_TUNNEL     = 2
	NXAST_REG_MOVE       = 6
	NXAST_REG_LOAD       = 7
	NXAST_SET_TUNNEL64   = 9
	NXAST_RESUBMIT_TABLE = 14
	NXAST_OUTPUT_REG     = 15
)

const (
	// NXTableCurrent makes a resubmit search the current table.
	NXTableCurrent = 0xff
	// NXInPort makes a resubmit use the packet's original input port.
	NXInPort = 0xfff8
)

// Resubmit searches the flow table again with the input port replaced by
// InPort. A Table other than NXTableCurrent is encoded as resubmit_table.
type Resubmit struct {
	InPort uint16
	Table  uint8
}

func (r *Resubmit) Type(pv openflow.Version) (uint16, error) {
	return action.OFPAT_EXPERIMENTER, nil
}

func (r *Resubmit) Experimenter() uint32 {
	return NX_VENDOR_ID
}

func (r *Resubmit) Subtype() uint16 {
	if r.Table == NXTableCurrent {
		return NXAST_RESUBMIT
	}
	return NXAST_RESUBMIT_TABLE
}

// SetTunnel sets a 32-bit tunnel ID.
type SetTunnel struct {
	TunnelID uint32
}

func (r *SetTunnel) Type(pv openflow.Version) (uint16, error) {
	return action.OFPAT_EXPERIMENTER, nil
}

func (r *SetTunnel) Experimenter() uint32 {
	return NX_VENDOR_ID
}

func (r *SetTunnel) Subtype() uint16 {
	return NXAST_SET_TUNNEL
}

// SetTunnel64 sets a 64-bit tunnel ID.
type SetTunnel64 struct {
	TunnelID uint64
}

func (r *SetTunnel64) Type(pv openflow.Version) (uint16, error) {
	return action.OFPAT_EXPERIMENTER, nil
}

func (r *SetTunnel64) Experimenter() uint32 {
	return NX_VENDOR_ID
}

func (r *SetTunnel64) Subtype() uint16 {
	return NXAST_SET_TUNNEL64
}

// RegMove copies NBits bits from the Src field at SrcOffset to the Dst field
// at DstOffset. Src and Dst are NXM headers.
type RegMove struct {
	NBits     uint16
	SrcOffset uint16
	DstOffset uint16
	Src       uint32
	Dst       uint32
}

func (r *RegMove) Type(pv openflow.Version) (uint16, error) {
	return action.OFPAT_EXPERIMENTER, nil
}

func (r *RegMove) Experimenter() uint32 {
	return NX_VENDOR_ID
}

func (r *RegMove) Subtype() uint16 {
	return NXAST_REG_MOVE
}

// RegLoad writes Value into NBits bits of the Dst field starting at Offset.
type RegLoad struct {
	Offset uint16
	NBits  uint16
	Dst    uint32
	Value  uint64
}

func (r *RegLoad) Type(pv openflow.Version) (uint16, error) {
	return action.OFPAT_EXPERIMENTER, nil
}

func (r *RegLoad) Experimenter() uint32 {
	return NX_VENDOR_ID
}

func (r *RegLoad) Subtype() uint16 {
	return NXAST_REG_LOAD
}

// OutputReg outputs to the port read from NBits bits of the Src field
// starting at Offset.
type OutputReg struct {
	Offset uint16
	NBits  uint16
	Src    uint32
	MaxLen uint16
}

func (r *OutputReg) Type(pv openflow.Version) (uint16, error) {
	return action.OFPAT_EXPERIMENTER, nil
}

func (r *OutputReg) Experimenter() uint32 {
	return NX_VENDOR_ID
}

func (r *OutputReg) Subtype() uint16 {
	return NXAST_OUTPUT_REG
}

// ofsNBits packs a bit offset and a bit count the way NXAST_REG_LOAD and
// NXAST_OUTPUT_REG carry them: offset in the upper 10 bits, count minus one
// in the lower 6.
func ofsNBits(offset, nBits uint16) (uint16, error) {
	if nBits == 0 || nBits > 64 {
		return 0, openflow.IllegalArgument("invalid number of bits: %v", nBits)
	}
	if offset > 0x3ff {
		return 0, openflow.OutOfRange("bit offset", uint64(offset), 0x3ff)
	}

	return offset<<6 | (nBits - 1), nil
}

func splitOfsNBits(v uint16) (offset, nBits uint16) {
	return v >> 6, v&0x3f + 1
}

type actionCodec struct {
	subtype uint16
}

func (r actionCodec) SerializeAction(a action.ExperimenterAction) ([]byte, error) {
	w := openflow.NewPacketWriter()

	switch v := a.(type) {
	case *Resubmit:
		w.WriteU16(v.InPort)
		if v.Subtype() == NXAST_RESUBMIT_TABLE {
			w.WriteU8(v.Table)
		} else {
			w.WriteU8(0)
		}
		w.WriteZeros(3)
	case *SetTunnel:
		w.WriteZeros(2)
		w.WriteU32(v.TunnelID)
	case *SetTunnel64:
		w.WriteZeros(6)
		w.WriteU64(v.TunnelID)
	case *RegMove:
		if v.NBits == 0 {
			return nil, openflow.IllegalArgument("invalid number of bits: %v", v.NBits)
		}
		w.WriteU16(v.NBits)
		w.WriteU16(v.SrcOffset)
		w.WriteU16(v.DstOffset)
		w.WriteU32(v.Src)
		w.WriteU32(v.Dst)
	case *RegLoad:
		ofs, err := ofsNBits(v.Offset, v.NBits)
		if err != nil {
			return nil, err
		}
		if v.NBits < 64 && v.Value>>v.NBits != 0 {
			return nil, openflow.OutOfRange("reg_load value", v.Value, 1<<v.NBits-1)
		}
		w.WriteU16(ofs)
		w.WriteU32(v.Dst)
		w.WriteU64(v.Value)
	case *OutputReg:
		ofs, err := ofsNBits(v.Offset, v.NBits)
		if err != nil {
			return nil, err
		}
		w.WriteU16(ofs)
		w.WriteU32(v.Src)
		w.WriteU16(v.MaxLen)
		w.WriteZeros(6)
	default:
		return nil, openflow.IllegalArgument("unexpected Nicira action %T", a)
	}

	return w.Bytes(), nil
}

func (r actionCodec) DeserializeAction(body []byte) (action.ExperimenterAction, error) {
	var length int
	switch r.subtype {
	case NXAST_RESUBMIT, NXAST_RESUBMIT_TABLE, NXAST_SET_TUNNEL:
		length = 6
	case NXAST_SET_TUNNEL64, NXAST_REG_MOVE, NXAST_REG_LOAD, NXAST_OUTPUT_REG:
		length = 14
	default:
		return nil, errors.Wrapf(openflow.ErrUnknownType, "Nicira action subtype %v", r.subtype)
	}
	if len(body) != length {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "Nicira action subtype %v: expected %v bytes, got %v", r.subtype, length, len(body))
	}

	switch r.subtype {
	case NXAST_RESUBMIT:
		return &Resubmit{InPort: binary.BigEndian.Uint16(body[0:2]), Table: NXTableCurrent}, nil
	case NXAST_RESUBMIT_TABLE:
		return &Resubmit{InPort: binary.BigEndian.Uint16(body[0:2]), Table: body[2]}, nil
	case NXAST_SET_TUNNEL:
		return &SetTunnel{TunnelID: binary.BigEndian.Uint32(body[2:6])}, nil
	case NXAST_SET_TUNNEL64:
		return &SetTunnel64{TunnelID: binary.BigEndian.Uint64(body[6:14])}, nil
	case NXAST_REG_MOVE:
		return &RegMove{
			NBits:     binary.BigEndian.Uint16(body[0:2]),
			SrcOffset: binary.BigEndian.Uint16(body[2:4]),
			DstOffset: binary.BigEndian.Uint16(body[4:6]),
			Src:       binary.BigEndian.Uint32(body[6:10]),
			Dst:       binary.BigEndian.Uint32(body[10:14]),
		}, nil
	case NXAST_REG_LOAD:
		offset, nBits := splitOfsNBits(binary.BigEndian.Uint16(body[0:2]))
		return &RegLoad{
			Offset: offset,
			NBits:  nBits,
			Dst:    binary.BigEndian.Uint32(body[2:6]),
			Value:  binary.BigEndian.Uint64(body[6:14]),
		}, nil
	default:
		offset, nBits := splitOfsNBits(binary.BigEndian.Uint16(body[0:2]))
		return &OutputReg{
			Offset: offset,
			NBits:  nBits,
			Src:    binary.BigEndian.Uint32(body[2:6]),
			MaxLen: binary.BigEndian.Uint16(body[6:8]),
		}, nil
	}
}
