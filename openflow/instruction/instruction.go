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

// Package instruction encodes and decodes the OF1.1+ instruction lists carried
// by flow statistics.
package instruction

import (
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/action"
)

const (
	OFPIT_GOTO_TABLE     = 1
	OFPIT_WRITE_METADATA = 2
	OFPIT_WRITE_ACTIONS  = 3
	OFPIT_APPLY_ACTIONS  = 4
	OFPIT_CLEAR_ACTIONS  = 5
	OFPIT_METER          = 6
	OFPIT_EXPERIMENTER   = 0xffff
)

type Instruction interface {
	// Type returns the wire type code, or an error if the instruction does
	// not exist at pv.
	Type(pv openflow.Version) (uint16, error)
}

type GotoTable struct {
	TableID uint8
}

func (r *GotoTable) Type(openflow.Version) (uint16, error) {
	return OFPIT_GOTO_TABLE, nil
}

type WriteMetadata struct {
	Metadata uint64
	Mask     uint64
}

func (r *WriteMetadata) Type(openflow.Version) (uint16, error) {
	return OFPIT_WRITE_METADATA, nil
}

type WriteActions struct {
	Actions []action.Action
}

func (r *WriteActions) Type(openflow.Version) (uint16, error) {
	return OFPIT_WRITE_ACTIONS, nil
}

type ApplyActions struct {
	Actions []action.Action
}

func (r *ApplyActions) Type(openflow.Version) (uint16, error) {
	return OFPIT_APPLY_ACTIONS, nil
}

type ClearActions struct{}

func (r *ClearActions) Type(openflow.Version) (uint16, error) {
	return OFPIT_CLEAR_ACTIONS, nil
}

type Meter struct {
	MeterID uint32
}

func (r *Meter) Type(pv openflow.Version) (uint16, error) {
	if pv < openflow.OF13_VERSION {
		return 0, openflow.VerMismatch(pv, "meter instruction")
	}
	return OFPIT_METER, nil
}

// Raw keeps an instruction without a dedicated type, including experimenter
// instructions. Payload holds the bytes after the type and length fields.
type Raw struct {
	Code    uint16
	Payload []byte
}

func (r *Raw) Type(openflow.Version) (uint16, error) {
	return r.Code, nil
}

func Encode(w *openflow.PacketWriter, pv openflow.Version, inst Instruction) error {
	if inst == nil {
		return openflow.NullArgument("instruction")
	}
	if err := openflow.VerMin(pv, openflow.OF11_VERSION, "instruction"); err != nil {
		return err
	}
	code, err := inst.Type(pv)
	if err != nil {
		return err
	}

	start := w.Position()
	w.WriteU16(code)
	w.WriteU16(0)

	switch v := inst.(type) {
	case *GotoTable:
		w.WriteU8(v.TableID)
		w.WriteZeros(3)
	case *WriteMetadata:
		w.WriteZeros(4)
		w.WriteU64(v.Metadata)
		w.WriteU64(v.Mask)
	case *WriteActions:
		w.WriteZeros(4)
		if err := action.EncodeList(w, pv, v.Actions); err != nil {
			return err
		}
	case *ApplyActions:
		w.WriteZeros(4)
		if err := action.EncodeList(w, pv, v.Actions); err != nil {
			return err
		}
	case *ClearActions:
		w.WriteZeros(4)
	case *Meter:
		w.WriteU32(v.MeterID)
	case *Raw:
		w.WriteBytes(v.Payload)
	default:
		return errors.Wrapf(openflow.ErrNoCodec, "instruction %T", inst)
	}

	length := w.Position() - start
	if length%8 != 0 || length > 0xffff {
		return openflow.IllegalArgument("instruction %T has invalid length %v", inst, length)
	}
	w.PutU16At(start+2, uint16(length))

	return nil
}

func EncodeList(w *openflow.PacketWriter, pv openflow.Version, list []Instruction) error {
	for _, v := range list {
		if err := Encode(w, pv, v); err != nil {
			return err
		}
	}

	return nil
}

func ListLength(pv openflow.Version, list []Instruction) (int, error) {
	w := openflow.NewPacketWriter()
	if err := EncodeList(w, pv, list); err != nil {
		return 0, err
	}

	return w.Position(), nil
}

func Decode(r *openflow.PacketReader, pv openflow.Version) (Instruction, error) {
	start := r.Position()
	code := r.ReadU16()
	length := int(r.ReadU16())
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read instruction header")
	}
	if length < 8 || length%8 != 0 {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "instruction %v at offset %v has length %v", code, start, length)
	}
	body, err := r.Bounded(length - 4)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read instruction %v", code)
	}

	var v Instruction
	switch {
	case code == OFPIT_GOTO_TABLE:
		v = &GotoTable{TableID: body.ReadU8()}
	case code == OFPIT_WRITE_METADATA:
		body.Skip(4)
		v = &WriteMetadata{Metadata: body.ReadU64(), Mask: body.ReadU64()}
	case code == OFPIT_WRITE_ACTIONS || code == OFPIT_APPLY_ACTIONS:
		body.Skip(4)
		if err := body.Err(); err != nil {
			return nil, err
		}
		actions, err := action.DecodeList(body, pv)
		if err != nil {
			return nil, err
		}
		if code == OFPIT_WRITE_ACTIONS {
			v = &WriteActions{Actions: actions}
		} else {
			v = &ApplyActions{Actions: actions}
		}
	case code == OFPIT_CLEAR_ACTIONS:
		v = &ClearActions{}
	case code == OFPIT_METER && pv >= openflow.OF13_VERSION:
		v = &Meter{MeterID: body.ReadU32()}
	default:
		v = &Raw{Code: code, Payload: body.ReadBytes(body.Remaining())}
	}
	if err := body.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to decode instruction %v", code)
	}

	return v, nil
}

// DecodeList reads instructions until r reaches its target index.
func DecodeList(r *openflow.PacketReader, pv openflow.Version) ([]Instruction, error) {
	list := make([]Instruction, 0)
	for r.Remaining() > 0 {
		v, err := Decode(r, pv)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}

	return list, nil
}
