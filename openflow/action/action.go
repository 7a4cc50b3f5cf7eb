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

// Package action encodes and decodes the action lists carried by flow
// statistics and group buckets.
package action

import (
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/match"
)

// Action type codes shared by every version.
const (
	OFPAT_OUTPUT       = 0
	OFPAT_EXPERIMENTER = 0xffff
)

// OF1.0 action type codes.
const (
	OF10_OFPAT_SET_VLAN_VID = 1
	OF10_OFPAT_SET_VLAN_PCP = 2
	OF10_OFPAT_STRIP_VLAN   = 3
	OF10_OFPAT_SET_DL_SRC   = 4
	OF10_OFPAT_SET_DL_DST   = 5
	OF10_OFPAT_SET_NW_SRC   = 6
	OF10_OFPAT_SET_NW_DST   = 7
	OF10_OFPAT_SET_NW_TOS   = 8
	OF10_OFPAT_SET_TP_SRC   = 9
	OF10_OFPAT_SET_TP_DST   = 10
	OF10_OFPAT_ENQUEUE      = 11
)

// OF1.1+ action type codes.
const (
	OFPAT_COPY_TTL_OUT = 11
	OFPAT_COPY_TTL_IN  = 12
	OFPAT_SET_MPLS_TTL = 15
	OFPAT_DEC_MPLS_TTL = 16
	OFPAT_PUSH_VLAN    = 17
	OFPAT_POP_VLAN     = 18
	OFPAT_PUSH_MPLS    = 19
	OFPAT_POP_MPLS     = 20
	OFPAT_SET_QUEUE    = 21
	OFPAT_GROUP        = 22
	OFPAT_SET_NW_TTL   = 23
	OFPAT_DEC_NW_TTL   = 24
	OFPAT_SET_FIELD    = 25
	OFPAT_PUSH_PBB     = 26
	OFPAT_POP_PBB      = 27
)

// Action is one entry of an action list.
type Action interface {
	// Type returns the wire type code of the action at pv, or an error if
	// the action does not exist at pv.
	Type(pv openflow.Version) (uint16, error)
}

type Output struct {
	Port   openflow.PortNumber
	MaxLen uint16
}

func (r *Output) Type(pv openflow.Version) (uint16, error) {
	return OFPAT_OUTPUT, nil
}

// Enqueue is the OF1.0 action that forwards through a port queue.
type Enqueue struct {
	Port    openflow.PortNumber
	QueueID uint32
}

func (r *Enqueue) Type(pv openflow.Version) (uint16, error) {
	if pv != openflow.OF10_VERSION {
		return 0, openflow.VerMismatch(pv, "enqueue action")
	}
	return OF10_OFPAT_ENQUEUE, nil
}

type SetQueue struct {
	QueueID uint32
}

func (r *SetQueue) Type(pv openflow.Version) (uint16, error) {
	if pv < openflow.OF11_VERSION {
		return 0, openflow.VerMismatch(pv, "set-queue action")
	}
	return OFPAT_SET_QUEUE, nil
}

type Group struct {
	GroupID uint32
}

func (r *Group) Type(pv openflow.Version) (uint16, error) {
	if pv < openflow.OF11_VERSION {
		return 0, openflow.VerMismatch(pv, "group action")
	}
	return OFPAT_GROUP, nil
}

type SetField struct {
	Field match.Field
}

func (r *SetField) Type(pv openflow.Version) (uint16, error) {
	if pv < openflow.OF12_VERSION {
		return 0, openflow.VerMismatch(pv, "set-field action")
	}
	return OFPAT_SET_FIELD, nil
}

// Raw is any standard action without a dedicated type. Payload holds the bytes
// after the 4-byte type and length header, padding included.
type Raw struct {
	Code    uint16
	Payload []byte
}

func (r *Raw) Type(pv openflow.Version) (uint16, error) {
	return r.Code, nil
}

// Experimenter is a vendor action that no registered codec understands.
// Data holds the bytes after the experimenter ID.
type Experimenter struct {
	Experimenter uint32
	Data         []byte
}

func (r *Experimenter) Type(pv openflow.Version) (uint16, error) {
	return OFPAT_EXPERIMENTER, nil
}

// Encode writes a as one action of version pv.
func Encode(w *openflow.PacketWriter, pv openflow.Version, a Action) error {
	if a == nil {
		return openflow.NullArgument("action")
	}
	code, err := a.Type(pv)
	if err != nil {
		return err
	}

	start := w.Position()
	w.WriteU16(code)
	// Length is patched below.
	w.WriteU16(0)

	switch v := a.(type) {
	case *Output:
		if err := openflow.WritePortNumber(w, pv, v.Port); err != nil {
			return err
		}
		w.WriteU16(v.MaxLen)
		if pv != openflow.OF10_VERSION {
			w.WriteZeros(6)
		}
	case *Enqueue:
		if err := openflow.WritePortNumber(w, pv, v.Port); err != nil {
			return err
		}
		w.WriteZeros(6)
		w.WriteU32(v.QueueID)
	case *SetQueue:
		w.WriteU32(v.QueueID)
	case *Group:
		w.WriteU32(v.GroupID)
	case *SetField:
		tlv, err := match.EncodeField(pv, v.Field)
		if err != nil {
			return err
		}
		w.WriteBytes(tlv)
		w.WriteZeros(openflow.Pad8(4 + len(tlv)))
	case *Raw:
		w.WriteBytes(v.Payload)
	case *Experimenter:
		w.WriteU32(v.Experimenter)
		w.WriteBytes(v.Data)
	case ExperimenterAction:
		if err := encodeExperimenter(w, pv, v); err != nil {
			return err
		}
	default:
		return errors.Wrapf(openflow.ErrNoCodec, "action %T", a)
	}

	length := w.Position() - start
	if length%8 != 0 || length > 0xffff {
		return openflow.IllegalArgument("action %T has invalid length %v", a, length)
	}
	w.PutU16At(start+2, uint16(length))

	return nil
}

// EncodeList writes every action in order.
func EncodeList(w *openflow.PacketWriter, pv openflow.Version, actions []Action) error {
	for _, a := range actions {
		if err := Encode(w, pv, a); err != nil {
			return err
		}
	}

	return nil
}

// ListLength returns the encoded length of actions at pv.
func ListLength(pv openflow.Version, actions []Action) (int, error) {
	w := openflow.NewPacketWriter()
	if err := EncodeList(w, pv, actions); err != nil {
		return 0, err
	}

	return w.Position(), nil
}

// Decode reads one action. The action's length field bounds everything read
// for it.
func Decode(r *openflow.PacketReader, pv openflow.Version) (Action, error) {
	start := r.Position()
	code := r.ReadU16()
	length := int(r.ReadU16())
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read action header")
	}
	if length < 8 || length%8 != 0 {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "action %v at offset %v has length %v", code, start, length)
	}
	body, err := r.Bounded(length - 4)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read action %v", code)
	}

	var v Action
	switch {
	case code == OFPAT_OUTPUT:
		v = &Output{Port: openflow.ReadPortNumber(body, pv), MaxLen: body.ReadU16()}
	case code == OF10_OFPAT_ENQUEUE && pv == openflow.OF10_VERSION:
		a := &Enqueue{Port: openflow.ReadPortNumber(body, pv)}
		body.Skip(6)
		a.QueueID = body.ReadU32()
		v = a
	case code == OFPAT_SET_QUEUE && pv >= openflow.OF11_VERSION:
		v = &SetQueue{QueueID: body.ReadU32()}
	case code == OFPAT_GROUP && pv >= openflow.OF11_VERSION:
		v = &Group{GroupID: body.ReadU32()}
	case code == OFPAT_SET_FIELD && pv >= openflow.OF12_VERSION:
		f, err := match.DecodeField(body, pv)
		if err != nil {
			return nil, err
		}
		v = &SetField{Field: f}
	case code == OFPAT_EXPERIMENTER:
		a, err := decodeExperimenter(body, pv)
		if err != nil {
			return nil, err
		}
		v = a
	default:
		v = &Raw{Code: code, Payload: body.ReadBytes(body.Remaining())}
	}
	if err := body.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to decode action %v", code)
	}

	return v, nil
}

// DecodeList reads actions until r reaches its target index.
func DecodeList(r *openflow.PacketReader, pv openflow.Version) ([]Action, error) {
	actions := make([]Action, 0)
	for r.Remaining() > 0 {
		a, err := Decode(r, pv)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	return actions, nil
}
