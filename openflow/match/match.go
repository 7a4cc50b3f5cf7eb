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

// Package match implements the flow match structure embedded in flow
// statistics: the fixed OF1.0 ofp_match, the OF1.1 standard match and the
// OXM TLV list used since OF1.2.
package match

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
)

const (
	OFPMT_STANDARD = 0
	OFPMT_OXM      = 1
)

const (
	standardLength        = 88
	standardPayloadLength = standardLength - 4
	// OF1.1 wildcard bits and mask positions inside the standard match payload.
	of11WildcardAll = (1 << 10) - 1
)

// Match is an immutable flow match bound to one protocol version.
type Match struct {
	version  openflow.Version
	legacy   Legacy
	standard []byte
	fields   []Field
	// TLVs of fields, without the trailing padding.
	encoded []byte
}

// Any returns a match that wildcards every field.
func Any(pv openflow.Version) (*Match, error) {
	switch {
	case !pv.Supported():
		return nil, openflow.VerMin(pv, openflow.OF10_VERSION, "match")
	case pv == openflow.OF10_VERSION:
		return NewLegacy(Legacy{Wildcards: OFPFW_ALL})
	case pv == openflow.OF11_VERSION:
		payload := make([]byte, standardPayloadLength)
		binary.BigEndian.PutUint32(payload[4:8], of11WildcardAll)
		for _, mask := range [][2]int{{14, 20}, {26, 32}, {44, 48}, {52, 56}, {76, 84}} {
			for i := mask[0]; i < mask[1]; i++ {
				payload[i] = 0xff
			}
		}
		return NewStandard(payload)
	default:
		return NewOXM(pv)
	}
}

func NewLegacy(l Legacy) (*Match, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}

	return &Match{version: openflow.OF10_VERSION, legacy: l.clone()}, nil
}

// NewStandard creates an OF1.1 match from the 84 bytes that follow its type
// and length fields.
func NewStandard(payload []byte) (*Match, error) {
	if payload == nil {
		return nil, openflow.NullArgument("standard match")
	}
	if len(payload) != standardPayloadLength {
		return nil, openflow.IllegalArgument("standard match payload must be %v bytes (got %v)", standardPayloadLength, len(payload))
	}

	return &Match{version: openflow.OF11_VERSION, standard: cloneBytes(payload)}, nil
}

// NewOXM creates an OF1.2+ match. Fields other than BasicField and RawField
// need a serializer registered for pv.
func NewOXM(pv openflow.Version, fields ...Field) (*Match, error) {
	if err := openflow.VerMin(pv, openflow.OF12_VERSION, "OXM match"); err != nil {
		return nil, err
	}

	v := &Match{version: pv, fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		tlv, err := EncodeField(pv, f)
		if err != nil {
			return nil, err
		}
		v.fields = append(v.fields, f)
		v.encoded = append(v.encoded, tlv...)
	}
	if 4+len(v.encoded) > 0xffff {
		return nil, openflow.OutOfRange("OXM match length", uint64(4+len(v.encoded)), 0xffff)
	}

	return v, nil
}

func (r *Match) Version() openflow.Version {
	return r.version
}

// Legacy returns the OF1.0 match fields. It returns the zero value for other
// versions.
func (r *Match) Legacy() Legacy {
	if r.version != openflow.OF10_VERSION {
		return Legacy{}
	}
	return r.legacy.clone()
}

// Standard returns the OF1.1 match payload, or nil for other versions.
func (r *Match) Standard() []byte {
	return cloneBytes(r.standard)
}

// Fields returns the OXM fields in wire order, or nil before OF1.2.
func (r *Match) Fields() []Field {
	if r.fields == nil {
		return nil
	}
	v := make([]Field, len(r.fields))
	copy(v, r.fields)

	return v
}

// Length returns the encoded length including the trailing padding.
func (r *Match) Length() int {
	switch r.version {
	case openflow.OF10_VERSION:
		return legacyLength
	case openflow.OF11_VERSION:
		return standardLength
	default:
		n := 4 + len(r.encoded)
		return n + openflow.Pad8(n)
	}
}

func (r *Match) Encode(w *openflow.PacketWriter) error {
	switch r.version {
	case openflow.OF10_VERSION:
		return r.legacy.encode(w)
	case openflow.OF11_VERSION:
		w.WriteU16(OFPMT_STANDARD)
		w.WriteU16(standardLength)
		w.WriteBytes(r.standard)
		return nil
	default:
		n := 4 + len(r.encoded)
		w.WriteU16(OFPMT_OXM)
		w.WriteU16(uint16(n))
		w.WriteBytes(r.encoded)
		w.WriteZeros(openflow.Pad8(n))
		return nil
	}
}

// Decode reads a match of version pv from r, including its trailing padding.
func Decode(r *openflow.PacketReader, pv openflow.Version) (*Match, error) {
	switch {
	case !pv.Supported():
		return nil, openflow.VerMin(pv, openflow.OF10_VERSION, "match")
	case pv == openflow.OF10_VERSION:
		l, err := decodeLegacy(r)
		if err != nil {
			return nil, err
		}
		return &Match{version: pv, legacy: l}, nil
	case pv == openflow.OF11_VERSION:
		return decodeStandard(r)
	default:
		return decodeOXM(r, pv)
	}
}

func decodeStandard(r *openflow.PacketReader) (*Match, error) {
	t := r.ReadU16()
	length := r.ReadU16()
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to decode standard match")
	}
	if t != OFPMT_STANDARD || length != standardLength {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "unexpected standard match header: type=%v, length=%v", t, length)
	}
	payload := r.ReadBytes(standardPayloadLength)
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to decode standard match")
	}

	return &Match{version: openflow.OF11_VERSION, standard: payload}, nil
}

func decodeOXM(r *openflow.PacketReader, pv openflow.Version) (*Match, error) {
	start := r.Position()
	t := r.ReadU16()
	length := int(r.ReadU16())
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to decode OXM match")
	}
	if t != OFPMT_OXM {
		return nil, errors.Wrapf(openflow.ErrUnknownType, "match type %v", t)
	}
	if length < 4 {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "OXM match length %v", length)
	}

	body, err := r.Bounded(length - 4)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode OXM match")
	}
	v := &Match{version: pv, fields: make([]Field, 0)}
	for body.Remaining() > 0 {
		f, err := DecodeField(body, pv)
		if err != nil {
			return nil, err
		}
		v.fields = append(v.fields, f)
	}
	if length > 4 {
		v.encoded = cloneBytes(r.Consumed(start+4, start+length))
	}
	r.Skip(openflow.Pad8(length))
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to skip OXM match padding")
	}

	return v, nil
}
