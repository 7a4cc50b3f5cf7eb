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

package action

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/registry"
)

// ExperimenterAction is a vendor action handled by a registered codec. Vendors
// following the Nicira layout put a 16-bit subtype right after the
// experimenter ID.
type ExperimenterAction interface {
	Action
	Experimenter() uint32
	Subtype() uint16
}

type ActionKey struct {
	Version      openflow.Version
	Experimenter uint32
	Subtype      uint16
}

func (r ActionKey) String() string {
	return fmt.Sprintf("%v experimenter=0x%08x subtype=%v", r.Version, r.Experimenter, r.Subtype)
}

// ActionSerializer returns the bytes following the subtype. The total action
// length, 10 plus the returned length, must be a multiple of 8.
type ActionSerializer interface {
	SerializeAction(a ExperimenterAction) ([]byte, error)
}

// ActionDeserializer decodes the bytes following the subtype.
type ActionDeserializer interface {
	DeserializeAction(body []byte) (ExperimenterAction, error)
}

var (
	serializers   = registry.New[ActionKey, ActionSerializer]()
	deserializers = registry.New[ActionKey, ActionDeserializer]()
)

func RegisterActionSerializer(key ActionKey, s ActionSerializer) error {
	if s == nil {
		return openflow.NullArgument("action serializer")
	}
	return serializers.Register(key, s)
}

func UnregisterActionSerializer(key ActionKey) bool {
	return serializers.Unregister(key)
}

func RegisterActionDeserializer(key ActionKey, d ActionDeserializer) error {
	if d == nil {
		return openflow.NullArgument("action deserializer")
	}
	return deserializers.Register(key, d)
}

func UnregisterActionDeserializer(key ActionKey) bool {
	return deserializers.Unregister(key)
}

func encodeExperimenter(w *openflow.PacketWriter, pv openflow.Version, a ExperimenterAction) error {
	key := ActionKey{Version: pv, Experimenter: a.Experimenter(), Subtype: a.Subtype()}
	s, ok := serializers.Lookup(key)
	if !ok {
		return errors.Wrapf(openflow.ErrNoCodec, "experimenter action (%v)", key)
	}
	body, err := s.SerializeAction(a)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize experimenter action (%v)", key)
	}
	w.WriteU32(key.Experimenter)
	w.WriteU16(key.Subtype)
	w.WriteBytes(body)

	return nil
}

func decodeExperimenter(r *openflow.PacketReader, pv openflow.Version) (Action, error) {
	experimenter := r.ReadU32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if r.Remaining() < 2 {
		return &Experimenter{Experimenter: experimenter, Data: r.ReadBytes(r.Remaining())}, nil
	}
	subtype, err := r.PeekU16(0)
	if err != nil {
		return nil, err
	}

	key := ActionKey{Version: pv, Experimenter: experimenter, Subtype: subtype}
	if d, ok := deserializers.Lookup(key); ok {
		r.Skip(2)
		v, err := d.DeserializeAction(r.ReadBytes(r.Remaining()))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to deserialize experimenter action (%v)", key)
		}
		return v, nil
	}

	if openflow.StrictParsing() {
		return nil, errors.Wrapf(openflow.ErrUnknownType, "experimenter action (%v)", key)
	}
	openflow.ReportUnknown("experimenter action", key)

	return &Experimenter{Experimenter: experimenter, Data: r.ReadBytes(r.Remaining())}, nil
}
