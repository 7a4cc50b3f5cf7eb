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

package match

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/registry"
)

// OXM classes.
const (
	OFPXMC_NXM_0          = 0x0000
	OFPXMC_NXM_1          = 0x0001
	OFPXMC_OPENFLOW_BASIC = 0x8000
	OFPXMC_EXPERIMENTER   = 0xffff
)

// OXM basic field types.
const (
	OFPXMT_OFB_IN_PORT = iota
	OFPXMT_OFB_IN_PHY_PORT
	OFPXMT_OFB_METADATA
	OFPXMT_OFB_ETH_DST
	OFPXMT_OFB_ETH_SRC
	OFPXMT_OFB_ETH_TYPE
	OFPXMT_OFB_VLAN_VID
	OFPXMT_OFB_VLAN_PCP
	OFPXMT_OFB_IP_DSCP
	OFPXMT_OFB_IP_ECN
	OFPXMT_OFB_IP_PROTO
	OFPXMT_OFB_IPV4_SRC
	OFPXMT_OFB_IPV4_DST
	OFPXMT_OFB_TCP_SRC
	OFPXMT_OFB_TCP_DST
	OFPXMT_OFB_UDP_SRC
	OFPXMT_OFB_UDP_DST
	OFPXMT_OFB_SCTP_SRC
	OFPXMT_OFB_SCTP_DST
	OFPXMT_OFB_ICMPV4_TYPE
	OFPXMT_OFB_ICMPV4_CODE
	OFPXMT_OFB_ARP_OP
	OFPXMT_OFB_ARP_SPA
	OFPXMT_OFB_ARP_TPA
	OFPXMT_OFB_ARP_SHA
	OFPXMT_OFB_ARP_THA
	OFPXMT_OFB_IPV6_SRC
	OFPXMT_OFB_IPV6_DST
	OFPXMT_OFB_IPV6_FLABEL
	OFPXMT_OFB_ICMPV6_TYPE
	OFPXMT_OFB_ICMPV6_CODE
	OFPXMT_OFB_IPV6_ND_TARGET
	OFPXMT_OFB_IPV6_ND_SLL
	OFPXMT_OFB_IPV6_ND_TLL
	OFPXMT_OFB_MPLS_LABEL
	OFPXMT_OFB_MPLS_TC
	OFPXMT_OFP_MPLS_BOS
	OFPXMT_OFB_PBB_ISID
	OFPXMT_OFB_TUNNEL_ID
	OFPXMT_OFB_IPV6_EXTHDR
)

// OFPVID_PRESENT is set in VLAN_VID values to match tagged frames.
const OFPVID_PRESENT = 0x1000

// Field is one TLV entry of an OXM match.
type Field interface {
	Class() uint16
	Field() uint8
	HasMask() bool
}

// Header returns the 32-bit TLV header of f for the given payload length.
func Header(f Field, length int) uint32 {
	var mask uint32
	if f.HasMask() {
		mask = 1
	}

	return uint32(f.Class())<<16 | uint32(f.Field()&0x7f)<<9 | mask<<8 | uint32(length&0xff)
}

// BasicField is a field of the OpenFlow basic class. Mask is nil for an exact
// match and has the same length as Value otherwise.
type BasicField struct {
	Type  uint8
	Value []byte
	Mask  []byte
}

func (r *BasicField) Class() uint16 {
	return OFPXMC_OPENFLOW_BASIC
}

func (r *BasicField) Field() uint8 {
	return r.Type
}

func (r *BasicField) HasMask() bool {
	return r.Mask != nil
}

// RawField keeps an OXM entry that no codec could decode. Payload holds the
// value followed by the mask, exactly as received.
type RawField struct {
	OXMClass uint16
	OXMField uint8
	Masked   bool
	Payload  []byte
}

func (r *RawField) Class() uint16 {
	return r.OXMClass
}

func (r *RawField) Field() uint8 {
	return r.OXMField
}

func (r *RawField) HasMask() bool {
	return r.Masked
}

func InPort(port openflow.PortNumber) *BasicField {
	return &BasicField{Type: OFPXMT_OFB_IN_PORT, Value: binary.BigEndian.AppendUint32(nil, uint32(port))}
}

func Metadata(value, mask uint64) *BasicField {
	return &BasicField{
		Type:  OFPXMT_OFB_METADATA,
		Value: binary.BigEndian.AppendUint64(nil, value),
		Mask:  binary.BigEndian.AppendUint64(nil, mask),
	}
}

func EthSrc(mac net.HardwareAddr) *BasicField {
	return &BasicField{Type: OFPXMT_OFB_ETH_SRC, Value: cloneBytes([]byte(mac))}
}

func EthDst(mac net.HardwareAddr) *BasicField {
	return &BasicField{Type: OFPXMT_OFB_ETH_DST, Value: cloneBytes([]byte(mac))}
}

func EthType(t layers.EthernetType) *BasicField {
	return &BasicField{Type: OFPXMT_OFB_ETH_TYPE, Value: binary.BigEndian.AppendUint16(nil, uint16(t))}
}

func VLANID(vid uint16) *BasicField {
	return &BasicField{Type: OFPXMT_OFB_VLAN_VID, Value: binary.BigEndian.AppendUint16(nil, vid|OFPVID_PRESENT)}
}

func IPProto(p layers.IPProtocol) *BasicField {
	return &BasicField{Type: OFPXMT_OFB_IP_PROTO, Value: []byte{uint8(p)}}
}

func IPv4Src(ip *net.IPNet) *BasicField {
	return ipv4Field(OFPXMT_OFB_IPV4_SRC, ip)
}

func IPv4Dst(ip *net.IPNet) *BasicField {
	return ipv4Field(OFPXMT_OFB_IPV4_DST, ip)
}

func ipv4Field(t uint8, ip *net.IPNet) *BasicField {
	f := &BasicField{Type: t, Value: cloneBytes([]byte(ip.IP.To4()))}
	if ones, bits := ip.Mask.Size(); ones != bits {
		f.Mask = cloneBytes([]byte(ip.Mask))
	}

	return f
}

func TunnelID(id uint64) *BasicField {
	return &BasicField{Type: OFPXMT_OFB_TUNNEL_ID, Value: binary.BigEndian.AppendUint64(nil, id)}
}

// FieldKey identifies a field codec. Codecs are looked up by the class and
// field of the TLV and the protocol version of the session.
type FieldKey struct {
	Version openflow.Version
	Class   uint16
	Field   uint8
}

func (r FieldKey) String() string {
	return fmt.Sprintf("%v class=0x%04x field=%v", r.Version, r.Class, r.Field)
}

// FieldSerializer encodes a field into its TLV payload: the value followed by
// the mask if the field has one.
type FieldSerializer interface {
	SerializeField(f Field) ([]byte, error)
}

// FieldDeserializer decodes a TLV payload into a field.
type FieldDeserializer interface {
	DeserializeField(hasMask bool, payload []byte) (Field, error)
}

var (
	serializers   = registry.New[FieldKey, FieldSerializer]()
	deserializers = registry.New[FieldKey, FieldDeserializer]()
)

func RegisterFieldSerializer(key FieldKey, s FieldSerializer) error {
	if s == nil {
		return openflow.NullArgument("field serializer")
	}
	return serializers.Register(key, s)
}

func UnregisterFieldSerializer(key FieldKey) bool {
	return serializers.Unregister(key)
}

func RegisterFieldDeserializer(key FieldKey, d FieldDeserializer) error {
	if d == nil {
		return openflow.NullArgument("field deserializer")
	}
	return deserializers.Register(key, d)
}

func UnregisterFieldDeserializer(key FieldKey) bool {
	return deserializers.Unregister(key)
}

// EncodeField returns the full TLV of f, header included.
func EncodeField(pv openflow.Version, f Field) ([]byte, error) {
	if f == nil {
		return nil, openflow.NullArgument("match field")
	}

	var payload []byte
	switch v := f.(type) {
	case *RawField:
		payload = v.Payload
	default:
		key := FieldKey{Version: pv, Class: f.Class(), Field: f.Field()}
		s, ok := serializers.Lookup(key)
		if ok {
			p, err := s.SerializeField(f)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to serialize OXM field (%v)", key)
			}
			payload = p
			break
		}
		basic, ok := f.(*BasicField)
		if !ok {
			return nil, errors.Wrapf(openflow.ErrNoCodec, "OXM field (%v)", key)
		}
		if basic.Mask != nil && len(basic.Mask) != len(basic.Value) {
			return nil, openflow.IllegalArgument("OXM field %v: mask length %v differs from value length %v", basic.Type, len(basic.Mask), len(basic.Value))
		}
		payload = append(cloneBytes(basic.Value), basic.Mask...)
	}
	if len(payload) > 0xff {
		return nil, openflow.OutOfRange("OXM payload length", uint64(len(payload)), 0xff)
	}

	tlv := binary.BigEndian.AppendUint32(nil, Header(f, len(payload)))
	return append(tlv, payload...), nil
}

// DecodeField reads one TLV from r.
func DecodeField(r *openflow.PacketReader, pv openflow.Version) (Field, error) {
	header := r.ReadU32()
	class := uint16(header >> 16 & 0xffff)
	field := uint8(header >> 9 & 0x7f)
	hasMask := header>>8&0x1 == 1
	length := int(header & 0xff)
	payload := r.ReadBytes(length)
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read OXM field")
	}

	key := FieldKey{Version: pv, Class: class, Field: field}
	if d, ok := deserializers.Lookup(key); ok {
		f, err := d.DeserializeField(hasMask, payload)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to deserialize OXM field (%v)", key)
		}
		return f, nil
	}

	if class == OFPXMC_OPENFLOW_BASIC {
		f := &BasicField{Type: field, Value: payload}
		if hasMask {
			if length%2 != 0 {
				return nil, openflow.IllegalArgument("masked OXM field %v has odd length %v", field, length)
			}
			f.Value, f.Mask = payload[:length/2], payload[length/2:]
		}
		return f, nil
	}

	if openflow.StrictParsing() {
		return nil, errors.Wrapf(openflow.ErrUnknownType, "OXM field (%v)", key)
	}
	openflow.ReportUnknown("OXM field", key)

	return &RawField{OXMClass: class, OXMField: field, Masked: hasMask, Payload: payload}, nil
}

func cloneBytes[T ~[]byte](v T) T {
	if v == nil {
		return nil
	}
	c := make(T, len(v))
	copy(c, v)

	return c
}
