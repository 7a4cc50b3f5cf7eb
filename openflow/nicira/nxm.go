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

package nicira

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/match"
)

// NXM classes.
const (
	NXM_0 = 0x0000
	NXM_1 = 0x0001
)

// FieldID identifies an NXM field: the class in the upper byte and the field
// number in the lower byte.
type FieldID uint16

const (
	NXM_OF_ETH_DST      FieldID = NXM_0<<8 | 1
	NXM_OF_ETH_SRC      FieldID = NXM_0<<8 | 2
	NXM_OF_ETH_TYPE     FieldID = NXM_0<<8 | 3
	NXM_OF_IP_PROTO     FieldID = NXM_0<<8 | 6
	NXM_OF_TCP_SRC      FieldID = NXM_0<<8 | 9
	NXM_OF_TCP_DST      FieldID = NXM_0<<8 | 10
	NXM_OF_UDP_SRC      FieldID = NXM_0<<8 | 11
	NXM_OF_UDP_DST      FieldID = NXM_0<<8 | 12
	NXM_OF_ARP_OP       FieldID = NXM_0<<8 | 15
	NXM_OF_ARP_SPA      FieldID = NXM_0<<8 | 16
	NXM_OF_ARP_TPA      FieldID = NXM_0<<8 | 17
	NXM_NX_REG0         FieldID = NXM_1<<8 | 0
	NXM_NX_REG7         FieldID = NXM_1<<8 | 7
	NXM_NX_TUN_ID       FieldID = NXM_1<<8 | 16
	NXM_NX_ARP_SHA      FieldID = NXM_1<<8 | 17
	NXM_NX_ARP_THA      FieldID = NXM_1<<8 | 18
	NXM_NX_TUN_IPV4_SRC FieldID = NXM_1<<8 | 31
	NXM_NX_TUN_IPV4_DST FieldID = NXM_1<<8 | 32
)

func (r FieldID) Class() uint16 {
	return uint16(r >> 8)
}

func (r FieldID) Field() uint8 {
	return uint8(r)
}

// Header returns the unmasked NXM header of the field, as used by the source
// and destination operands of RegMove, RegLoad and OutputReg. It returns zero
// for a field this package does not know.
func (r FieldID) Header() uint32 {
	def, ok := fieldDefs[r]
	if !ok {
		return 0
	}

	return uint32(r.Class())<<16 | uint32(r.Field())<<9 | uint32(def.width)
}

func (r FieldID) String() string {
	if def, ok := fieldDefs[r]; ok {
		return def.name
	}
	return fmt.Sprintf("NXM(%v:%v)", r.Class(), r.Field())
}

// Reg matches one of the eight 32-bit registers. A zero Mask matches exactly.
type Reg struct {
	Index uint8
	Value uint32
	Mask  uint32
}

func (r *Reg) Class() uint16 {
	return NXM_1
}

func (r *Reg) Field() uint8 {
	return NXM_NX_REG0.Field() + r.Index
}

func (r *Reg) HasMask() bool {
	return r.Mask != 0
}

// TunID matches the tunnel ID. A zero Mask matches exactly.
type TunID struct {
	ID   uint64
	Mask uint64
}

func (r *TunID) Class() uint16 {
	return NXM_NX_TUN_ID.Class()
}

func (r *TunID) Field() uint8 {
	return NXM_NX_TUN_ID.Field()
}

func (r *TunID) HasMask() bool {
	return r.Mask != 0
}

// MAC matches an Ethernet address: NXM_OF_ETH_SRC, NXM_OF_ETH_DST,
// NXM_NX_ARP_SHA or NXM_NX_ARP_THA. Mask is nil for an exact match.
type MAC struct {
	ID   FieldID
	Addr net.HardwareAddr
	Mask net.HardwareAddr
}

func (r *MAC) Class() uint16 {
	return r.ID.Class()
}

func (r *MAC) Field() uint8 {
	return r.ID.Field()
}

func (r *MAC) HasMask() bool {
	return r.Mask != nil
}

// IPv4 matches an IPv4 address: NXM_OF_ARP_SPA, NXM_OF_ARP_TPA,
// NXM_NX_TUN_IPV4_SRC or NXM_NX_TUN_IPV4_DST. Mask is nil for an exact match.
type IPv4 struct {
	ID   FieldID
	Addr net.IP
	Mask net.IPMask
}

func (r *IPv4) Class() uint16 {
	return r.ID.Class()
}

func (r *IPv4) Field() uint8 {
	return r.ID.Field()
}

func (r *IPv4) HasMask() bool {
	return r.Mask != nil
}

type EthType struct {
	Type layers.EthernetType
}

func (r *EthType) Class() uint16 {
	return NXM_OF_ETH_TYPE.Class()
}

func (r *EthType) Field() uint8 {
	return NXM_OF_ETH_TYPE.Field()
}

func (r *EthType) HasMask() bool {
	return false
}

type IPProto struct {
	Protocol layers.IPProtocol
}

func (r *IPProto) Class() uint16 {
	return NXM_OF_IP_PROTO.Class()
}

func (r *IPProto) Field() uint8 {
	return NXM_OF_IP_PROTO.Field()
}

func (r *IPProto) HasMask() bool {
	return false
}

// ARPOp matches the ARP opcode, e.g. layers.ARPRequest.
type ARPOp struct {
	Op uint16
}

func (r *ARPOp) Class() uint16 {
	return NXM_OF_ARP_OP.Class()
}

func (r *ARPOp) Field() uint8 {
	return NXM_OF_ARP_OP.Field()
}

func (r *ARPOp) HasMask() bool {
	return false
}

// TCPPort matches NXM_OF_TCP_SRC or NXM_OF_TCP_DST.
type TCPPort struct {
	ID   FieldID
	Port layers.TCPPort
}

func (r *TCPPort) Class() uint16 {
	return r.ID.Class()
}

func (r *TCPPort) Field() uint8 {
	return r.ID.Field()
}

func (r *TCPPort) HasMask() bool {
	return false
}

// UDPPort matches NXM_OF_UDP_SRC or NXM_OF_UDP_DST.
type UDPPort struct {
	ID   FieldID
	Port layers.UDPPort
}

func (r *UDPPort) Class() uint16 {
	return r.ID.Class()
}

func (r *UDPPort) Field() uint8 {
	return r.ID.Field()
}

func (r *UDPPort) HasMask() bool {
	return false
}

// fieldDef describes the wire form of a field. encode returns the value and
// the mask, nil if unmasked, and fails if f is not the Go type of the field.
type fieldDef struct {
	name     string
	width    int
	maskable bool
	encode   func(id FieldID, f match.Field) (value, mask []byte, err error)
	decode   func(id FieldID, value, mask []byte) match.Field
}

var fieldDefs = map[FieldID]*fieldDef{
	NXM_OF_ETH_DST:      {name: "NXM_OF_ETH_DST", width: 6, maskable: true, encode: encodeMAC, decode: decodeMAC},
	NXM_OF_ETH_SRC:      {name: "NXM_OF_ETH_SRC", width: 6, maskable: true, encode: encodeMAC, decode: decodeMAC},
	NXM_OF_ETH_TYPE:     {name: "NXM_OF_ETH_TYPE", width: 2, encode: encodeEthType, decode: decodeEthType},
	NXM_OF_IP_PROTO:     {name: "NXM_OF_IP_PROTO", width: 1, encode: encodeIPProto, decode: decodeIPProto},
	NXM_OF_TCP_SRC:      {name: "NXM_OF_TCP_SRC", width: 2, encode: encodeTCPPort, decode: decodeTCPPort},
	NXM_OF_TCP_DST:      {name: "NXM_OF_TCP_DST", width: 2, encode: encodeTCPPort, decode: decodeTCPPort},
	NXM_OF_UDP_SRC:      {name: "NXM_OF_UDP_SRC", width: 2, encode: encodeUDPPort, decode: decodeUDPPort},
	NXM_OF_UDP_DST:      {name: "NXM_OF_UDP_DST", width: 2, encode: encodeUDPPort, decode: decodeUDPPort},
	NXM_OF_ARP_OP:       {name: "NXM_OF_ARP_OP", width: 2, encode: encodeARPOp, decode: decodeARPOp},
	NXM_OF_ARP_SPA:      {name: "NXM_OF_ARP_SPA", width: 4, maskable: true, encode: encodeIPv4, decode: decodeIPv4},
	NXM_OF_ARP_TPA:      {name: "NXM_OF_ARP_TPA", width: 4, maskable: true, encode: encodeIPv4, decode: decodeIPv4},
	NXM_NX_TUN_ID:       {name: "NXM_NX_TUN_ID", width: 8, maskable: true, encode: encodeTunID, decode: decodeTunID},
	NXM_NX_ARP_SHA:      {name: "NXM_NX_ARP_SHA", width: 6, encode: encodeMAC, decode: decodeMAC},
	NXM_NX_ARP_THA:      {name: "NXM_NX_ARP_THA", width: 6, encode: encodeMAC, decode: decodeMAC},
	NXM_NX_TUN_IPV4_SRC: {name: "NXM_NX_TUN_IPV4_SRC", width: 4, maskable: true, encode: encodeIPv4, decode: decodeIPv4},
	NXM_NX_TUN_IPV4_DST: {name: "NXM_NX_TUN_IPV4_DST", width: 4, maskable: true, encode: encodeIPv4, decode: decodeIPv4},
}

func init() {
	for id := NXM_NX_REG0; id <= NXM_NX_REG7; id++ {
		fieldDefs[id] = &fieldDef{
			name:     fmt.Sprintf("NXM_NX_REG%d", uint16(id-NXM_NX_REG0)),
			width:    4,
			maskable: true,
			encode:   encodeReg,
			decode:   decodeReg,
		}
	}
}

func unexpectedField(id FieldID, f match.Field) error {
	return openflow.IllegalArgument("unexpected %T for %v", f, id)
}

func encodeReg(id FieldID, f match.Field) ([]byte, []byte, error) {
	v, ok := f.(*Reg)
	if !ok || NXM_NX_REG0+FieldID(v.Index) != id {
		return nil, nil, unexpectedField(id, f)
	}
	value := binary.BigEndian.AppendUint32(nil, v.Value)
	if !v.HasMask() {
		return value, nil, nil
	}

	return value, binary.BigEndian.AppendUint32(nil, v.Mask), nil
}

func decodeReg(id FieldID, value, mask []byte) match.Field {
	f := &Reg{Index: uint8(id - NXM_NX_REG0), Value: binary.BigEndian.Uint32(value)}
	if mask != nil {
		f.Mask = binary.BigEndian.Uint32(mask)
	}

	return f
}

func encodeTunID(id FieldID, f match.Field) ([]byte, []byte, error) {
	v, ok := f.(*TunID)
	if !ok {
		return nil, nil, unexpectedField(id, f)
	}
	value := binary.BigEndian.AppendUint64(nil, v.ID)
	if !v.HasMask() {
		return value, nil, nil
	}

	return value, binary.BigEndian.AppendUint64(nil, v.Mask), nil
}

func decodeTunID(id FieldID, value, mask []byte) match.Field {
	f := &TunID{ID: binary.BigEndian.Uint64(value)}
	if mask != nil {
		f.Mask = binary.BigEndian.Uint64(mask)
	}

	return f
}

func encodeMAC(id FieldID, f match.Field) ([]byte, []byte, error) {
	v, ok := f.(*MAC)
	if !ok || v.ID != id {
		return nil, nil, unexpectedField(id, f)
	}
	if len(v.Addr) != 6 {
		return nil, nil, openflow.IllegalArgument("invalid %v address: %v", id, v.Addr)
	}
	if v.Mask != nil && len(v.Mask) != 6 {
		return nil, nil, openflow.IllegalArgument("invalid %v mask: %v", id, v.Mask)
	}

	return []byte(v.Addr), []byte(v.Mask), nil
}

func decodeMAC(id FieldID, value, mask []byte) match.Field {
	f := &MAC{ID: id, Addr: net.HardwareAddr(value)}
	if mask != nil {
		f.Mask = net.HardwareAddr(mask)
	}

	return f
}

func encodeIPv4(id FieldID, f match.Field) ([]byte, []byte, error) {
	v, ok := f.(*IPv4)
	if !ok || v.ID != id {
		return nil, nil, unexpectedField(id, f)
	}
	addr := v.Addr.To4()
	if addr == nil {
		return nil, nil, openflow.IllegalArgument("invalid %v address: %v", id, v.Addr)
	}
	if v.Mask != nil && len(v.Mask) != net.IPv4len {
		return nil, nil, openflow.IllegalArgument("invalid %v mask: %v", id, v.Mask)
	}

	return []byte(addr), []byte(v.Mask), nil
}

func decodeIPv4(id FieldID, value, mask []byte) match.Field {
	f := &IPv4{ID: id, Addr: net.IP(value)}
	if mask != nil {
		f.Mask = net.IPMask(mask)
	}

	return f
}

func encodeEthType(id FieldID, f match.Field) ([]byte, []byte, error) {
	v, ok := f.(*EthType)
	if !ok {
		return nil, nil, unexpectedField(id, f)
	}

	return binary.BigEndian.AppendUint16(nil, uint16(v.Type)), nil, nil
}

func decodeEthType(id FieldID, value, mask []byte) match.Field {
	return &EthType{Type: layers.EthernetType(binary.BigEndian.Uint16(value))}
}

func encodeIPProto(id FieldID, f match.Field) ([]byte, []byte, error) {
	v, ok := f.(*IPProto)
	if !ok {
		return nil, nil, unexpectedField(id, f)
	}

	return []byte{uint8(v.Protocol)}, nil, nil
}

func decodeIPProto(id FieldID, value, mask []byte) match.Field {
	return &IPProto{Protocol: layers.IPProtocol(value[0])}
}

func encodeARPOp(id FieldID, f match.Field) ([]byte, []byte, error) {
	v, ok := f.(*ARPOp)
	if !ok {
		return nil, nil, unexpectedField(id, f)
	}

	return binary.BigEndian.AppendUint16(nil, v.Op), nil, nil
}

func decodeARPOp(id FieldID, value, mask []byte) match.Field {
	return &ARPOp{Op: binary.BigEndian.Uint16(value)}
}

func encodeTCPPort(id FieldID, f match.Field) ([]byte, []byte, error) {
	v, ok := f.(*TCPPort)
	if !ok || v.ID != id {
		return nil, nil, unexpectedField(id, f)
	}

	return binary.BigEndian.AppendUint16(nil, uint16(v.Port)), nil, nil
}

func decodeTCPPort(id FieldID, value, mask []byte) match.Field {
	return &TCPPort{ID: id, Port: layers.TCPPort(binary.BigEndian.Uint16(value))}
}

func encodeUDPPort(id FieldID, f match.Field) ([]byte, []byte, error) {
	v, ok := f.(*UDPPort)
	if !ok || v.ID != id {
		return nil, nil, unexpectedField(id, f)
	}

	return binary.BigEndian.AppendUint16(nil, uint16(v.Port)), nil, nil
}

func decodeUDPPort(id FieldID, value, mask []byte) match.Field {
	return &UDPPort{ID: id, Port: layers.UDPPort(binary.BigEndian.Uint16(value))}
}

// fieldCodec serializes and deserializes one NXM field.
type fieldCodec struct {
	id  FieldID
	def *fieldDef
}

func (r fieldCodec) SerializeField(f match.Field) ([]byte, error) {
	value, mask, err := r.def.encode(r.id, f)
	if err != nil {
		return nil, err
	}
	if len(value) != r.def.width {
		return nil, openflow.IllegalArgument("%v: expected %v bytes value, got %v", r.id, r.def.width, len(value))
	}
	payload := make([]byte, 0, 2*r.def.width)
	payload = append(payload, value...)
	if mask == nil {
		return payload, nil
	}
	if !r.def.maskable {
		return nil, openflow.IllegalArgument("%v cannot be masked", r.id)
	}

	return append(payload, mask...), nil
}

func (r fieldCodec) DeserializeField(hasMask bool, payload []byte) (match.Field, error) {
	length := r.def.width
	if hasMask {
		if !r.def.maskable {
			return nil, openflow.IllegalArgument("%v cannot be masked", r.id)
		}
		length *= 2
	}
	if len(payload) != length {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "%v: expected %v bytes, got %v", r.id, length, len(payload))
	}

	value := make([]byte, r.def.width)
	copy(value, payload)
	var mask []byte
	if hasMask {
		mask = make([]byte, r.def.width)
		copy(mask, payload[r.def.width:])
	}

	return r.def.decode(r.id, value, mask), nil
}
