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
	"encoding/hex"
	"net"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
)

var matchOpts = []cmp.Option{cmp.AllowUnexported(Match{}), cmpopts.EquateEmpty()}

func encode(t *testing.T, m *Match) []byte {
	w := openflow.NewPacketWriter()
	if err := m.Encode(w); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if w.Position() != m.Length() {
		t.Fatalf("encoded %v bytes, Length() is %v", w.Position(), m.Length())
	}

	return w.Bytes()
}

func TestLegacyCodec(t *testing.T) {
	m, err := NewLegacy(Legacy{
		Wildcards:    OFPFW_ALL &^ (OFPFW_IN_PORT | OFPFW_DL_TYPE | OFPFW_NW_PROTO | OFPFW_NW_TOS),
		InPort:       3,
		SrcMAC:       net.HardwareAddr{0x00, 0x0b, 0x82, 0x01, 0xfc, 0x42},
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EtherType:    layers.EthernetTypeIPv4,
		TOS:          0x10,
		Protocol:     layers.IPProtocolTCP,
		SrcIP:        net.IPv4(10, 0, 0, 1).To4(),
		DstIP:        net.IPv4(10, 0, 0, 2).To4(),
		SrcPort:      80,
		DstPort:      8080,
		VLANPriority: 0,
	})
	if err != nil {
		t.Fatal(err)
	}

	packet := encode(t, m)
	expected := "001fffce" + "0003" + "000b8201fc42" + "ffffffffffff" + "0000" + "00" + "00" + "0800" + "10" + "06" + "0000" + "0a000001" + "0a000002" + "0050" + "1f90"
	if got := hex.EncodeToString(packet); got != expected {
		t.Fatalf("unexpected packet:\nexpected=%v\ngot=     %v", expected, got)
	}

	decoded, err := Decode(openflow.NewPacketReader(packet), openflow.OF10_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(m, decoded, matchOpts...); diff != "" {
		t.Fatalf("unexpected match: %v", diff)
	}
}

func TestLegacyInvalid(t *testing.T) {
	if _, err := NewLegacy(Legacy{InPort: 0xff01}); !errors.Is(err, openflow.ErrOutOfRange) {
		t.Fatalf("expected range error, got %v", err)
	}
	if _, err := NewLegacy(Legacy{SrcMAC: net.HardwareAddr{1, 2, 3}}); !errors.Is(err, openflow.ErrIllegalArgument) {
		t.Fatalf("expected illegal argument, got %v", err)
	}
}

func TestStandardCodec(t *testing.T) {
	m, err := Any(openflow.OF11_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	packet := encode(t, m)
	if hex.EncodeToString(packet[0:8]) != "00000058"+"00000000" {
		t.Fatalf("unexpected header: %x", packet[0:8])
	}

	decoded, err := Decode(openflow.NewPacketReader(packet), openflow.OF11_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(m, decoded, matchOpts...); diff != "" {
		t.Fatalf("unexpected match: %v", diff)
	}
}

func TestOXMCodec(t *testing.T) {
	_, subnet, err := net.ParseCIDR("192.168.0.0/16")
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewOXM(openflow.OF13_VERSION, InPort(1), EthType(layers.EthernetTypeIPv4), IPv4Src(subnet))
	if err != nil {
		t.Fatal(err)
	}

	packet := encode(t, m)
	// 4 + 8 + 6 + 12 = 30 bytes padded to 32.
	expected := "0001001e" + "80000004" + "00000001" + "80000a02" + "0800" + "80001708" + "c0a80000" + "ffff0000" + "0000"
	if got := hex.EncodeToString(packet); got != expected {
		t.Fatalf("unexpected packet:\nexpected=%v\ngot=     %v", expected, got)
	}

	decoded, err := Decode(openflow.NewPacketReader(packet), openflow.OF13_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(m, decoded, matchOpts...); diff != "" {
		t.Fatalf("unexpected match: %v", diff)
	}
}

func TestOXMEmpty(t *testing.T) {
	m, err := Any(openflow.OF12_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	if got := hex.EncodeToString(encode(t, m)); got != "0001000400000000" {
		t.Fatalf("unexpected packet: %v", got)
	}
}

func TestOXMUnknownField(t *testing.T) {
	defer openflow.SetStrictParsing(false)
	// An NXM_NX field with no codec registered followed by padding.
	packet, _ := hex.DecodeString("0001000c" + "0001fe04" + "12345678" + "00000000")

	openflow.SetStrictParsing(true)
	_, err := Decode(openflow.NewPacketReader(packet), openflow.OF13_VERSION)
	if !errors.Is(err, openflow.ErrUnknownType) {
		t.Fatalf("expected unknown type in strict mode, got %v", err)
	}

	openflow.SetStrictParsing(false)
	r := openflow.NewPacketReader(packet)
	m, err := Decode(r, openflow.OF13_VERSION)
	if err != nil {
		t.Fatalf("unexpected error in lenient mode: %v", err)
	}
	expected := []Field{&RawField{OXMClass: OFPXMC_NXM_1, OXMField: 0x7f, Masked: false, Payload: []byte{0x12, 0x34, 0x56, 0x78}}}
	if diff := cmp.Diff(expected, m.Fields()); diff != "" {
		t.Fatalf("unexpected fields: %v", spew.Sdump(m.Fields()))
	}
	if r.Remaining() != 0 {
		t.Fatalf("padding was not consumed")
	}
	// Raw fields are written back unchanged.
	if got := encode(t, m); hex.EncodeToString(got) != hex.EncodeToString(packet) {
		t.Fatalf("unexpected re-encoding: %x", got)
	}
}

func TestOXMOverstatedLength(t *testing.T) {
	packet, _ := hex.DecodeString("00010010" + "80000004" + "00000001")
	if _, err := Decode(openflow.NewPacketReader(packet), openflow.OF13_VERSION); !errors.Is(err, openflow.ErrOverrun) {
		t.Fatalf("expected overrun, got %v", err)
	}
}

type testField struct {
	value uint16
}

func (r *testField) Class() uint16 { return OFPXMC_EXPERIMENTER }
func (r *testField) Field() uint8  { return 1 }
func (r *testField) HasMask() bool { return false }

type testCodec struct{}

func (testCodec) SerializeField(f Field) ([]byte, error) {
	return []byte{byte(f.(*testField).value >> 8), byte(f.(*testField).value)}, nil
}

func (testCodec) DeserializeField(hasMask bool, payload []byte) (Field, error) {
	if len(payload) != 2 {
		return nil, openflow.ErrInvalidPacketLength
	}
	return &testField{value: uint16(payload[0])<<8 | uint16(payload[1])}, nil
}

func TestFieldRegistry(t *testing.T) {
	key := FieldKey{Version: openflow.OF13_VERSION, Class: OFPXMC_EXPERIMENTER, Field: 1}
	if _, err := NewOXM(openflow.OF13_VERSION, &testField{value: 7}); !errors.Is(err, openflow.ErrNoCodec) {
		t.Fatalf("expected missing codec error, got %v", err)
	}

	if err := RegisterFieldSerializer(key, testCodec{}); err != nil {
		t.Fatal(err)
	}
	defer UnregisterFieldSerializer(key)
	if err := RegisterFieldDeserializer(key, testCodec{}); err != nil {
		t.Fatal(err)
	}
	defer UnregisterFieldDeserializer(key)
	if err := RegisterFieldSerializer(key, testCodec{}); !errors.Is(err, openflow.ErrAlreadyRegistered) {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}

	m, err := NewOXM(openflow.OF13_VERSION, &testField{value: 0x0102})
	if err != nil {
		t.Fatal(err)
	}
	packet := encode(t, m)
	if got := hex.EncodeToString(packet); got != "0001000a"+"ffff0202"+"0102"+"000000000000" {
		t.Fatalf("unexpected packet: %v", got)
	}
	decoded, err := Decode(openflow.NewPacketReader(packet), openflow.OF13_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(m, decoded, append(matchOpts, cmp.AllowUnexported(testField{}))...); diff != "" {
		t.Fatalf("unexpected match: %v", diff)
	}
}
