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
	"encoding/hex"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/match"
)

func TestCodec(t *testing.T) {
	samples := []struct {
		Version  openflow.Version
		Packet   string
		Expected []Action
	}{
		{
			Version: openflow.OF10_VERSION,
			Packet:  "00000008fffd0080" + "000b0010000200000000000000000007" + "0003000800000000",
			Expected: []Action{
				&Output{Port: openflow.OFPP_CONTROLLER, MaxLen: 128},
				&Enqueue{Port: 2, QueueID: 7},
				&Raw{Code: OF10_OFPAT_STRIP_VLAN, Payload: []byte{0, 0, 0, 0}},
			},
		},
		{
			Version: openflow.OF13_VERSION,
			Packet:  "0000001000000005ffff000000000000" + "0016000800000003" + "0015000800000009" + "0019001080000a020800000000000000",
			Expected: []Action{
				&Output{Port: 5, MaxLen: 0xffff},
				&Group{GroupID: 3},
				&SetQueue{QueueID: 9},
				&SetField{Field: match.EthType(layers.EthernetTypeIPv4)},
			},
		},
	}

	for _, v := range samples {
		packet, err := hex.DecodeString(v.Packet)
		if err != nil {
			t.Fatal(err)
		}

		actions, err := DecodeList(openflow.NewPacketReader(packet), v.Version)
		if err != nil {
			t.Fatalf("%v: failed to decode: %v", v.Version, err)
		}
		if diff := cmp.Diff(v.Expected, actions, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("%v: unexpected actions: %v\n%v", v.Version, diff, spew.Sdump(actions))
		}

		w := openflow.NewPacketWriter()
		if err := EncodeList(w, v.Version, v.Expected); err != nil {
			t.Fatalf("%v: failed to encode: %v", v.Version, err)
		}
		if got := hex.EncodeToString(w.Bytes()); got != v.Packet {
			t.Fatalf("%v: unexpected packet:\nexpected=%v\ngot=     %v", v.Version, v.Packet, got)
		}
		length, err := ListLength(v.Version, v.Expected)
		if err != nil || length != len(packet) {
			t.Fatalf("%v: unexpected list length %v (%v)", v.Version, length, err)
		}
	}
}

func TestVersionMismatch(t *testing.T) {
	w := openflow.NewPacketWriter()
	if err := Encode(w, openflow.OF10_VERSION, &Group{GroupID: 1}); !errors.Is(err, openflow.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	if err := Encode(w, openflow.OF13_VERSION, &Enqueue{Port: 1}); !errors.Is(err, openflow.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	if err := Encode(w, openflow.OF10_VERSION, &Output{Port: 0xff01}); !errors.Is(err, openflow.ErrOutOfRange) {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestInvalidLength(t *testing.T) {
	samples := []string{
		// Shorter than a header.
		"00000004",
		// Not a multiple of 8.
		"0000000c000000050000ffff",
		// Longer than the list.
		"0000001000000005",
	}
	for _, v := range samples {
		packet, _ := hex.DecodeString(v)
		if _, err := DecodeList(openflow.NewPacketReader(packet), openflow.OF13_VERSION); err == nil {
			t.Fatalf("expected an error for %v", v)
		}
	}
}

type testAction struct {
	Value uint32
}

func (r *testAction) Type(openflow.Version) (uint16, error) { return OFPAT_EXPERIMENTER, nil }
func (r *testAction) Experimenter() uint32                  { return 0x00abcdef }
func (r *testAction) Subtype() uint16                       { return 42 }

type testCodec struct{}

func (testCodec) SerializeAction(a ExperimenterAction) ([]byte, error) {
	v := a.(*testAction).Value
	return []byte{0, 0, byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}, nil
}

func (testCodec) DeserializeAction(body []byte) (ExperimenterAction, error) {
	if len(body) != 6 {
		return nil, openflow.ErrInvalidPacketLength
	}
	return &testAction{Value: uint32(body[2])<<24 | uint32(body[3])<<16 | uint32(body[4])<<8 | uint32(body[5])}, nil
}

func TestExperimenterRegistry(t *testing.T) {
	defer openflow.SetStrictParsing(false)

	key := ActionKey{Version: openflow.OF13_VERSION, Experimenter: 0x00abcdef, Subtype: 42}
	packet := "ffff001000abcdef002a000001020304"
	raw, _ := hex.DecodeString(packet)

	w := openflow.NewPacketWriter()
	if err := Encode(w, openflow.OF13_VERSION, &testAction{Value: 0x01020304}); !errors.Is(err, openflow.ErrNoCodec) {
		t.Fatalf("expected missing codec error, got %v", err)
	}

	// Unregistered vendor actions are kept as raw data unless parsing is strict.
	openflow.SetStrictParsing(true)
	if _, err := DecodeList(openflow.NewPacketReader(raw), openflow.OF13_VERSION); !errors.Is(err, openflow.ErrUnknownType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
	openflow.SetStrictParsing(false)
	actions, err := DecodeList(openflow.NewPacketReader(raw), openflow.OF13_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	expected := []Action{&Experimenter{Experimenter: 0x00abcdef, Data: []byte{0x00, 0x2a, 0, 0, 1, 2, 3, 4}}}
	if diff := cmp.Diff(expected, actions); diff != "" {
		t.Fatalf("unexpected actions: %v", diff)
	}

	if err := RegisterActionSerializer(key, testCodec{}); err != nil {
		t.Fatal(err)
	}
	defer UnregisterActionSerializer(key)
	if err := RegisterActionDeserializer(key, testCodec{}); err != nil {
		t.Fatal(err)
	}
	defer UnregisterActionDeserializer(key)

	w = openflow.NewPacketWriter()
	if err := Encode(w, openflow.OF13_VERSION, &testAction{Value: 0x01020304}); err != nil {
		t.Fatal(err)
	}
	if got := hex.EncodeToString(w.Bytes()); got != packet {
		t.Fatalf("unexpected packet: %v", got)
	}
	actions, err = DecodeList(openflow.NewPacketReader(raw), openflow.OF13_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Action{&testAction{Value: 0x01020304}}, actions); diff != "" {
		t.Fatalf("unexpected actions: %v", diff)
	}

	// A version without a registration still falls back to raw data.
	actions, err = DecodeList(openflow.NewPacketReader(raw), openflow.OF12_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := actions[0].(*Experimenter); !ok {
		t.Fatalf("expected a raw experimenter action, got %T", actions[0])
	}
}
