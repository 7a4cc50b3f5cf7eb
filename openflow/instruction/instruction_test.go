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

package instruction

import (
	"encoding/hex"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/action"
)

func TestCodec(t *testing.T) {
	expected := []Instruction{
		&GotoTable{TableID: 2},
		&WriteMetadata{Metadata: 0x10, Mask: 0xff},
		&ApplyActions{Actions: []action.Action{&action.Output{Port: openflow.OFPP_CONTROLLER, MaxLen: 0xffff}}},
		&ClearActions{},
		&Meter{MeterID: 5},
	}
	packet := "0001000802000000" +
		"00020018000000000000000000000010" + "00000000000000ff" +
		"0004001800000000" + "00000010fffffffdffff000000000000" +
		"0005000800000000" +
		"0006000800000005"

	w := openflow.NewPacketWriter()
	if err := EncodeList(w, openflow.OF13_VERSION, expected); err != nil {
		t.Fatal(err)
	}
	if got := hex.EncodeToString(w.Bytes()); got != packet {
		t.Fatalf("unexpected packet:\nexpected=%v\ngot=     %v", packet, got)
	}

	list, err := DecodeList(openflow.NewPacketReader(w.Bytes()), openflow.OF13_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(expected, list, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("unexpected instructions: %v", diff)
	}
}

func TestMeterVersion(t *testing.T) {
	w := openflow.NewPacketWriter()
	if err := Encode(w, openflow.OF12_VERSION, &Meter{MeterID: 1}); !errors.Is(err, openflow.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	if err := Encode(w, openflow.OF10_VERSION, &GotoTable{}); !errors.Is(err, openflow.ErrVersionNotSupported) {
		t.Fatalf("expected unsupported version, got %v", err)
	}
}

func TestNestedOverrun(t *testing.T) {
	// The apply-actions instruction claims 16 bytes but its action claims 16.
	packet, _ := hex.DecodeString("0004001000000000" + "0000001000000001" + "ffff000000000000")
	if _, err := DecodeList(openflow.NewPacketReader(packet), openflow.OF13_VERSION); !errors.Is(err, openflow.ErrOverrun) {
		t.Fatalf("expected overrun, got %v", err)
	}
}
