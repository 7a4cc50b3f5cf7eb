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

package openflow

import (
	"encoding/hex"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestPacketReaderFields(t *testing.T) {
	data, err := hex.DecodeString("01" + "0203" + "04050607" + "08090a0b0c0d0e0f" + "6f7600000000")
	if err != nil {
		t.Fatal(err)
	}

	r := NewPacketReader(data)
	got := []interface{}{r.ReadU8(), r.ReadU16(), r.ReadU32(), r.ReadU64(), r.ReadString(6)}
	expected := []interface{}{uint8(0x01), uint16(0x0203), uint32(0x04050607), uint64(0x08090a0b0c0d0e0f), "ov"}
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("unexpected fields: %v", diff)
	}
	if r.Remaining() != 0 || r.Position() != len(data) {
		t.Fatalf("unexpected cursor: position=%v, remaining=%v", r.Position(), r.Remaining())
	}
}

func TestPacketReaderOverrun(t *testing.T) {
	r := NewPacketReader([]byte{0x00, 0x01, 0x02})
	if v := r.ReadU32(); v != 0 {
		t.Fatalf("expected zero value on overrun, got %v", v)
	}
	if !errors.Is(r.Err(), ErrOverrun) {
		t.Fatalf("expected overrun, got %v", r.Err())
	}
	// The error is sticky.
	if v := r.ReadU8(); v != 0 || !errors.Is(r.Err(), ErrOverrun) {
		t.Fatalf("expected sticky overrun, got %v (%v)", v, r.Err())
	}
}

func TestPacketReaderBounded(t *testing.T) {
	data := []byte{0x00, 0x02, 0xaa, 0xbb, 0xcc, 0xdd}
	r := NewPacketReader(data)
	r.Skip(2)

	child, err := r.Bounded(2)
	if err != nil {
		t.Fatal(err)
	}
	if child.Position() != 2 || child.TargetIndex() != 4 {
		t.Fatalf("unexpected child bounds: %v-%v", child.Position(), child.TargetIndex())
	}
	if r.Position() != 4 {
		t.Fatalf("parent did not advance: %v", r.Position())
	}
	if v := child.ReadU16(); v != 0xaabb {
		t.Fatalf("unexpected value: %x", v)
	}
	// The child never reads the parent's following bytes.
	child.ReadU8()
	if !errors.Is(child.Err(), ErrOverrun) {
		t.Fatalf("expected overrun, got %v", child.Err())
	}
	if r.Err() != nil {
		t.Fatalf("child overrun leaked into parent: %v", r.Err())
	}

	if _, err := r.Bounded(3); !errors.Is(err, ErrOverrun) {
		t.Fatalf("expected overrun for overstated length, got %v", err)
	}
	if r.Position() != 4 {
		t.Fatalf("failed bound moved the cursor: %v", r.Position())
	}
}

func TestPacketWriter(t *testing.T) {
	w := NewPacketWriter()
	w.WriteU8(0x01)
	w.WriteU16(0)
	w.WriteU32(0x04050607)
	w.WriteU64(0x08090a0b0c0d0e0f)
	w.WriteZeros(1)
	if err := w.WriteString("ovs", 4); err != nil {
		t.Fatal(err)
	}
	w.PutU16At(1, 0x0203)

	expected := "01" + "0203" + "04050607" + "08090a0b0c0d0e0f" + "00" + "6f767300"
	if got := hex.EncodeToString(w.Bytes()); got != expected {
		t.Fatalf("unexpected bytes: expected=%v, got=%v", expected, got)
	}

	if err := w.WriteString("ovsx", 4); !errors.Is(err, ErrIllegalArgument) {
		t.Fatalf("expected illegal argument, got %v", spew.Sdump(err))
	}
	if w.Position() != len(expected)/2 {
		t.Fatalf("rejected string changed the buffer: %v", w.Position())
	}
}

func TestPad8(t *testing.T) {
	for n, expected := range map[int]int{0: 0, 1: 7, 4: 4, 8: 0, 12: 4, 15: 1} {
		if got := Pad8(n); got != expected {
			t.Errorf("Pad8(%v): expected=%v, got=%v", n, expected, got)
		}
	}
}
