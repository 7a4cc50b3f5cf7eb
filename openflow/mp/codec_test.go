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

package mp

import (
	"encoding/hex"
	"fmt"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
)

func mustEncodeReply(t *testing.T, b Body) []byte {
	t.Helper()
	w := openflow.NewPacketWriter()
	if err := EncodeReplyBody(b, w); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if w.Position() != b.TotalLength() {
		t.Fatalf("encoded %v bytes, TotalLength() is %v", w.Position(), b.TotalLength())
	}

	return w.Bytes()
}

func TestReplyRoundTrip(t *testing.T) {
	for _, pv := range openflow.Versions {
		for _, typ := range Types() {
			if typ.ValidSince() > pv {
				continue
			}
			t.Run(fmt.Sprintf("%v/%v", pv, typ), func(t *testing.T) {
				body := replyBody(t, pv, typ)
				packet := mustEncodeReply(t, body)

				r := openflow.NewPacketReader(packet)
				decoded, err := ParseReplyBody(typ, r, pv)
				if err != nil {
					t.Fatalf("failed to parse %x: %v", packet, err)
				}
				if r.Remaining() != 0 {
					t.Fatalf("%v bytes left unread", r.Remaining())
				}
				if decoded.TotalLength() != len(packet) {
					t.Fatalf("decoded TotalLength() is %v, packet is %v bytes", decoded.TotalLength(), len(packet))
				}
				if diff := cmp.Diff(body, freeze(t, decoded), bodyOpts...); diff != "" {
					t.Fatalf("unexpected body: %v\n%v", diff, spew.Sdump(body))
				}
			})
		}
	}
}

func TestRequestRoundTrip(t *testing.T) {
	for _, pv := range openflow.Versions {
		for _, typ := range Types() {
			if typ.ValidSince() > pv {
				continue
			}
			t.Run(fmt.Sprintf("%v/%v", pv, typ), func(t *testing.T) {
				body, ok := requestBody(t, pv, typ)
				if !ok {
					if _, err := ParseRequestBody(typ, openflow.NewPacketReader(nil), pv); !errors.Is(err, openflow.ErrIllegalArgument) {
						t.Fatalf("expected illegal argument, got %v", err)
					}
					return
				}

				w := openflow.NewPacketWriter()
				if err := EncodeRequestBody(body, w); err != nil {
					t.Fatal(err)
				}
				if w.Position() != body.TotalLength() {
					t.Fatalf("encoded %v bytes, TotalLength() is %v", w.Position(), body.TotalLength())
				}
				decoded, err := ParseRequestBody(typ, openflow.NewPacketReader(w.Bytes()), pv)
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(body, freeze(t, decoded), bodyOpts...); diff != "" {
					t.Fatalf("unexpected body: %v", diff)
				}
			})
		}
	}
}

func TestEmptyTableFeaturesRequest(t *testing.T) {
	body := freeze(t, NewMutableArray[*TableFeatures](openflow.OF13_VERSION))
	w := openflow.NewPacketWriter()
	if err := EncodeRequestBody(body, w); err != nil {
		t.Fatal(err)
	}
	if w.Position() != 0 {
		t.Fatalf("expected an empty body, got %x", w.Bytes())
	}

	decoded, err := ParseRequestBody(OFPMP_TABLE_FEATURES, openflow.NewPacketReader(nil), openflow.OF13_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	if n := decoded.(*MutableArray[*TableFeatures]).Len(); n != 0 {
		t.Fatalf("expected no entries, got %v", n)
	}
}

func TestPortStatsOF13(t *testing.T) {
	pv := openflow.OF13_VERSION
	body := array(t, pv, newPortStats(t, pv, 1, 100, 50), newPortStats(t, pv, 2, 0, 0))
	if body.TotalLength() != 224 {
		t.Fatalf("expected 224 bytes, got %v", body.TotalLength())
	}

	packet := mustEncodeReply(t, body)
	first := "00000001" + "00000000" +
		"0000000000000064" + "0000000000000032" + "0000000000001900" + "0000000000000c80" +
		"0000000000000000" + "0000000000000000" + "0000000000000000" + "0000000000000000" +
		"0000000000000000" + "0000000000000000" + "0000000000000000" + "0000000000000001" +
		"0000000a" + "00000063"
	if got := hex.EncodeToString(packet[:112]); got != first {
		t.Fatalf("unexpected first entry:\nexpected=%v\ngot=     %v", first, got)
	}

	decoded, err := ParseReplyBody(OFPMP_PORT_STATS, openflow.NewPacketReader(packet), pv)
	if err != nil {
		t.Fatal(err)
	}
	v := freeze(t, decoded).(*Array[*PortStats])
	if v.Len() != 2 || v.Incomplete() {
		t.Fatalf("unexpected array: %v", spew.Sdump(v))
	}
	e := v.Elements()
	if e[0].Port() != 1 || e[0].Counters().RxPackets != 100 || e[0].Counters().TxPackets != 50 {
		t.Fatalf("unexpected first entry: %v", spew.Sdump(e[0]))
	}
	if e[0].DurationSec() != 10 || e[0].DurationNsec() != 99 {
		t.Fatalf("unexpected duration: %v.%v", e[0].DurationSec(), e[0].DurationNsec())
	}
	if e[1].Port() != 2 || e[1].Counters().RxPackets != 0 || e[1].Counters().TxPackets != 0 || e[1].DurationSec() != 20 {
		t.Fatalf("unexpected second entry: %v", spew.Sdump(e[1]))
	}
	if v.TotalLength() != 224 {
		t.Fatalf("expected 224 bytes, got %v", v.TotalLength())
	}
}

func TestPortStatsOF10Layout(t *testing.T) {
	pv := openflow.OF10_VERSION
	packet := mustEncodeReply(t, array(t, pv, newPortStats(t, pv, openflow.OFPP_LOCAL, 1, 1)))
	if len(packet) != 104 {
		t.Fatalf("expected 104 bytes, got %v", len(packet))
	}
	if got := hex.EncodeToString(packet[:8]); got != "fffe000000000000" {
		t.Fatalf("unexpected port field: %v", got)
	}
}

func TestTargetIndexUnderstated(t *testing.T) {
	pv := openflow.OF13_VERSION
	packet := mustEncodeReply(t, array(t, pv, newPortStats(t, pv, 1, 1, 1), newPortStats(t, pv, 2, 2, 2)))

	// The caller bounds the body to its first entry.
	parent := openflow.NewPacketReader(packet)
	body, err := parent.Bounded(of13PortStatsLength)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := ParseReplyBody(OFPMP_PORT_STATS, body, pv)
	if err != nil {
		t.Fatal(err)
	}
	if n := decoded.(*MutableArray[*PortStats]).Len(); n != 1 {
		t.Fatalf("expected 1 entry, got %v", n)
	}
	if body.Position() != of13PortStatsLength || parent.Position() != of13PortStatsLength {
		t.Fatalf("read past the target index: body=%v parent=%v", body.Position(), parent.Position())
	}

	// A group stats entry whose length hides its bucket counter leaves the
	// counter bytes to be read as a malformed next entry.
	packet = mustEncodeReply(t, array(t, openflow.OF11_VERSION, newGroupStats(t, openflow.OF11_VERSION, 1)))
	packet[1] = groupStatsFixedLen
	decoded, err = ParseReplyBody(OFPMP_GROUP, openflow.NewPacketReader(packet), openflow.OF11_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	groups := decoded.(*MutableArray[*GroupStats])
	if groups.Len() != 1 || !groups.Incomplete() {
		t.Fatalf("expected one entry and an incomplete array: %v", spew.Sdump(groups.Array))
	}
	if n := len(groups.Elements()[0].BucketCounters()); n != 0 {
		t.Fatalf("expected no bucket counters, got %v", n)
	}
}

func TestTargetIndexOverstated(t *testing.T) {
	defer openflow.SetStrictParsing(false)
	openflow.SetStrictParsing(true)

	pv := openflow.OF13_VERSION
	packet := mustEncodeReply(t, array(t, pv, newGroupStats(t, pv, 1)))
	// Claims one more bucket counter than the body holds.
	packet[1] += bucketCounterLength
	_, err := ParseReplyBody(OFPMP_GROUP, openflow.NewPacketReader(packet), pv)
	if !errors.Is(err, openflow.ErrMessageParse) || !errors.Is(err, openflow.ErrOverrun) {
		t.Fatalf("expected a parse error caused by an overrun, got %v", err)
	}

	// A truncated fixed-size entry.
	packet = mustEncodeReply(t, array(t, pv, newPortStats(t, pv, 1, 1, 1)))
	_, err = ParseReplyBody(OFPMP_PORT_STATS, openflow.NewPacketReader(packet[:100]), pv)
	if !errors.Is(err, openflow.ErrMessageParse) {
		t.Fatalf("expected a parse error, got %v", err)
	}

	// A singleton shorter than its layout.
	_, err = ParseReplyBody(OFPMP_AGGREGATE, openflow.NewPacketReader(make([]byte, 20)), pv)
	if !errors.Is(err, openflow.ErrMessageParse) {
		t.Fatalf("expected a parse error, got %v", err)
	}
}

func corruptGroupStats(t *testing.T) []byte {
	t.Helper()
	pv := openflow.OF13_VERSION
	packet := mustEncodeReply(t, array(t, pv, newGroupStats(t, pv, 1), newGroupStats(t, pv, 2), newGroupStats(t, pv, 3)))
	// The second entry declares a length below the fixed part.
	size := of13GroupStatsFixedLen + bucketCounterLength
	packet[size] = 0
	packet[size+1] = 7

	return packet
}

func TestLenientArray(t *testing.T) {
	packet := corruptGroupStats(t)
	r := openflow.NewPacketReader(packet)
	decoded, err := ParseReplyBody(OFPMP_GROUP, r, openflow.OF13_VERSION)
	if err != nil {
		t.Fatal(err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("%v bytes left unread", r.Remaining())
	}

	v := freeze(t, decoded).(*Array[*GroupStats])
	if !v.Incomplete() || v.Len() != 1 {
		t.Fatalf("unexpected array: %v", spew.Sdump(v))
	}
	if v.Elements()[0].GroupID() != 1 {
		t.Fatalf("unexpected first entry: %v", spew.Sdump(v.Elements()[0]))
	}

	var perr *openflow.MessageParseError
	if !errors.As(v.ParseError(), &perr) {
		t.Fatalf("unexpected cause: %v", v.ParseError())
	}
	if perr.Offset != of13GroupStatsFixedLen+bucketCounterLength {
		t.Fatalf("unexpected offset: %v", perr.Offset)
	}
	if !errors.Is(perr, openflow.ErrInvalidPacketLength) {
		t.Fatalf("unexpected cause: %v", perr)
	}
}

func TestStrictArray(t *testing.T) {
	defer openflow.SetStrictParsing(false)
	openflow.SetStrictParsing(true)

	decoded, err := ParseReplyBody(OFPMP_GROUP, openflow.NewPacketReader(corruptGroupStats(t)), openflow.OF13_VERSION)
	if !errors.Is(err, openflow.ErrMessageParse) {
		t.Fatalf("expected a parse error, got %v", err)
	}
	if decoded != nil {
		t.Fatalf("expected no body, got %v", spew.Sdump(decoded))
	}
}

func TestSingletonTrailingBytes(t *testing.T) {
	pv := openflow.OF13_VERSION
	packet := append(mustEncodeReply(t, replyBody(t, pv, OFPMP_METER_FEATURES)), 0xde, 0xad, 0xbe, 0xef)
	r := openflow.NewPacketReader(packet)
	decoded, err := ParseReplyBody(OFPMP_METER_FEATURES, r, pv)
	if err != nil {
		t.Fatal(err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("%v bytes left unread", r.Remaining())
	}
	if decoded.TotalLength() != meterFeaturesLength {
		t.Fatalf("unexpected length: %v", decoded.TotalLength())
	}
}

func TestParseUnsupportedType(t *testing.T) {
	_, err := ParseReplyBody(OFPMP_METER, openflow.NewPacketReader(nil), openflow.OF12_VERSION)
	if !errors.Is(err, openflow.ErrMessageParse) || !errors.Is(err, openflow.ErrVersionNotSupported) {
		t.Fatalf("expected a parse error for an unsupported type, got %v", err)
	}
	_, err = ParseReplyBody(MultipartType(14), openflow.NewPacketReader(nil), openflow.OF13_VERSION)
	if !errors.Is(err, openflow.ErrUnknownType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
}

func TestEncodeIncomplete(t *testing.T) {
	w := openflow.NewPacketWriter()
	err := EncodeRequestBody(freeze(t, NewMutableFlowStatsRequest(openflow.OF13_VERSION)), w)
	if !errors.Is(err, openflow.ErrIncompleteStructure) {
		t.Fatalf("expected incomplete structure, got %v", err)
	}
	if w.Position() != 0 {
		t.Fatalf("expected nothing written, got %x", w.Bytes())
	}

	err = EncodeReplyBody(freeze(t, NewMutablePortDesc(openflow.OF13_VERSION)), w)
	if !errors.Is(err, openflow.ErrIncompleteStructure) {
		t.Fatalf("expected incomplete structure, got %v", err)
	}
}

func TestEncodeWrongDirection(t *testing.T) {
	pv := openflow.OF13_VERSION
	w := openflow.NewPacketWriter()
	if err := EncodeRequestBody(replyBody(t, pv, OFPMP_DESC), w); !errors.Is(err, openflow.ErrIllegalArgument) {
		t.Fatalf("expected illegal argument, got %v", err)
	}
	if err := EncodeRequestBody(replyBody(t, pv, OFPMP_PORT_STATS), w); !errors.Is(err, openflow.ErrIllegalArgument) {
		t.Fatalf("expected illegal argument, got %v", err)
	}
	if err := EncodeReplyBody(nil, w); !errors.Is(err, openflow.ErrNullArgument) {
		t.Fatalf("expected null argument, got %v", err)
	}
	if w.Position() != 0 {
		t.Fatalf("expected nothing written, got %x", w.Bytes())
	}
}

func TestUnsignedBounds(t *testing.T) {
	v := NewMutablePortStats(openflow.OF10_VERSION)
	if err := v.SetPort(0xff01); !errors.Is(err, openflow.ErrOutOfRange) {
		t.Fatalf("expected range error, got %v", err)
	}
	check(t, v.SetPort(0xff00), v.SetCounters(PortCounters{RxPackets: math.MaxUint64, Collisions: math.MaxUint64}))
	e, err := v.ToImmutable()
	check(t, err)

	packet := mustEncodeReply(t, array(t, openflow.OF10_VERSION, e))
	decoded, err := ParseReplyBody(OFPMP_PORT_STATS, openflow.NewPacketReader(packet), openflow.OF10_VERSION)
	check(t, err)
	got := decoded.(*MutableArray[*PortStats]).Elements()[0]
	if got.Port() != 0xff00 || got.Counters().RxPackets != math.MaxUint64 {
		t.Fatalf("unexpected entry: %v", spew.Sdump(got))
	}

	table := NewMutableTableStats(openflow.OF11_VERSION)
	if err := table.SetWildcards(math.MaxUint32 + 1); !errors.Is(err, openflow.ErrOutOfRange) {
		t.Fatalf("expected range error, got %v", err)
	}
	check(t, table.SetWildcards(math.MaxUint32))
	check(t, NewMutableTableStats(openflow.OF12_VERSION).SetWildcards(math.MaxUint64))

	desc := NewMutableDesc(openflow.OF13_VERSION)
	if err := desc.SetSerialNumber(string(make([]byte, serialNumLen))); !errors.Is(err, openflow.ErrIllegalArgument) {
		t.Fatalf("expected illegal argument, got %v", err)
	}
	check(t, desc.SetSerialNumber(string(make([]byte, serialNumLen-1))))
}

func TestOF10PortMaxRoundTrip(t *testing.T) {
	pv := openflow.OF10_VERSION
	v := NewMutablePortStatsRequest(pv)
	if err := v.SetPort(openflow.OFPP_MAX); !errors.Is(err, openflow.ErrOutOfRange) {
		t.Fatalf("expected range error, got %v", err)
	}

	check(t, v.SetPort(0xff00))
	body := freeze(t, v)
	w := openflow.NewPacketWriter()
	check(t, EncodeRequestBody(body, w))
	if got := hex.EncodeToString(w.Bytes()); got != "ff00000000000000" {
		t.Fatalf("unexpected encoding: %v", got)
	}
	decoded, err := ParseRequestBody(OFPMP_PORT_STATS, openflow.NewPacketReader(w.Bytes()), pv)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(body, freeze(t, decoded), bodyOpts...); diff != "" {
		t.Fatalf("unexpected body: %v", diff)
	}
}

func TestVersionGating(t *testing.T) {
	group := NewMutableGroupStats(openflow.OF11_VERSION)
	if err := group.SetDuration(1, 1); !errors.Is(err, openflow.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	table := NewMutableTableStats(openflow.OF13_VERSION)
	if err := table.SetName("t"); !errors.Is(err, openflow.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	flow := NewMutableFlowStats(openflow.OF12_VERSION)
	if err := flow.SetFlags(OFPFF_SEND_FLOW_REM); !errors.Is(err, openflow.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	request := NewMutableFlowStatsRequest(openflow.OF10_VERSION)
	if err := request.SetCookie(1); !errors.Is(err, openflow.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	experimenter := NewMutableExperimenter(openflow.OF10_VERSION)
	if err := experimenter.SetExpType(1); !errors.Is(err, openflow.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}

	// Absent fields read as zero values.
	pv := openflow.OF13_VERSION
	packet := mustEncodeReply(t, replyBody(t, pv, OFPMP_TABLE))
	decoded, err := ParseReplyBody(OFPMP_TABLE, openflow.NewPacketReader(packet), pv)
	check(t, err)
	e := decoded.(*MutableArray[*TableStats]).Elements()[0]
	if e.Name() != "" || e.MaxEntries() != 0 || e.Wildcards() != 0 {
		t.Fatalf("unexpected OF1.3 table stats: %v", spew.Sdump(e))
	}
	if d := freeze(t, group).(*GroupStats); d.DurationSec() != 0 || d.DurationNsec() != 0 {
		t.Fatalf("unexpected duration: %v", spew.Sdump(d))
	}
}
