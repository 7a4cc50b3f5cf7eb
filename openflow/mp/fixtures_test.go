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
	"net"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/gopacket/layers"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/action"
	"github.com/superkkt/ofmp/openflow/instruction"
	"github.com/superkkt/ofmp/openflow/match"
)

var bodyOpts = []cmp.Option{
	cmp.Exporter(func(reflect.Type) bool { return true }),
	cmpopts.EquateEmpty(),
}

func check(t *testing.T, errs ...error) {
	t.Helper()
	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
}

func freeze(t *testing.T, b MutableBody) Body {
	t.Helper()
	v, err := b.Freeze()
	if err != nil {
		t.Fatalf("failed to freeze %T: %v", b, err)
	}

	return v
}

func array[E Element](t *testing.T, pv openflow.Version, elements ...E) Body {
	t.Helper()
	v := NewMutableArray[E](pv)
	for _, e := range elements {
		check(t, v.Add(e))
	}

	return freeze(t, v)
}

func testMatch(t *testing.T, pv openflow.Version) *match.Match {
	t.Helper()

	var m *match.Match
	var err error
	switch pv {
	case openflow.OF10_VERSION:
		m, err = match.NewLegacy(match.Legacy{
			Wildcards: match.OFPFW_ALL &^ (match.OFPFW_IN_PORT | match.OFPFW_DL_TYPE),
			InPort:    3,
			SrcMAC:    net.HardwareAddr{0x00, 0x0b, 0x82, 0x01, 0xfc, 0x42},
			DstMAC:    net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
			EtherType: layers.EthernetTypeIPv4,
			Protocol:  layers.IPProtocolTCP,
			SrcIP:     net.IPv4(10, 0, 0, 1).To4(),
			DstIP:     net.IPv4(10, 0, 0, 2).To4(),
		})
	case openflow.OF11_VERSION:
		m, err = match.Any(pv)
	default:
		m, err = match.NewOXM(pv, match.InPort(1), match.EthType(layers.EthernetTypeIPv4))
	}
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func newFlowStats(t *testing.T, pv openflow.Version, priority uint16) *FlowStats {
	t.Helper()
	output := &action.Output{Port: 2, MaxLen: 0xffff}
	v := NewMutableFlowStats(pv)
	check(t,
		v.SetTableID(1),
		v.SetDuration(30, 500),
		v.SetPriority(priority),
		v.SetIdleTimeout(10),
		v.SetHardTimeout(60),
		v.SetCookie(0xdeadbeef),
		v.SetPacketCount(1000),
		v.SetByteCount(64000),
		v.SetMatch(testMatch(t, pv)),
	)
	if pv == openflow.OF10_VERSION {
		check(t, v.SetActions([]action.Action{output}))
	} else {
		check(t, v.SetInstructions([]instruction.Instruction{
			&instruction.GotoTable{TableID: 2},
			&instruction.ApplyActions{Actions: []action.Action{output}},
		}))
	}
	if pv == openflow.OF13_VERSION {
		check(t, v.SetFlags(OFPFF_SEND_FLOW_REM))
	}
	e, err := v.ToImmutable()
	check(t, err)

	return e
}

func newTableStats(t *testing.T, pv openflow.Version, id uint8) *TableStats {
	t.Helper()
	v := NewMutableTableStats(pv)
	check(t, v.SetTableID(id), v.SetActiveCount(5), v.SetLookupCount(100), v.SetMatchedCount(90))
	if pv <= openflow.OF12_VERSION {
		check(t, v.SetName("classifier"), v.SetWildcards(0x3fffff), v.SetMaxEntries(1024))
	}
	if pv == openflow.OF11_VERSION || pv == openflow.OF12_VERSION {
		check(t,
			v.SetMatch(0x3ff),
			v.SetInstructions(0x3e),
			v.SetWriteActions(0x01),
			v.SetApplyActions(0x01),
			v.SetConfig(3),
		)
	}
	if pv == openflow.OF12_VERSION {
		check(t,
			v.SetWriteSetfields(0xff),
			v.SetApplySetfields(0xfe),
			v.SetMetadataMatch(0xffffffffffffffff),
			v.SetMetadataWrite(0xffff),
		)
	}
	e, err := v.ToImmutable()
	check(t, err)

	return e
}

func newPortStats(t *testing.T, pv openflow.Version, port openflow.PortNumber, rx, tx uint64) *PortStats {
	t.Helper()
	v := NewMutablePortStats(pv)
	check(t, v.SetPort(port), v.SetCounters(PortCounters{RxPackets: rx, TxPackets: tx, RxBytes: rx * 64, TxBytes: tx * 64, Collisions: 1}))
	if pv == openflow.OF13_VERSION {
		check(t, v.SetDuration(uint32(port)*10, 99))
	}
	e, err := v.ToImmutable()
	check(t, err)

	return e
}

func newQueueStats(t *testing.T, pv openflow.Version, queue uint32) *QueueStats {
	t.Helper()
	v := NewMutableQueueStats(pv)
	check(t, v.SetPort(1), v.SetQueueID(queue), v.SetTxBytes(1500), v.SetTxPackets(1), v.SetTxErrors(0))
	if pv == openflow.OF13_VERSION {
		check(t, v.SetDuration(7, 8))
	}
	e, err := v.ToImmutable()
	check(t, err)

	return e
}

func newGroupStats(t *testing.T, pv openflow.Version, group uint32) *GroupStats {
	t.Helper()
	v := NewMutableGroupStats(pv)
	check(t,
		v.SetGroupID(group),
		v.SetRefCount(2),
		v.SetPacketCount(10),
		v.SetByteCount(640),
		v.SetBucketCounters([]BucketCounter{{PacketCount: 4, ByteCount: 256}}),
	)
	if pv == openflow.OF13_VERSION {
		check(t, v.SetDuration(1, 2))
	}
	e, err := v.ToImmutable()
	check(t, err)

	return e
}

func newGroupDesc(t *testing.T, pv openflow.Version, group uint32) *GroupDesc {
	t.Helper()
	v := NewMutableGroupDesc(pv)
	check(t,
		v.SetGroupType(OFPGT_SELECT),
		v.SetGroupID(group),
		v.SetBuckets([]Bucket{
			{Weight: 1, WatchPort: openflow.OFPP_ANY, WatchGroup: OFPG_ANY, Actions: []action.Action{&action.Output{Port: 1}}},
			{Weight: 2, WatchPort: openflow.OFPP_ANY, WatchGroup: OFPG_ANY, Actions: []action.Action{&action.Output{Port: 2}}},
		}),
	)
	e, err := v.ToImmutable()
	check(t, err)

	return e
}

func newMeterStats(t *testing.T, pv openflow.Version, meter uint32) *MeterStats {
	t.Helper()
	v := NewMutableMeterStats(pv)
	check(t,
		v.SetMeterID(meter),
		v.SetFlowCount(3),
		v.SetPacketInCount(100),
		v.SetByteInCount(6400),
		v.SetDuration(5, 6),
		v.SetBandStats([]MeterBandStats{{PacketBandCount: 1, ByteBandCount: 64}, {PacketBandCount: 2, ByteBandCount: 128}}),
	)
	e, err := v.ToImmutable()
	check(t, err)

	return e
}

func newMeterConfig(t *testing.T, pv openflow.Version, meter uint32) *MeterConfig {
	t.Helper()
	v := NewMutableMeterConfig(pv)
	check(t,
		v.SetFlags(OFPMF_KBPS|OFPMF_STATS),
		v.SetMeterID(meter),
		v.SetBands([]MeterBand{
			{Type: OFPMBT_DROP, Rate: 1000, BurstSize: 100},
			{Type: OFPMBT_DSCP_REMARK, Rate: 500, BurstSize: 50, PrecLevel: 1},
			{Type: OFPMBT_EXPERIMENTER, Rate: 10, BurstSize: 1, Experimenter: 0x00abcdef, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		}),
	)
	e, err := v.ToImmutable()
	check(t, err)

	return e
}

func newTableFeatures(t *testing.T, pv openflow.Version, id uint8) *TableFeatures {
	t.Helper()
	v := NewMutableTableFeatures(pv)
	check(t,
		v.SetTableID(id),
		v.SetName("acl"),
		v.SetMetadataMatch(0xffffffffffffffff),
		v.SetMetadataWrite(0xffffffffffffffff),
		v.SetConfig(0),
		v.SetMaxEntries(4096),
		v.SetProperties([]TableFeatureProp{
			NewHeaderIDsProp(OFPTFPT_INSTRUCTIONS, []uint16{instruction.OFPIT_GOTO_TABLE, instruction.OFPIT_APPLY_ACTIONS}),
			NewTableIDsProp(OFPTFPT_NEXT_TABLES, []uint8{1, 2, 3}),
			NewOXMIDsProp(OFPTFPT_MATCH, []uint32{0x80000004, 0x80000a02}),
		}),
	)
	e, err := v.ToImmutable()
	check(t, err)

	return e
}

func newPortDesc(t *testing.T, pv openflow.Version, port openflow.PortNumber) *PortDesc {
	t.Helper()
	v := NewMutablePortDesc(pv)
	check(t,
		v.SetPort(port),
		v.SetHWAddr(net.HardwareAddr{0x00, 0x0b, 0x82, 0x01, 0xfc, byte(port)}),
		v.SetName("eth1"),
		v.SetConfig(0),
		v.SetState(openflow.OFPPS_LIVE),
		v.SetFeatures(openflow.PortFeatures{Current: 0x20, Advertised: 0x20, Supported: 0x7f, CurrentSpeed: 1000000, MaxSpeed: 10000000}),
	)
	e, err := v.ToImmutable()
	check(t, err)

	return e
}

// replyBody returns a populated reply body for every type defined at pv.
func replyBody(t *testing.T, pv openflow.Version, typ MultipartType) Body {
	t.Helper()

	switch typ {
	case OFPMP_DESC:
		v := NewMutableDesc(pv)
		check(t,
			v.SetManufacturer("Samjung Data Service"),
			v.SetHardware("OpenFlow switch"),
			v.SetSoftware("1.0.0"),
			v.SetSerialNumber("SN-0001"),
			v.SetDatapath("rack 3"),
		)
		return freeze(t, v)
	case OFPMP_FLOW:
		return array(t, pv, newFlowStats(t, pv, 100), newFlowStats(t, pv, 200))
	case OFPMP_AGGREGATE:
		v := NewMutableAggregate(pv)
		check(t, v.SetPacketCount(1<<40), v.SetByteCount(1<<50), v.SetFlowCount(7))
		return freeze(t, v)
	case OFPMP_TABLE:
		return array(t, pv, newTableStats(t, pv, 0), newTableStats(t, pv, 1))
	case OFPMP_PORT_STATS:
		return array(t, pv, newPortStats(t, pv, 1, 100, 50), newPortStats(t, pv, openflow.OFPP_LOCAL, 0, 0))
	case OFPMP_QUEUE:
		return array(t, pv, newQueueStats(t, pv, 0), newQueueStats(t, pv, 1))
	case OFPMP_GROUP:
		return array(t, pv, newGroupStats(t, pv, 1), newGroupStats(t, pv, 2))
	case OFPMP_GROUP_DESC:
		return array(t, pv, newGroupDesc(t, pv, 1))
	case OFPMP_GROUP_FEATURES:
		v := NewMutableGroupFeatures(pv)
		check(t,
			v.SetTypes(1<<OFPGT_ALL|1<<OFPGT_SELECT),
			v.SetCapabilities(0x3),
			v.SetMaxGroups([4]uint32{100, 200, 0, 0}),
			v.SetActions([4]uint32{0x1, 0x1, 0, 0}),
		)
		return freeze(t, v)
	case OFPMP_METER:
		return array(t, pv, newMeterStats(t, pv, 1), newMeterStats(t, pv, 2))
	case OFPMP_METER_CONFIG:
		return array(t, pv, newMeterConfig(t, pv, 1))
	case OFPMP_METER_FEATURES:
		v := NewMutableMeterFeatures(pv)
		check(t,
			v.SetMaxMeter(64),
			v.SetBandTypes(1<<OFPMBT_DROP|1<<OFPMBT_DSCP_REMARK),
			v.SetCapabilities(OFPMF_KBPS|OFPMF_PKTPS),
			v.SetMaxBands(4),
			v.SetMaxColor(2),
		)
		return freeze(t, v)
	case OFPMP_TABLE_FEATURES:
		return array(t, pv, newTableFeatures(t, pv, 0), newTableFeatures(t, pv, 1))
	case OFPMP_PORT_DESC:
		return array(t, pv, newPortDesc(t, pv, 1), newPortDesc(t, pv, 2))
	case OFPMP_EXPERIMENTER:
		v := NewMutableExperimenter(pv)
		check(t, v.SetExperimenter(0x00abcdef), v.SetData([]byte{0xca, 0xfe}))
		if pv != openflow.OF10_VERSION {
			check(t, v.SetExpType(9))
		}
		return freeze(t, v)
	}

	t.Fatalf("no reply fixture for %v", typ)
	return nil
}

// requestBody returns a populated request body, or false if typ has none.
func requestBody(t *testing.T, pv openflow.Version, typ MultipartType) (Body, bool) {
	t.Helper()

	switch typ {
	case OFPMP_DESC, OFPMP_TABLE, OFPMP_GROUP_DESC, OFPMP_GROUP_FEATURES,
		OFPMP_METER_FEATURES, OFPMP_PORT_DESC:
		return nil, false
	case OFPMP_FLOW, OFPMP_AGGREGATE:
		v := newMutableFlowRequest(pv, typ)
		check(t, v.SetTableID(0), v.SetOutPort(2), v.SetMatch(testMatch(t, pv)))
		if pv != openflow.OF10_VERSION {
			check(t, v.SetOutGroup(5), v.SetCookie(0x1234), v.SetCookieMask(0xffff))
		}
		return freeze(t, v), true
	case OFPMP_PORT_STATS:
		v := NewMutablePortStatsRequest(pv)
		check(t, v.SetPort(7))
		return freeze(t, v), true
	case OFPMP_QUEUE:
		v := NewMutableQueueStatsRequest(pv)
		check(t, v.SetPort(7), v.SetQueueID(3))
		return freeze(t, v), true
	case OFPMP_GROUP:
		v := NewMutableGroupRequest(pv)
		check(t, v.SetGroupID(9))
		return freeze(t, v), true
	case OFPMP_METER, OFPMP_METER_CONFIG:
		v := newMutableMeterRequest(pv, typ)
		check(t, v.SetMeterID(4))
		return freeze(t, v), true
	case OFPMP_TABLE_FEATURES:
		return array(t, pv, newTableFeatures(t, pv, 0)), true
	case OFPMP_EXPERIMENTER:
		v := NewMutableExperimenter(pv)
		check(t, v.SetExperimenter(0x00abcdef), v.SetData([]byte{1, 2, 3, 4}))
		return freeze(t, v), true
	}

	t.Fatalf("no request fixture for %v", typ)
	return nil, false
}
