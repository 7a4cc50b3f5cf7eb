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
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/action"
	"github.com/superkkt/ofmp/openflow/instruction"
	"github.com/superkkt/ofmp/openflow/match"
)

const (
	// OFPTT_ALL selects every table in a request.
	OFPTT_ALL = 0xff
	// OFPG_ANY matches any group in flow requests.
	OFPG_ANY = 0xffffffff

	of10FlowRequestLength = 44
	flowRequestFixedLen   = 32
	of10FlowStatsFixedLen = 88
	flowStatsFixedLen     = 48
	aggregateLength       = 24
)

// Flow-mod flags reported by OF1.3 flow statistics.
const (
	OFPFF_SEND_FLOW_REM = 1 << 0
	OFPFF_CHECK_OVERLAP = 1 << 1
	OFPFF_RESET_COUNTS  = 1 << 2
	OFPFF_NO_PKT_COUNTS = 1 << 3
	OFPFF_NO_BYT_COUNTS = 1 << 4
)

// FlowRequest is the request body of both FLOW and AGGREGATE, which share
// one layout.
type FlowRequest struct {
	version    openflow.Version
	kind       MultipartType
	tableID    uint8
	outPort    openflow.PortNumber
	outGroup   uint32
	cookie     uint64
	cookieMask uint64
	match      *match.Match
	length     int
}

func (r *FlowRequest) view() *FlowRequest {
	return r
}

func (r *FlowRequest) Version() openflow.Version {
	return r.version
}

// Kind returns OFPMP_FLOW or OFPMP_AGGREGATE.
func (r *FlowRequest) Kind() MultipartType {
	return r.kind
}

func (r *FlowRequest) Validate() error {
	if r.match == nil {
		return openflow.NewIncompleteStructure("flow request match")
	}
	return nil
}

func (r *FlowRequest) TotalLength() int {
	return r.length
}

func (r *FlowRequest) TableID() uint8 {
	return r.tableID
}

func (r *FlowRequest) OutPort() openflow.PortNumber {
	return r.outPort
}

// OutGroup returns OFPG_ANY before OF1.1.
func (r *FlowRequest) OutGroup() uint32 {
	return r.outGroup
}

// Cookie returns 0 before OF1.1.
func (r *FlowRequest) Cookie() uint64 {
	return r.cookie
}

// CookieMask returns 0 before OF1.1.
func (r *FlowRequest) CookieMask() uint64 {
	return r.cookieMask
}

func (r *FlowRequest) Match() *match.Match {
	return r.match
}

func (r *FlowRequest) computeLength(m *match.Match) int {
	if r.version == openflow.OF10_VERSION {
		return of10FlowRequestLength
	}
	if m == nil {
		return flowRequestFixedLen
	}
	return flowRequestFixedLen + m.Length()
}

type MutableFlowRequest struct {
	FlowRequest
	mutable
}

func newMutableFlowRequest(pv openflow.Version, kind MultipartType) *MutableFlowRequest {
	v := &MutableFlowRequest{
		FlowRequest: FlowRequest{
			version:  pv,
			kind:     kind,
			tableID:  OFPTT_ALL,
			outPort:  openflow.OFPP_ANY,
			outGroup: OFPG_ANY,
		},
	}
	v.length = v.computeLength(nil)

	return v
}

func NewMutableFlowStatsRequest(pv openflow.Version) *MutableFlowRequest {
	return newMutableFlowRequest(pv, OFPMP_FLOW)
}

func NewMutableAggregateRequest(pv openflow.Version) *MutableFlowRequest {
	return newMutableFlowRequest(pv, OFPMP_AGGREGATE)
}

func (r *MutableFlowRequest) SetTableID(id uint8) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.tableID = id

	return nil
}

func (r *MutableFlowRequest) SetOutPort(port openflow.PortNumber) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.CheckPortNumber(r.version, port); err != nil {
		return err
	}
	r.outPort = port

	return nil
}

func (r *MutableFlowRequest) SetOutGroup(group uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.VerRange(r.version, openflow.OF11_VERSION, openflow.OF13_VERSION, "out group"); err != nil {
		return err
	}
	r.outGroup = group

	return nil
}

func (r *MutableFlowRequest) SetCookie(cookie uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.VerRange(r.version, openflow.OF11_VERSION, openflow.OF13_VERSION, "cookie"); err != nil {
		return err
	}
	r.cookie = cookie

	return nil
}

func (r *MutableFlowRequest) SetCookieMask(mask uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.VerRange(r.version, openflow.OF11_VERSION, openflow.OF13_VERSION, "cookie mask"); err != nil {
		return err
	}
	r.cookieMask = mask

	return nil
}

func (r *MutableFlowRequest) SetMatch(m *match.Match) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if m == nil {
		return openflow.NullArgument("match")
	}
	if m.Version() != r.version {
		return errors.Wrapf(openflow.ErrVersionMismatch, "%v match in %v flow request", m.Version(), r.version)
	}
	r.match = m
	r.length = r.computeLength(m)

	return nil
}

func (r *MutableFlowRequest) ToImmutable() (*FlowRequest, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.FlowRequest

	return &v, nil
}

func (r *MutableFlowRequest) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeFlowRequest(b Body, w *openflow.PacketWriter) error {
	v, err := viewOf[FlowRequest](b)
	if err != nil {
		return err
	}

	if v.version == openflow.OF10_VERSION {
		if err := v.match.Encode(w); err != nil {
			return err
		}
		w.WriteU8(v.tableID)
		// 1 byte padding
		w.WriteZeros(1)
		return openflow.WritePortNumber(w, v.version, v.outPort)
	}

	w.WriteU8(v.tableID)
	// 3 bytes padding
	w.WriteZeros(3)
	if err := openflow.WritePortNumber(w, v.version, v.outPort); err != nil {
		return err
	}
	w.WriteU32(v.outGroup)
	// 4 bytes padding
	w.WriteZeros(4)
	w.WriteU64(v.cookie)
	w.WriteU64(v.cookieMask)

	return v.match.Encode(w)
}

func parseFlowRequest(r *openflow.PacketReader, pv openflow.Version, kind MultipartType) (*MutableFlowRequest, error) {
	v := newMutableFlowRequest(pv, kind)

	var err error
	if pv == openflow.OF10_VERSION {
		if v.match, err = match.Decode(r, pv); err != nil {
			return nil, err
		}
		v.tableID = r.ReadU8()
		r.Skip(1)
		v.outPort = openflow.ReadPortNumber(r, pv)
	} else {
		v.tableID = r.ReadU8()
		r.Skip(3)
		v.outPort = openflow.ReadPortNumber(r, pv)
		v.outGroup = r.ReadU32()
		r.Skip(4)
		v.cookie = r.ReadU64()
		v.cookieMask = r.ReadU64()
		if err := r.Err(); err != nil {
			return nil, errors.Wrap(err, "failed to parse flow request")
		}
		if v.match, err = match.Decode(r, pv); err != nil {
			return nil, err
		}
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse flow request")
	}
	v.length = v.computeLength(v.match)

	return v, nil
}

// FlowStats describes one flow entry in a FLOW reply.
type FlowStats struct {
	version      openflow.Version
	tableID      uint8
	durationSec  uint32
	durationNsec uint32
	priority     uint16
	idleTimeout  uint16
	hardTimeout  uint16
	flags        uint16
	cookie       uint64
	packetCount  uint64
	byteCount    uint64
	match        *match.Match
	actions      []action.Action
	instructions []instruction.Instruction
	length       int
}

func (r *FlowStats) view() *FlowStats {
	return r
}

func (r *FlowStats) Version() openflow.Version {
	return r.version
}

func (r *FlowStats) Validate() error {
	if r.match == nil {
		return openflow.NewIncompleteStructure("flow stats match")
	}
	return nil
}

func (r *FlowStats) TotalLength() int {
	return r.length
}

func (r *FlowStats) TableID() uint8 {
	return r.tableID
}

func (r *FlowStats) DurationSec() uint32 {
	return r.durationSec
}

func (r *FlowStats) DurationNsec() uint32 {
	return r.durationNsec
}

func (r *FlowStats) Priority() uint16 {
	return r.priority
}

func (r *FlowStats) IdleTimeout() uint16 {
	return r.idleTimeout
}

func (r *FlowStats) HardTimeout() uint16 {
	return r.hardTimeout
}

// Flags returns the OFPFF_* flags of the flow. It is always 0 before OF1.3.
func (r *FlowStats) Flags() uint16 {
	return r.flags
}

func (r *FlowStats) Cookie() uint64 {
	return r.cookie
}

func (r *FlowStats) PacketCount() uint64 {
	return r.packetCount
}

func (r *FlowStats) ByteCount() uint64 {
	return r.byteCount
}

func (r *FlowStats) Match() *match.Match {
	return r.match
}

// Actions returns the OF1.0 action list, or nil for later versions.
func (r *FlowStats) Actions() []action.Action {
	if r.actions == nil {
		return nil
	}
	v := make([]action.Action, len(r.actions))
	copy(v, r.actions)

	return v
}

// Instructions returns the OF1.1+ instruction list, or nil for OF1.0.
func (r *FlowStats) Instructions() []instruction.Instruction {
	if r.instructions == nil {
		return nil
	}
	v := make([]instruction.Instruction, len(r.instructions))
	copy(v, r.instructions)

	return v
}

func (r *FlowStats) computeLength(m *match.Match, actions []action.Action, instructions []instruction.Instruction) (int, error) {
	if r.version == openflow.OF10_VERSION {
		n, err := action.ListLength(r.version, actions)
		if err != nil {
			return 0, err
		}
		return checkLength("flow stats", of10FlowStatsFixedLen+n)
	}

	n, err := instruction.ListLength(r.version, instructions)
	if err != nil {
		return 0, err
	}
	if m != nil {
		n += m.Length()
	}

	return checkLength("flow stats", flowStatsFixedLen+n)
}

type MutableFlowStats struct {
	FlowStats
	mutable
}

func NewMutableFlowStats(pv openflow.Version) *MutableFlowStats {
	v := &MutableFlowStats{FlowStats: FlowStats{version: pv}}
	if pv == openflow.OF10_VERSION {
		v.actions = make([]action.Action, 0)
		v.length = of10FlowStatsFixedLen
	} else {
		v.instructions = make([]instruction.Instruction, 0)
		v.length = flowStatsFixedLen
	}

	return v
}

func (r *MutableFlowStats) SetTableID(id uint8) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.tableID = id

	return nil
}

func (r *MutableFlowStats) SetDuration(sec, nsec uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.durationSec = sec
	r.durationNsec = nsec

	return nil
}

func (r *MutableFlowStats) SetPriority(priority uint16) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.priority = priority

	return nil
}

func (r *MutableFlowStats) SetIdleTimeout(timeout uint16) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.idleTimeout = timeout

	return nil
}

func (r *MutableFlowStats) SetHardTimeout(timeout uint16) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.hardTimeout = timeout

	return nil
}

func (r *MutableFlowStats) SetFlags(flags uint16) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.VerRange(r.version, openflow.OF13_VERSION, openflow.OF13_VERSION, "flow flags"); err != nil {
		return err
	}
	r.flags = flags

	return nil
}

func (r *MutableFlowStats) SetCookie(cookie uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.cookie = cookie

	return nil
}

func (r *MutableFlowStats) SetPacketCount(count uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.packetCount = count

	return nil
}

func (r *MutableFlowStats) SetByteCount(count uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.byteCount = count

	return nil
}

func (r *MutableFlowStats) SetMatch(m *match.Match) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if m == nil {
		return openflow.NullArgument("match")
	}
	if m.Version() != r.version {
		return errors.Wrapf(openflow.ErrVersionMismatch, "%v match in %v flow stats", m.Version(), r.version)
	}
	length, err := r.computeLength(m, r.actions, r.instructions)
	if err != nil {
		return err
	}
	r.match = m
	r.length = length

	return nil
}

// SetActions replaces the OF1.0 action list.
func (r *MutableFlowStats) SetActions(actions []action.Action) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if actions == nil {
		return openflow.NullArgument("actions")
	}
	if r.version != openflow.OF10_VERSION {
		return openflow.VerMismatch(r.version, "flow stats action list")
	}
	v := make([]action.Action, len(actions))
	copy(v, actions)
	length, err := r.computeLength(r.match, v, nil)
	if err != nil {
		return err
	}
	r.actions = v
	r.length = length

	return nil
}

// SetInstructions replaces the OF1.1+ instruction list.
func (r *MutableFlowStats) SetInstructions(list []instruction.Instruction) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if list == nil {
		return openflow.NullArgument("instructions")
	}
	if r.version == openflow.OF10_VERSION {
		return openflow.VerMismatch(r.version, "flow stats instruction list")
	}
	v := make([]instruction.Instruction, len(list))
	copy(v, list)
	length, err := r.computeLength(r.match, nil, v)
	if err != nil {
		return err
	}
	r.instructions = v
	r.length = length

	return nil
}

func (r *MutableFlowStats) ToImmutable() (*FlowStats, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.FlowStats

	return &v, nil
}

func (r *MutableFlowStats) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeFlowStats(v *FlowStats, w *openflow.PacketWriter) error {
	if err := v.Validate(); err != nil {
		return err
	}
	w.WriteU16(uint16(v.length))
	w.WriteU8(v.tableID)
	// 1 byte padding
	w.WriteZeros(1)

	if v.version == openflow.OF10_VERSION {
		if err := v.match.Encode(w); err != nil {
			return err
		}
	}
	w.WriteU32(v.durationSec)
	w.WriteU32(v.durationNsec)
	w.WriteU16(v.priority)
	w.WriteU16(v.idleTimeout)
	w.WriteU16(v.hardTimeout)
	if v.version == openflow.OF13_VERSION {
		w.WriteU16(v.flags)
		// 4 bytes padding
		w.WriteZeros(4)
	} else {
		// 6 bytes padding
		w.WriteZeros(6)
	}
	w.WriteU64(v.cookie)
	w.WriteU64(v.packetCount)
	w.WriteU64(v.byteCount)

	if v.version == openflow.OF10_VERSION {
		return action.EncodeList(w, v.version, v.actions)
	}
	if err := v.match.Encode(w); err != nil {
		return err
	}

	return instruction.EncodeList(w, v.version, v.instructions)
}

func parseFlowStats(r *openflow.PacketReader, pv openflow.Version) (*FlowStats, error) {
	length, err := r.PeekU16(0)
	if err != nil {
		return nil, err
	}
	minLength := flowStatsFixedLen
	if pv == openflow.OF10_VERSION {
		minLength = of10FlowStatsFixedLen
	}
	if int(length) < minLength {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "flow stats length %v", length)
	}
	body, err := r.Bounded(int(length))
	if err != nil {
		return nil, err
	}

	v := NewMutableFlowStats(pv)
	body.Skip(2)
	v.tableID = body.ReadU8()
	body.Skip(1)
	if pv == openflow.OF10_VERSION {
		if v.match, err = match.Decode(body, pv); err != nil {
			return nil, err
		}
	}
	v.durationSec = body.ReadU32()
	v.durationNsec = body.ReadU32()
	v.priority = body.ReadU16()
	v.idleTimeout = body.ReadU16()
	v.hardTimeout = body.ReadU16()
	if pv == openflow.OF13_VERSION {
		v.flags = body.ReadU16()
		body.Skip(4)
	} else {
		body.Skip(6)
	}
	v.cookie = body.ReadU64()
	v.packetCount = body.ReadU64()
	v.byteCount = body.ReadU64()
	if err := body.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse flow stats")
	}

	if pv == openflow.OF10_VERSION {
		if v.actions, err = action.DecodeList(body, pv); err != nil {
			return nil, err
		}
	} else {
		if v.match, err = match.Decode(body, pv); err != nil {
			return nil, err
		}
		if v.instructions, err = instruction.DecodeList(body, pv); err != nil {
			return nil, err
		}
	}
	if v.length, err = v.computeLength(v.match, v.actions, v.instructions); err != nil {
		return nil, err
	}

	return v.ToImmutable()
}

// Aggregate is the AGGREGATE reply.
type Aggregate struct {
	version     openflow.Version
	packetCount uint64
	byteCount   uint64
	flowCount   uint32
}

func (r *Aggregate) view() *Aggregate {
	return r
}

func (r *Aggregate) Version() openflow.Version {
	return r.version
}

func (r *Aggregate) Validate() error {
	return nil
}

func (r *Aggregate) TotalLength() int {
	return aggregateLength
}

func (r *Aggregate) PacketCount() uint64 {
	return r.packetCount
}

func (r *Aggregate) ByteCount() uint64 {
	return r.byteCount
}

func (r *Aggregate) FlowCount() uint32 {
	return r.flowCount
}

type MutableAggregate struct {
	Aggregate
	mutable
}

func NewMutableAggregate(pv openflow.Version) *MutableAggregate {
	return &MutableAggregate{Aggregate: Aggregate{version: pv}}
}

func (r *MutableAggregate) SetPacketCount(count uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.packetCount = count

	return nil
}

func (r *MutableAggregate) SetByteCount(count uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.byteCount = count

	return nil
}

func (r *MutableAggregate) SetFlowCount(count uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.flowCount = count

	return nil
}

func (r *MutableAggregate) ToImmutable() (*Aggregate, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.Aggregate

	return &v, nil
}

func (r *MutableAggregate) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeAggregate(b Body, w *openflow.PacketWriter) error {
	v, err := viewOf[Aggregate](b)
	if err != nil {
		return err
	}
	w.WriteU64(v.packetCount)
	w.WriteU64(v.byteCount)
	w.WriteU32(v.flowCount)
	// 4 bytes padding
	w.WriteZeros(4)

	return nil
}

func parseAggregate(r *openflow.PacketReader, pv openflow.Version) (*MutableAggregate, error) {
	v := NewMutableAggregate(pv)
	v.packetCount = r.ReadU64()
	v.byteCount = r.ReadU64()
	v.flowCount = r.ReadU32()
	r.Skip(4)
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse aggregate reply")
	}

	return v, nil
}
