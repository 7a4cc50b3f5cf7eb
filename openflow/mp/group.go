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
)

const (
	// OFPG_MAX is the last usable group number.
	OFPG_MAX = 0xffffff00
	// OFPG_ALL selects every group in a request.
	OFPG_ALL = 0xfffffffc

	groupRequestLength      = 8
	groupStatsFixedLen      = 32
	of13GroupStatsFixedLen  = 40
	bucketCounterLength     = 16
	groupDescFixedLen       = 8
	bucketFixedLen          = 16
	groupFeaturesLength     = 40
	groupFeaturesTypeMaxLen = 4
)

// Group types.
const (
	OFPGT_ALL      = 0
	OFPGT_SELECT   = 1
	OFPGT_INDIRECT = 2
	OFPGT_FF       = 3
)

// GroupRequest selects one group, or every group with OFPG_ALL.
type GroupRequest struct {
	version openflow.Version
	groupID uint32
}

func (r *GroupRequest) view() *GroupRequest {
	return r
}

func (r *GroupRequest) Version() openflow.Version {
	return r.version
}

func (r *GroupRequest) Validate() error {
	return nil
}

func (r *GroupRequest) TotalLength() int {
	return groupRequestLength
}

func (r *GroupRequest) GroupID() uint32 {
	return r.groupID
}

type MutableGroupRequest struct {
	GroupRequest
	mutable
}

func NewMutableGroupRequest(pv openflow.Version) *MutableGroupRequest {
	return &MutableGroupRequest{GroupRequest: GroupRequest{version: pv, groupID: OFPG_ALL}}
}

func (r *MutableGroupRequest) SetGroupID(id uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.groupID = id

	return nil
}

func (r *MutableGroupRequest) ToImmutable() (*GroupRequest, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.GroupRequest

	return &v, nil
}

func (r *MutableGroupRequest) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeGroupRequest(b Body, w *openflow.PacketWriter) error {
	v, err := viewOf[GroupRequest](b)
	if err != nil {
		return err
	}
	w.WriteU32(v.groupID)
	// 4 bytes padding
	w.WriteZeros(4)

	return nil
}

func parseGroupRequest(r *openflow.PacketReader, pv openflow.Version) (*MutableGroupRequest, error) {
	v := NewMutableGroupRequest(pv)
	v.groupID = r.ReadU32()
	r.Skip(4)
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse group request")
	}

	return v, nil
}

// BucketCounter holds the counters of one bucket of a group.
type BucketCounter struct {
	PacketCount uint64
	ByteCount   uint64
}

// GroupStats describes one group in a GROUP reply.
type GroupStats struct {
	version      openflow.Version
	groupID      uint32
	refCount     uint32
	packetCount  uint64
	byteCount    uint64
	durationSec  uint32
	durationNsec uint32
	buckets      []BucketCounter
	length       int
}

func (r *GroupStats) view() *GroupStats {
	return r
}

func (r *GroupStats) Version() openflow.Version {
	return r.version
}

func (r *GroupStats) Validate() error {
	return nil
}

func (r *GroupStats) TotalLength() int {
	return r.length
}

func (r *GroupStats) GroupID() uint32 {
	return r.groupID
}

func (r *GroupStats) RefCount() uint32 {
	return r.refCount
}

func (r *GroupStats) PacketCount() uint64 {
	return r.packetCount
}

func (r *GroupStats) ByteCount() uint64 {
	return r.byteCount
}

// DurationSec returns 0 before OF1.3.
func (r *GroupStats) DurationSec() uint32 {
	return r.durationSec
}

// DurationNsec returns 0 before OF1.3.
func (r *GroupStats) DurationNsec() uint32 {
	return r.durationNsec
}

func (r *GroupStats) BucketCounters() []BucketCounter {
	v := make([]BucketCounter, len(r.buckets))
	copy(v, r.buckets)

	return v
}

func (r *GroupStats) fixedLength() int {
	if r.version == openflow.OF13_VERSION {
		return of13GroupStatsFixedLen
	}
	return groupStatsFixedLen
}

type MutableGroupStats struct {
	GroupStats
	mutable
}

func NewMutableGroupStats(pv openflow.Version) *MutableGroupStats {
	v := &MutableGroupStats{GroupStats: GroupStats{version: pv, buckets: make([]BucketCounter, 0)}}
	v.length = v.fixedLength()

	return v
}

func (r *MutableGroupStats) SetGroupID(id uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.groupID = id

	return nil
}

func (r *MutableGroupStats) SetRefCount(count uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.refCount = count

	return nil
}

func (r *MutableGroupStats) SetPacketCount(count uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.packetCount = count

	return nil
}

func (r *MutableGroupStats) SetByteCount(count uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.byteCount = count

	return nil
}

func (r *MutableGroupStats) SetDuration(sec, nsec uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.VerRange(r.version, openflow.OF13_VERSION, openflow.OF13_VERSION, "group stats duration"); err != nil {
		return err
	}
	r.durationSec = sec
	r.durationNsec = nsec

	return nil
}

func (r *MutableGroupStats) SetBucketCounters(counters []BucketCounter) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if counters == nil {
		return openflow.NullArgument("bucket counters")
	}
	length, err := checkLength("group stats", r.fixedLength()+len(counters)*bucketCounterLength)
	if err != nil {
		return err
	}
	r.buckets = make([]BucketCounter, len(counters))
	copy(r.buckets, counters)
	r.length = length

	return nil
}

func (r *MutableGroupStats) ToImmutable() (*GroupStats, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.GroupStats
	v.buckets = r.BucketCounters()

	return &v, nil
}

func (r *MutableGroupStats) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeGroupStats(v *GroupStats, w *openflow.PacketWriter) error {
	w.WriteU16(uint16(v.length))
	// 2 bytes padding
	w.WriteZeros(2)
	w.WriteU32(v.groupID)
	w.WriteU32(v.refCount)
	// 4 bytes padding
	w.WriteZeros(4)
	w.WriteU64(v.packetCount)
	w.WriteU64(v.byteCount)
	if v.version == openflow.OF13_VERSION {
		w.WriteU32(v.durationSec)
		w.WriteU32(v.durationNsec)
	}
	for _, b := range v.buckets {
		w.WriteU64(b.PacketCount)
		w.WriteU64(b.ByteCount)
	}

	return nil
}

func parseGroupStats(r *openflow.PacketReader, pv openflow.Version) (*GroupStats, error) {
	v := NewMutableGroupStats(pv)
	length, err := r.PeekU16(0)
	if err != nil {
		return nil, err
	}
	if int(length) < v.fixedLength() || (int(length)-v.fixedLength())%bucketCounterLength != 0 {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "group stats length %v", length)
	}
	body, err := r.Bounded(int(length))
	if err != nil {
		return nil, err
	}

	body.Skip(4)
	v.groupID = body.ReadU32()
	v.refCount = body.ReadU32()
	body.Skip(4)
	v.packetCount = body.ReadU64()
	v.byteCount = body.ReadU64()
	if pv == openflow.OF13_VERSION {
		v.durationSec = body.ReadU32()
		v.durationNsec = body.ReadU32()
	}
	for body.Remaining() > 0 {
		c := BucketCounter{PacketCount: body.ReadU64(), ByteCount: body.ReadU64()}
		if err := body.Err(); err != nil {
			break
		}
		v.buckets = append(v.buckets, c)
	}
	if err := body.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse group stats")
	}
	v.length = int(length)

	return v.ToImmutable()
}

// Bucket is one action bucket of a group description.
type Bucket struct {
	Weight     uint16
	WatchPort  openflow.PortNumber
	WatchGroup uint32
	Actions    []action.Action
}

func (r Bucket) clone() Bucket {
	v := r
	v.Actions = make([]action.Action, len(r.Actions))
	copy(v.Actions, r.Actions)

	return v
}

func (r Bucket) length(pv openflow.Version) (int, error) {
	n, err := action.ListLength(pv, r.Actions)
	if err != nil {
		return 0, err
	}

	return checkLength("bucket", bucketFixedLen+n)
}

func (r Bucket) encode(w *openflow.PacketWriter, pv openflow.Version) error {
	length, err := r.length(pv)
	if err != nil {
		return err
	}
	w.WriteU16(uint16(length))
	w.WriteU16(r.Weight)
	if err := openflow.WritePortNumber(w, pv, r.WatchPort); err != nil {
		return err
	}
	w.WriteU32(r.WatchGroup)
	// 4 bytes padding
	w.WriteZeros(4)

	return action.EncodeList(w, pv, r.Actions)
}

func decodeBucket(r *openflow.PacketReader, pv openflow.Version) (Bucket, error) {
	length, err := r.PeekU16(0)
	if err != nil {
		return Bucket{}, err
	}
	if int(length) < bucketFixedLen {
		return Bucket{}, errors.Wrapf(openflow.ErrInvalidPacketLength, "bucket length %v", length)
	}
	body, err := r.Bounded(int(length))
	if err != nil {
		return Bucket{}, err
	}

	body.Skip(2)
	v := Bucket{Weight: body.ReadU16()}
	v.WatchPort = openflow.ReadPortNumber(body, pv)
	v.WatchGroup = body.ReadU32()
	body.Skip(4)
	if err := body.Err(); err != nil {
		return Bucket{}, errors.Wrap(err, "failed to parse bucket")
	}
	if v.Actions, err = action.DecodeList(body, pv); err != nil {
		return Bucket{}, err
	}

	return v, nil
}

// GroupDesc describes one group in a GROUP_DESC reply.
type GroupDesc struct {
	version   openflow.Version
	groupType uint8
	groupID   uint32
	buckets   []Bucket
	length    int
}

func (r *GroupDesc) view() *GroupDesc {
	return r
}

func (r *GroupDesc) Version() openflow.Version {
	return r.version
}

func (r *GroupDesc) Validate() error {
	return nil
}

func (r *GroupDesc) TotalLength() int {
	return r.length
}

func (r *GroupDesc) GroupType() uint8 {
	return r.groupType
}

func (r *GroupDesc) GroupID() uint32 {
	return r.groupID
}

func (r *GroupDesc) Buckets() []Bucket {
	v := make([]Bucket, len(r.buckets))
	for i, b := range r.buckets {
		v[i] = b.clone()
	}

	return v
}

func (r *GroupDesc) computeLength(buckets []Bucket) (int, error) {
	n := groupDescFixedLen
	for _, b := range buckets {
		l, err := b.length(r.version)
		if err != nil {
			return 0, err
		}
		n += l
	}

	return checkLength("group desc", n)
}

type MutableGroupDesc struct {
	GroupDesc
	mutable
}

func NewMutableGroupDesc(pv openflow.Version) *MutableGroupDesc {
	return &MutableGroupDesc{
		GroupDesc: GroupDesc{version: pv, buckets: make([]Bucket, 0), length: groupDescFixedLen},
	}
}

func (r *MutableGroupDesc) SetGroupType(t uint8) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if t > OFPGT_FF {
		return openflow.OutOfRange("group type", uint64(t), OFPGT_FF)
	}
	r.groupType = t

	return nil
}

func (r *MutableGroupDesc) SetGroupID(id uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.groupID = id

	return nil
}

func (r *MutableGroupDesc) SetBuckets(buckets []Bucket) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if buckets == nil {
		return openflow.NullArgument("buckets")
	}
	for i, b := range buckets {
		if err := openflow.CheckPortNumber(r.version, b.WatchPort); err != nil {
			return errors.Wrapf(err, "bucket %v", i)
		}
	}
	length, err := r.computeLength(buckets)
	if err != nil {
		return err
	}
	r.buckets = make([]Bucket, len(buckets))
	for i, b := range buckets {
		r.buckets[i] = b.clone()
	}
	r.length = length

	return nil
}

func (r *MutableGroupDesc) ToImmutable() (*GroupDesc, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.GroupDesc
	v.buckets = r.Buckets()

	return &v, nil
}

func (r *MutableGroupDesc) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeGroupDesc(v *GroupDesc, w *openflow.PacketWriter) error {
	w.WriteU16(uint16(v.length))
	w.WriteU8(v.groupType)
	// 1 byte padding
	w.WriteZeros(1)
	w.WriteU32(v.groupID)
	for i, b := range v.buckets {
		if err := b.encode(w, v.version); err != nil {
			return errors.Wrapf(err, "failed to encode bucket %v", i)
		}
	}

	return nil
}

func parseGroupDesc(r *openflow.PacketReader, pv openflow.Version) (*GroupDesc, error) {
	length, err := r.PeekU16(0)
	if err != nil {
		return nil, err
	}
	if int(length) < groupDescFixedLen {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "group desc length %v", length)
	}
	body, err := r.Bounded(int(length))
	if err != nil {
		return nil, err
	}

	v := NewMutableGroupDesc(pv)
	body.Skip(2)
	v.groupType = body.ReadU8()
	body.Skip(1)
	v.groupID = body.ReadU32()
	if err := body.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse group desc")
	}
	for body.Remaining() > 0 {
		b, err := decodeBucket(body, pv)
		if err != nil {
			return nil, err
		}
		v.buckets = append(v.buckets, b)
	}
	if v.length, err = v.computeLength(v.buckets); err != nil {
		return nil, err
	}

	return v.ToImmutable()
}

// GroupFeatures is the GROUP_FEATURES reply.
type GroupFeatures struct {
	version      openflow.Version
	types        uint32
	capabilities uint32
	maxGroups    [groupFeaturesTypeMaxLen]uint32
	actions      [groupFeaturesTypeMaxLen]uint32
}

func (r *GroupFeatures) view() *GroupFeatures {
	return r
}

func (r *GroupFeatures) Version() openflow.Version {
	return r.version
}

func (r *GroupFeatures) Validate() error {
	return nil
}

func (r *GroupFeatures) TotalLength() int {
	return groupFeaturesLength
}

// Types returns the bitmap of supported OFPGT_* group types.
func (r *GroupFeatures) Types() uint32 {
	return r.types
}

func (r *GroupFeatures) Capabilities() uint32 {
	return r.capabilities
}

// MaxGroups returns the maximum number of groups for each group type.
func (r *GroupFeatures) MaxGroups() [4]uint32 {
	return r.maxGroups
}

// Actions returns the bitmap of supported actions for each group type.
func (r *GroupFeatures) Actions() [4]uint32 {
	return r.actions
}

type MutableGroupFeatures struct {
	GroupFeatures
	mutable
}

func NewMutableGroupFeatures(pv openflow.Version) *MutableGroupFeatures {
	return &MutableGroupFeatures{GroupFeatures: GroupFeatures{version: pv}}
}

func (r *MutableGroupFeatures) SetTypes(types uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.types = types

	return nil
}

func (r *MutableGroupFeatures) SetCapabilities(caps uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.capabilities = caps

	return nil
}

func (r *MutableGroupFeatures) SetMaxGroups(max [4]uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.maxGroups = max

	return nil
}

func (r *MutableGroupFeatures) SetActions(actions [4]uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.actions = actions

	return nil
}

func (r *MutableGroupFeatures) ToImmutable() (*GroupFeatures, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.GroupFeatures

	return &v, nil
}

func (r *MutableGroupFeatures) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeGroupFeatures(b Body, w *openflow.PacketWriter) error {
	v, err := viewOf[GroupFeatures](b)
	if err != nil {
		return err
	}
	w.WriteU32(v.types)
	w.WriteU32(v.capabilities)
	for _, n := range v.maxGroups {
		w.WriteU32(n)
	}
	for _, n := range v.actions {
		w.WriteU32(n)
	}

	return nil
}

func parseGroupFeatures(r *openflow.PacketReader, pv openflow.Version) (*MutableGroupFeatures, error) {
	v := NewMutableGroupFeatures(pv)
	v.types = r.ReadU32()
	v.capabilities = r.ReadU32()
	for i := range v.maxGroups {
		v.maxGroups[i] = r.ReadU32()
	}
	for i := range v.actions {
		v.actions[i] = r.ReadU32()
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse group features")
	}

	return v, nil
}
