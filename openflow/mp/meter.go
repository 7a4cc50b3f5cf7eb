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
)

const (
	// OFPM_MAX is the last usable meter number.
	OFPM_MAX = 0xffff0000
	// OFPM_ALL selects every meter in a request.
	OFPM_ALL = 0xffffffff

	meterRequestLength     = 8
	meterStatsFixedLen     = 40
	meterBandStatsLength   = 16
	meterConfigFixedLen    = 8
	meterBandFixedLen      = 16
	meterFeaturesLength    = 16
	meterStatsLengthOffset = 4
)

// Meter band types.
const (
	OFPMBT_DROP         = 1
	OFPMBT_DSCP_REMARK  = 2
	OFPMBT_EXPERIMENTER = 0xffff
)

// Meter configuration flags.
const (
	OFPMF_KBPS  = 1 << 0
	OFPMF_PKTPS = 1 << 1
	OFPMF_BURST = 1 << 2
	OFPMF_STATS = 1 << 3
)

// MeterRequest is the request body of both METER and METER_CONFIG.
type MeterRequest struct {
	version openflow.Version
	kind    MultipartType
	meterID uint32
}

func (r *MeterRequest) view() *MeterRequest {
	return r
}

func (r *MeterRequest) Version() openflow.Version {
	return r.version
}

// Kind returns OFPMP_METER or OFPMP_METER_CONFIG.
func (r *MeterRequest) Kind() MultipartType {
	return r.kind
}

func (r *MeterRequest) Validate() error {
	return nil
}

func (r *MeterRequest) TotalLength() int {
	return meterRequestLength
}

func (r *MeterRequest) MeterID() uint32 {
	return r.meterID
}

type MutableMeterRequest struct {
	MeterRequest
	mutable
}

func newMutableMeterRequest(pv openflow.Version, kind MultipartType) *MutableMeterRequest {
	return &MutableMeterRequest{MeterRequest: MeterRequest{version: pv, kind: kind, meterID: OFPM_ALL}}
}

func NewMutableMeterStatsRequest(pv openflow.Version) *MutableMeterRequest {
	return newMutableMeterRequest(pv, OFPMP_METER)
}

func NewMutableMeterConfigRequest(pv openflow.Version) *MutableMeterRequest {
	return newMutableMeterRequest(pv, OFPMP_METER_CONFIG)
}

func (r *MutableMeterRequest) SetMeterID(id uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.meterID = id

	return nil
}

func (r *MutableMeterRequest) ToImmutable() (*MeterRequest, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.MeterRequest

	return &v, nil
}

func (r *MutableMeterRequest) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeMeterRequest(b Body, w *openflow.PacketWriter) error {
	v, err := viewOf[MeterRequest](b)
	if err != nil {
		return err
	}
	w.WriteU32(v.meterID)
	// 4 bytes padding
	w.WriteZeros(4)

	return nil
}

func parseMeterRequest(r *openflow.PacketReader, pv openflow.Version, kind MultipartType) (*MutableMeterRequest, error) {
	v := newMutableMeterRequest(pv, kind)
	v.meterID = r.ReadU32()
	r.Skip(4)
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse meter request")
	}

	return v, nil
}

// MeterBandStats holds the counters of one meter band.
type MeterBandStats struct {
	PacketBandCount uint64
	ByteBandCount   uint64
}

// MeterStats describes one meter in a METER reply.
type MeterStats struct {
	version       openflow.Version
	meterID       uint32
	flowCount     uint32
	packetInCount uint64
	byteInCount   uint64
	durationSec   uint32
	durationNsec  uint32
	bands         []MeterBandStats
	length        int
}

func (r *MeterStats) view() *MeterStats {
	return r
}

func (r *MeterStats) Version() openflow.Version {
	return r.version
}

func (r *MeterStats) Validate() error {
	return nil
}

func (r *MeterStats) TotalLength() int {
	return r.length
}

func (r *MeterStats) MeterID() uint32 {
	return r.meterID
}

func (r *MeterStats) FlowCount() uint32 {
	return r.flowCount
}

func (r *MeterStats) PacketInCount() uint64 {
	return r.packetInCount
}

func (r *MeterStats) ByteInCount() uint64 {
	return r.byteInCount
}

func (r *MeterStats) DurationSec() uint32 {
	return r.durationSec
}

func (r *MeterStats) DurationNsec() uint32 {
	return r.durationNsec
}

func (r *MeterStats) BandStats() []MeterBandStats {
	v := make([]MeterBandStats, len(r.bands))
	copy(v, r.bands)

	return v
}

type MutableMeterStats struct {
	MeterStats
	mutable
}

func NewMutableMeterStats(pv openflow.Version) *MutableMeterStats {
	return &MutableMeterStats{
		MeterStats: MeterStats{version: pv, bands: make([]MeterBandStats, 0), length: meterStatsFixedLen},
	}
}

func (r *MutableMeterStats) SetMeterID(id uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.meterID = id

	return nil
}

func (r *MutableMeterStats) SetFlowCount(count uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.flowCount = count

	return nil
}

func (r *MutableMeterStats) SetPacketInCount(count uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.packetInCount = count

	return nil
}

func (r *MutableMeterStats) SetByteInCount(count uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.byteInCount = count

	return nil
}

func (r *MutableMeterStats) SetDuration(sec, nsec uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.durationSec = sec
	r.durationNsec = nsec

	return nil
}

func (r *MutableMeterStats) SetBandStats(bands []MeterBandStats) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if bands == nil {
		return openflow.NullArgument("meter band stats")
	}
	length, err := checkLength("meter stats", meterStatsFixedLen+len(bands)*meterBandStatsLength)
	if err != nil {
		return err
	}
	r.bands = make([]MeterBandStats, len(bands))
	copy(r.bands, bands)
	r.length = length

	return nil
}

func (r *MutableMeterStats) ToImmutable() (*MeterStats, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.MeterStats
	v.bands = r.BandStats()

	return &v, nil
}

func (r *MutableMeterStats) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeMeterStats(v *MeterStats, w *openflow.PacketWriter) error {
	w.WriteU32(v.meterID)
	w.WriteU16(uint16(v.length))
	// 6 bytes padding
	w.WriteZeros(6)
	w.WriteU32(v.flowCount)
	w.WriteU64(v.packetInCount)
	w.WriteU64(v.byteInCount)
	w.WriteU32(v.durationSec)
	w.WriteU32(v.durationNsec)
	for _, b := range v.bands {
		w.WriteU64(b.PacketBandCount)
		w.WriteU64(b.ByteBandCount)
	}

	return nil
}

func parseMeterStats(r *openflow.PacketReader, pv openflow.Version) (*MeterStats, error) {
	length, err := r.PeekU16(meterStatsLengthOffset)
	if err != nil {
		return nil, err
	}
	if int(length) < meterStatsFixedLen || (int(length)-meterStatsFixedLen)%meterBandStatsLength != 0 {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "meter stats length %v", length)
	}
	body, err := r.Bounded(int(length))
	if err != nil {
		return nil, err
	}

	v := NewMutableMeterStats(pv)
	v.meterID = body.ReadU32()
	body.Skip(8)
	v.flowCount = body.ReadU32()
	v.packetInCount = body.ReadU64()
	v.byteInCount = body.ReadU64()
	v.durationSec = body.ReadU32()
	v.durationNsec = body.ReadU32()
	for body.Remaining() > 0 {
		s := MeterBandStats{PacketBandCount: body.ReadU64(), ByteBandCount: body.ReadU64()}
		if err := body.Err(); err != nil {
			break
		}
		v.bands = append(v.bands, s)
	}
	if err := body.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse meter stats")
	}
	v.length = int(length)

	return v.ToImmutable()
}

// MeterBand is one band of a meter configuration. PrecLevel applies to
// OFPMBT_DSCP_REMARK only; Experimenter and Data apply to
// OFPMBT_EXPERIMENTER only.
type MeterBand struct {
	Type         uint16
	Rate         uint32
	BurstSize    uint32
	PrecLevel    uint8
	Experimenter uint32
	Data         []byte
}

func (r MeterBand) clone() MeterBand {
	v := r
	if r.Data != nil {
		v.Data = append([]byte(nil), r.Data...)
	}

	return v
}

func (r MeterBand) length() int {
	if r.Type == OFPMBT_EXPERIMENTER {
		return meterBandFixedLen + len(r.Data)
	}
	return meterBandFixedLen
}

func (r MeterBand) validate() error {
	switch r.Type {
	case OFPMBT_DROP, OFPMBT_DSCP_REMARK:
		return nil
	case OFPMBT_EXPERIMENTER:
		if len(r.Data)%8 != 0 {
			return openflow.IllegalArgument("experimenter meter band data of %v bytes is not 8-byte aligned", len(r.Data))
		}
		return nil
	default:
		return openflow.IllegalArgument("unknown meter band type %v", r.Type)
	}
}

func (r MeterBand) encode(w *openflow.PacketWriter) {
	w.WriteU16(r.Type)
	w.WriteU16(uint16(r.length()))
	w.WriteU32(r.Rate)
	w.WriteU32(r.BurstSize)
	switch r.Type {
	case OFPMBT_DSCP_REMARK:
		w.WriteU8(r.PrecLevel)
		// 3 bytes padding
		w.WriteZeros(3)
	case OFPMBT_EXPERIMENTER:
		w.WriteU32(r.Experimenter)
		w.WriteBytes(r.Data)
	default:
		// 4 bytes padding
		w.WriteZeros(4)
	}
}

func decodeMeterBand(r *openflow.PacketReader) (MeterBand, error) {
	length, err := r.PeekU16(2)
	if err != nil {
		return MeterBand{}, err
	}
	if int(length) < meterBandFixedLen {
		return MeterBand{}, errors.Wrapf(openflow.ErrInvalidPacketLength, "meter band length %v", length)
	}
	body, err := r.Bounded(int(length))
	if err != nil {
		return MeterBand{}, err
	}

	v := MeterBand{Type: body.ReadU16()}
	body.Skip(2)
	v.Rate = body.ReadU32()
	v.BurstSize = body.ReadU32()
	switch v.Type {
	case OFPMBT_DROP:
		body.Skip(4)
	case OFPMBT_DSCP_REMARK:
		v.PrecLevel = body.ReadU8()
		body.Skip(3)
	case OFPMBT_EXPERIMENTER:
		v.Experimenter = body.ReadU32()
		v.Data = body.ReadBytes(body.Remaining())
	default:
		return MeterBand{}, errors.Wrapf(openflow.ErrUnknownType, "meter band type %v", v.Type)
	}
	if err := body.Err(); err != nil {
		return MeterBand{}, errors.Wrap(err, "failed to parse meter band")
	}
	if body.Remaining() > 0 {
		return MeterBand{}, errors.Wrapf(openflow.ErrInvalidPacketLength, "meter band type %v has %v trailing bytes", v.Type, body.Remaining())
	}

	return v, nil
}

// MeterConfig describes one meter in a METER_CONFIG reply.
type MeterConfig struct {
	version openflow.Version
	flags   uint16
	meterID uint32
	bands   []MeterBand
	length  int
}

func (r *MeterConfig) view() *MeterConfig {
	return r
}

func (r *MeterConfig) Version() openflow.Version {
	return r.version
}

func (r *MeterConfig) Validate() error {
	return nil
}

func (r *MeterConfig) TotalLength() int {
	return r.length
}

// Flags returns the OFPMF_* flags of the meter.
func (r *MeterConfig) Flags() uint16 {
	return r.flags
}

func (r *MeterConfig) MeterID() uint32 {
	return r.meterID
}

func (r *MeterConfig) Bands() []MeterBand {
	v := make([]MeterBand, len(r.bands))
	for i, b := range r.bands {
		v[i] = b.clone()
	}

	return v
}

type MutableMeterConfig struct {
	MeterConfig
	mutable
}

func NewMutableMeterConfig(pv openflow.Version) *MutableMeterConfig {
	return &MutableMeterConfig{
		MeterConfig: MeterConfig{version: pv, bands: make([]MeterBand, 0), length: meterConfigFixedLen},
	}
}

func (r *MutableMeterConfig) SetFlags(flags uint16) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.flags = flags

	return nil
}

func (r *MutableMeterConfig) SetMeterID(id uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.meterID = id

	return nil
}

func (r *MutableMeterConfig) SetBands(bands []MeterBand) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if bands == nil {
		return openflow.NullArgument("meter bands")
	}
	n := meterConfigFixedLen
	for i, b := range bands {
		if err := b.validate(); err != nil {
			return errors.Wrapf(err, "meter band %v", i)
		}
		n += b.length()
	}
	length, err := checkLength("meter config", n)
	if err != nil {
		return err
	}
	r.bands = make([]MeterBand, len(bands))
	for i, b := range bands {
		r.bands[i] = b.clone()
	}
	r.length = length

	return nil
}

func (r *MutableMeterConfig) ToImmutable() (*MeterConfig, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.MeterConfig
	v.bands = r.Bands()

	return &v, nil
}

func (r *MutableMeterConfig) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeMeterConfig(v *MeterConfig, w *openflow.PacketWriter) error {
	w.WriteU16(uint16(v.length))
	w.WriteU16(v.flags)
	w.WriteU32(v.meterID)
	for _, b := range v.bands {
		b.encode(w)
	}

	return nil
}

func parseMeterConfig(r *openflow.PacketReader, pv openflow.Version) (*MeterConfig, error) {
	length, err := r.PeekU16(0)
	if err != nil {
		return nil, err
	}
	if int(length) < meterConfigFixedLen {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "meter config length %v", length)
	}
	body, err := r.Bounded(int(length))
	if err != nil {
		return nil, err
	}

	v := NewMutableMeterConfig(pv)
	body.Skip(2)
	v.flags = body.ReadU16()
	v.meterID = body.ReadU32()
	if err := body.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse meter config")
	}
	n := meterConfigFixedLen
	for body.Remaining() > 0 {
		b, err := decodeMeterBand(body)
		if err != nil {
			return nil, err
		}
		v.bands = append(v.bands, b)
		n += b.length()
	}
	if v.length, err = checkLength("meter config", n); err != nil {
		return nil, err
	}

	return v.ToImmutable()
}

// MeterFeatures is the METER_FEATURES reply.
type MeterFeatures struct {
	version      openflow.Version
	maxMeter     uint32
	bandTypes    uint32
	capabilities uint32
	maxBands     uint8
	maxColor     uint8
}

func (r *MeterFeatures) view() *MeterFeatures {
	return r
}

func (r *MeterFeatures) Version() openflow.Version {
	return r.version
}

func (r *MeterFeatures) Validate() error {
	return nil
}

func (r *MeterFeatures) TotalLength() int {
	return meterFeaturesLength
}

func (r *MeterFeatures) MaxMeter() uint32 {
	return r.maxMeter
}

// BandTypes returns the bitmap of supported OFPMBT_* band types.
func (r *MeterFeatures) BandTypes() uint32 {
	return r.bandTypes
}

// Capabilities returns the bitmap of supported OFPMF_* flags.
func (r *MeterFeatures) Capabilities() uint32 {
	return r.capabilities
}

func (r *MeterFeatures) MaxBands() uint8 {
	return r.maxBands
}

func (r *MeterFeatures) MaxColor() uint8 {
	return r.maxColor
}

type MutableMeterFeatures struct {
	MeterFeatures
	mutable
}

func NewMutableMeterFeatures(pv openflow.Version) *MutableMeterFeatures {
	return &MutableMeterFeatures{MeterFeatures: MeterFeatures{version: pv}}
}

func (r *MutableMeterFeatures) SetMaxMeter(max uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.maxMeter = max

	return nil
}

func (r *MutableMeterFeatures) SetBandTypes(types uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.bandTypes = types

	return nil
}

func (r *MutableMeterFeatures) SetCapabilities(caps uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.capabilities = caps

	return nil
}

func (r *MutableMeterFeatures) SetMaxBands(max uint8) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.maxBands = max

	return nil
}

func (r *MutableMeterFeatures) SetMaxColor(max uint8) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.maxColor = max

	return nil
}

func (r *MutableMeterFeatures) ToImmutable() (*MeterFeatures, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.MeterFeatures

	return &v, nil
}

func (r *MutableMeterFeatures) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeMeterFeatures(b Body, w *openflow.PacketWriter) error {
	v, err := viewOf[MeterFeatures](b)
	if err != nil {
		return err
	}
	w.WriteU32(v.maxMeter)
	w.WriteU32(v.bandTypes)
	w.WriteU32(v.capabilities)
	w.WriteU8(v.maxBands)
	w.WriteU8(v.maxColor)
	// 2 bytes padding
	w.WriteZeros(2)

	return nil
}

func parseMeterFeatures(r *openflow.PacketReader, pv openflow.Version) (*MutableMeterFeatures, error) {
	v := NewMutableMeterFeatures(pv)
	v.maxMeter = r.ReadU32()
	v.bandTypes = r.ReadU32()
	v.capabilities = r.ReadU32()
	v.maxBands = r.ReadU8()
	v.maxColor = r.ReadU8()
	r.Skip(2)
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse meter features")
	}

	return v, nil
}
