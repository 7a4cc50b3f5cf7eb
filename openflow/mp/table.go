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
	"math"

	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
)

const tableNameLen = 32

var tableStatsLength = map[openflow.Version]int{
	openflow.OF10_VERSION: 64,
	openflow.OF11_VERSION: 88,
	openflow.OF12_VERSION: 128,
	openflow.OF13_VERSION: 24,
}

// TableStats describes one flow table in a TABLE reply. The layout changes
// with every version: OF1.1 and OF1.2 advertise table capabilities here, and
// OF1.3 keeps only the counters and moves the rest to TableFeatures. Getters
// return 0 or "" for fields absent at the bound version.
type TableStats struct {
	version        openflow.Version
	tableID        uint8
	name           string
	wildcards      uint64
	match          uint64
	instructions   uint32
	writeActions   uint32
	applyActions   uint32
	writeSetfields uint64
	applySetfields uint64
	metadataMatch  uint64
	metadataWrite  uint64
	config         uint32
	maxEntries     uint32
	activeCount    uint32
	lookupCount    uint64
	matchedCount   uint64
}

func (r *TableStats) view() *TableStats {
	return r
}

func (r *TableStats) Version() openflow.Version {
	return r.version
}

func (r *TableStats) Validate() error {
	return nil
}

func (r *TableStats) TotalLength() int {
	return tableStatsLength[r.version]
}

func (r *TableStats) TableID() uint8 {
	return r.tableID
}

// Name is absent since OF1.3.
func (r *TableStats) Name() string {
	return r.name
}

// Wildcards is absent since OF1.3. It is 32 bits wide before OF1.2.
func (r *TableStats) Wildcards() uint64 {
	return r.wildcards
}

// Match exists in OF1.1 (32 bits) and OF1.2 (64 bits).
func (r *TableStats) Match() uint64 {
	return r.match
}

// Instructions exists in OF1.1 and OF1.2.
func (r *TableStats) Instructions() uint32 {
	return r.instructions
}

// WriteActions exists in OF1.1 and OF1.2.
func (r *TableStats) WriteActions() uint32 {
	return r.writeActions
}

// ApplyActions exists in OF1.1 and OF1.2.
func (r *TableStats) ApplyActions() uint32 {
	return r.applyActions
}

// WriteSetfields exists in OF1.2 only.
func (r *TableStats) WriteSetfields() uint64 {
	return r.writeSetfields
}

// ApplySetfields exists in OF1.2 only.
func (r *TableStats) ApplySetfields() uint64 {
	return r.applySetfields
}

// MetadataMatch exists in OF1.2 only.
func (r *TableStats) MetadataMatch() uint64 {
	return r.metadataMatch
}

// MetadataWrite exists in OF1.2 only.
func (r *TableStats) MetadataWrite() uint64 {
	return r.metadataWrite
}

// Config exists in OF1.1 and OF1.2.
func (r *TableStats) Config() uint32 {
	return r.config
}

// MaxEntries is absent since OF1.3.
func (r *TableStats) MaxEntries() uint32 {
	return r.maxEntries
}

func (r *TableStats) ActiveCount() uint32 {
	return r.activeCount
}

func (r *TableStats) LookupCount() uint64 {
	return r.lookupCount
}

func (r *TableStats) MatchedCount() uint64 {
	return r.matchedCount
}

type MutableTableStats struct {
	TableStats
	mutable
}

func NewMutableTableStats(pv openflow.Version) *MutableTableStats {
	return &MutableTableStats{TableStats: TableStats{version: pv}}
}

func (r *MutableTableStats) check(min, max openflow.Version, what string) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	return openflow.VerRange(r.version, min, max, what)
}

func (r *MutableTableStats) SetTableID(id uint8) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.tableID = id

	return nil
}

func (r *MutableTableStats) SetName(name string) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if len(name) > tableNameLen-1 {
		return openflow.IllegalArgument("table name is longer than %v bytes", tableNameLen-1)
	}
	if err := openflow.VerRange(r.version, openflow.OF10_VERSION, openflow.OF12_VERSION, "table name"); err != nil {
		return err
	}
	r.name = name

	return nil
}

func (r *MutableTableStats) SetWildcards(v uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if r.version < openflow.OF12_VERSION && v > math.MaxUint32 {
		return openflow.OutOfRange("table wildcards", v, math.MaxUint32)
	}
	if err := openflow.VerRange(r.version, openflow.OF10_VERSION, openflow.OF12_VERSION, "table wildcards"); err != nil {
		return err
	}
	r.wildcards = v

	return nil
}

func (r *MutableTableStats) SetMatch(v uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if r.version < openflow.OF12_VERSION && v > math.MaxUint32 {
		return openflow.OutOfRange("table match", v, math.MaxUint32)
	}
	if err := openflow.VerRange(r.version, openflow.OF11_VERSION, openflow.OF12_VERSION, "table match"); err != nil {
		return err
	}
	r.match = v

	return nil
}

func (r *MutableTableStats) SetInstructions(v uint32) error {
	if err := r.check(openflow.OF11_VERSION, openflow.OF12_VERSION, "table instructions"); err != nil {
		return err
	}
	r.instructions = v

	return nil
}

func (r *MutableTableStats) SetWriteActions(v uint32) error {
	if err := r.check(openflow.OF11_VERSION, openflow.OF12_VERSION, "table write actions"); err != nil {
		return err
	}
	r.writeActions = v

	return nil
}

func (r *MutableTableStats) SetApplyActions(v uint32) error {
	if err := r.check(openflow.OF11_VERSION, openflow.OF12_VERSION, "table apply actions"); err != nil {
		return err
	}
	r.applyActions = v

	return nil
}

func (r *MutableTableStats) SetWriteSetfields(v uint64) error {
	if err := r.check(openflow.OF12_VERSION, openflow.OF12_VERSION, "table write setfields"); err != nil {
		return err
	}
	r.writeSetfields = v

	return nil
}

func (r *MutableTableStats) SetApplySetfields(v uint64) error {
	if err := r.check(openflow.OF12_VERSION, openflow.OF12_VERSION, "table apply setfields"); err != nil {
		return err
	}
	r.applySetfields = v

	return nil
}

func (r *MutableTableStats) SetMetadataMatch(v uint64) error {
	if err := r.check(openflow.OF12_VERSION, openflow.OF12_VERSION, "table metadata match"); err != nil {
		return err
	}
	r.metadataMatch = v

	return nil
}

func (r *MutableTableStats) SetMetadataWrite(v uint64) error {
	if err := r.check(openflow.OF12_VERSION, openflow.OF12_VERSION, "table metadata write"); err != nil {
		return err
	}
	r.metadataWrite = v

	return nil
}

func (r *MutableTableStats) SetConfig(v uint32) error {
	if err := r.check(openflow.OF11_VERSION, openflow.OF12_VERSION, "table config"); err != nil {
		return err
	}
	r.config = v

	return nil
}

func (r *MutableTableStats) SetMaxEntries(v uint32) error {
	if err := r.check(openflow.OF10_VERSION, openflow.OF12_VERSION, "table max entries"); err != nil {
		return err
	}
	r.maxEntries = v

	return nil
}

func (r *MutableTableStats) SetActiveCount(v uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.activeCount = v

	return nil
}

func (r *MutableTableStats) SetLookupCount(v uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.lookupCount = v

	return nil
}

func (r *MutableTableStats) SetMatchedCount(v uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.matchedCount = v

	return nil
}

func (r *MutableTableStats) ToImmutable() (*TableStats, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.TableStats

	return &v, nil
}

func (r *MutableTableStats) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeTableStats(v *TableStats, w *openflow.PacketWriter) error {
	w.WriteU8(v.tableID)

	switch v.version {
	case openflow.OF10_VERSION:
		// 3 bytes padding
		w.WriteZeros(3)
		if err := w.WriteString(v.name, tableNameLen); err != nil {
			return err
		}
		w.WriteU32(uint32(v.wildcards))
		w.WriteU32(v.maxEntries)
	case openflow.OF11_VERSION:
		// 7 bytes padding
		w.WriteZeros(7)
		if err := w.WriteString(v.name, tableNameLen); err != nil {
			return err
		}
		w.WriteU32(uint32(v.wildcards))
		w.WriteU32(uint32(v.match))
		w.WriteU32(v.instructions)
		w.WriteU32(v.writeActions)
		w.WriteU32(v.applyActions)
		w.WriteU32(v.config)
		w.WriteU32(v.maxEntries)
	case openflow.OF12_VERSION:
		// 7 bytes padding
		w.WriteZeros(7)
		if err := w.WriteString(v.name, tableNameLen); err != nil {
			return err
		}
		w.WriteU64(v.match)
		w.WriteU64(v.wildcards)
		w.WriteU32(v.writeActions)
		w.WriteU32(v.applyActions)
		w.WriteU64(v.writeSetfields)
		w.WriteU64(v.applySetfields)
		w.WriteU64(v.metadataMatch)
		w.WriteU64(v.metadataWrite)
		w.WriteU32(v.instructions)
		w.WriteU32(v.config)
		w.WriteU32(v.maxEntries)
	default:
		// 3 bytes padding
		w.WriteZeros(3)
	}
	w.WriteU32(v.activeCount)
	w.WriteU64(v.lookupCount)
	w.WriteU64(v.matchedCount)

	return nil
}

func parseTableStats(r *openflow.PacketReader, pv openflow.Version) (*TableStats, error) {
	body, err := r.Bounded(tableStatsLength[pv])
	if err != nil {
		return nil, err
	}

	v := NewMutableTableStats(pv)
	v.tableID = body.ReadU8()
	switch pv {
	case openflow.OF10_VERSION:
		body.Skip(3)
		v.name = body.ReadString(tableNameLen)
		v.wildcards = uint64(body.ReadU32())
		v.maxEntries = body.ReadU32()
	case openflow.OF11_VERSION:
		body.Skip(7)
		v.name = body.ReadString(tableNameLen)
		v.wildcards = uint64(body.ReadU32())
		v.match = uint64(body.ReadU32())
		v.instructions = body.ReadU32()
		v.writeActions = body.ReadU32()
		v.applyActions = body.ReadU32()
		v.config = body.ReadU32()
		v.maxEntries = body.ReadU32()
	case openflow.OF12_VERSION:
		body.Skip(7)
		v.name = body.ReadString(tableNameLen)
		v.match = body.ReadU64()
		v.wildcards = body.ReadU64()
		v.writeActions = body.ReadU32()
		v.applyActions = body.ReadU32()
		v.writeSetfields = body.ReadU64()
		v.applySetfields = body.ReadU64()
		v.metadataMatch = body.ReadU64()
		v.metadataWrite = body.ReadU64()
		v.instructions = body.ReadU32()
		v.config = body.ReadU32()
		v.maxEntries = body.ReadU32()
	default:
		body.Skip(3)
	}
	v.activeCount = body.ReadU32()
	v.lookupCount = body.ReadU64()
	v.matchedCount = body.ReadU64()
	if err := body.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse table stats")
	}

	return v.ToImmutable()
}
