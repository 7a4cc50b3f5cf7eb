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
	tableFeaturesFixedLen = 64
	tableFeaturePropHdr   = 4
	headerIDLength        = 4
)

// Table feature property types.
const (
	OFPTFPT_INSTRUCTIONS        = 0
	OFPTFPT_INSTRUCTIONS_MISS   = 1
	OFPTFPT_NEXT_TABLES         = 2
	OFPTFPT_NEXT_TABLES_MISS    = 3
	OFPTFPT_WRITE_ACTIONS       = 4
	OFPTFPT_WRITE_ACTIONS_MISS  = 5
	OFPTFPT_APPLY_ACTIONS       = 6
	OFPTFPT_APPLY_ACTIONS_MISS  = 7
	OFPTFPT_MATCH               = 8
	OFPTFPT_WILDCARDS           = 10
	OFPTFPT_WRITE_SETFIELD      = 12
	OFPTFPT_WRITE_SETFIELD_MISS = 13
	OFPTFPT_APPLY_SETFIELD      = 14
	OFPTFPT_APPLY_SETFIELD_MISS = 15
	OFPTFPT_EXPERIMENTER        = 0xfffe
	OFPTFPT_EXPERIMENTER_MISS   = 0xffff
)

// TableFeatureProp is one property of a table features entry. Data excludes
// the 4-byte header and the trailing alignment padding.
type TableFeatureProp struct {
	Type uint16
	Data []byte
}

// NewTableIDsProp builds a next-tables property.
func NewTableIDsProp(t uint16, ids []uint8) TableFeatureProp {
	return TableFeatureProp{Type: t, Data: append([]byte{}, ids...)}
}

// TableIDs interprets the property data as a list of table IDs.
func (r TableFeatureProp) TableIDs() []uint8 {
	return append([]uint8{}, r.Data...)
}

// NewHeaderIDsProp builds an instructions or actions property whose data is
// a list of 4-byte type/length headers.
func NewHeaderIDsProp(t uint16, codes []uint16) TableFeatureProp {
	w := openflow.NewPacketWriter()
	for _, c := range codes {
		w.WriteU16(c)
		w.WriteU16(headerIDLength)
	}

	return TableFeatureProp{Type: t, Data: w.Bytes()}
}

// HeaderIDs returns the type codes of an instructions or actions property.
func (r TableFeatureProp) HeaderIDs() ([]uint16, error) {
	codes := make([]uint16, 0)
	reader := openflow.NewPacketReader(r.Data)
	for reader.Remaining() > 0 {
		code := reader.ReadU16()
		length := int(reader.ReadU16())
		if length < headerIDLength {
			return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "header ID %v has length %v", code, length)
		}
		reader.Skip(length - headerIDLength)
		if err := reader.Err(); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}

	return codes, nil
}

// NewOXMIDsProp builds a match, wildcards or set-field property from OXM
// headers.
func NewOXMIDsProp(t uint16, headers []uint32) TableFeatureProp {
	w := openflow.NewPacketWriter()
	for _, h := range headers {
		w.WriteU32(h)
	}

	return TableFeatureProp{Type: t, Data: w.Bytes()}
}

// OXMIDs returns the OXM headers of a match, wildcards or set-field property.
func (r TableFeatureProp) OXMIDs() ([]uint32, error) {
	if len(r.Data)%4 != 0 {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "OXM ID list of %v bytes", len(r.Data))
	}
	headers := make([]uint32, 0, len(r.Data)/4)
	reader := openflow.NewPacketReader(r.Data)
	for reader.Remaining() > 0 {
		headers = append(headers, reader.ReadU32())
	}

	return headers, nil
}

func (r TableFeatureProp) clone() TableFeatureProp {
	return TableFeatureProp{Type: r.Type, Data: append([]byte{}, r.Data...)}
}

func (r TableFeatureProp) length() int {
	n := tableFeaturePropHdr + len(r.Data)
	return n + openflow.Pad8(n)
}

func (r TableFeatureProp) encode(w *openflow.PacketWriter) {
	n := tableFeaturePropHdr + len(r.Data)
	w.WriteU16(r.Type)
	w.WriteU16(uint16(n))
	w.WriteBytes(r.Data)
	w.WriteZeros(openflow.Pad8(n))
}

func decodeTableFeatureProp(r *openflow.PacketReader) (TableFeatureProp, error) {
	length, err := r.PeekU16(2)
	if err != nil {
		return TableFeatureProp{}, err
	}
	if length < tableFeaturePropHdr {
		return TableFeatureProp{}, errors.Wrapf(openflow.ErrInvalidPacketLength, "table feature property length %v", length)
	}
	body, err := r.Bounded(int(length))
	if err != nil {
		return TableFeatureProp{}, err
	}

	v := TableFeatureProp{Type: body.ReadU16()}
	body.Skip(2)
	v.Data = body.ReadBytes(body.Remaining())
	if err := body.Err(); err != nil {
		return TableFeatureProp{}, errors.Wrap(err, "failed to parse table feature property")
	}
	// Padding is not counted in the property length.
	r.Skip(openflow.Pad8(int(length)))
	if err := r.Err(); err != nil {
		return TableFeatureProp{}, errors.Wrap(err, "failed to skip table feature property padding")
	}

	return v, nil
}

// TableFeatures describes one flow table in a TABLE_FEATURES request or
// reply.
type TableFeatures struct {
	version       openflow.Version
	tableID       uint8
	name          string
	metadataMatch uint64
	metadataWrite uint64
	config        uint32
	maxEntries    uint32
	props         []TableFeatureProp
	length        int
}

func (r *TableFeatures) view() *TableFeatures {
	return r
}

func (r *TableFeatures) Version() openflow.Version {
	return r.version
}

func (r *TableFeatures) Validate() error {
	return nil
}

func (r *TableFeatures) TotalLength() int {
	return r.length
}

func (r *TableFeatures) TableID() uint8 {
	return r.tableID
}

func (r *TableFeatures) Name() string {
	return r.name
}

func (r *TableFeatures) MetadataMatch() uint64 {
	return r.metadataMatch
}

func (r *TableFeatures) MetadataWrite() uint64 {
	return r.metadataWrite
}

func (r *TableFeatures) Config() uint32 {
	return r.config
}

func (r *TableFeatures) MaxEntries() uint32 {
	return r.maxEntries
}

func (r *TableFeatures) Properties() []TableFeatureProp {
	v := make([]TableFeatureProp, len(r.props))
	for i, p := range r.props {
		v[i] = p.clone()
	}

	return v
}

func computeTableFeaturesLength(props []TableFeatureProp) (int, error) {
	n := tableFeaturesFixedLen
	for _, p := range props {
		n += p.length()
	}

	return checkLength("table features", n)
}

type MutableTableFeatures struct {
	TableFeatures
	mutable
}

func NewMutableTableFeatures(pv openflow.Version) *MutableTableFeatures {
	return &MutableTableFeatures{
		TableFeatures: TableFeatures{version: pv, props: make([]TableFeatureProp, 0), length: tableFeaturesFixedLen},
	}
}

func (r *MutableTableFeatures) SetTableID(id uint8) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.tableID = id

	return nil
}

func (r *MutableTableFeatures) SetName(name string) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if len(name) > tableNameLen-1 {
		return openflow.IllegalArgument("table name is longer than %v bytes", tableNameLen-1)
	}
	r.name = name

	return nil
}

func (r *MutableTableFeatures) SetMetadataMatch(mask uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.metadataMatch = mask

	return nil
}

func (r *MutableTableFeatures) SetMetadataWrite(mask uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.metadataWrite = mask

	return nil
}

func (r *MutableTableFeatures) SetConfig(config uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.config = config

	return nil
}

func (r *MutableTableFeatures) SetMaxEntries(max uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.maxEntries = max

	return nil
}

func (r *MutableTableFeatures) SetProperties(props []TableFeatureProp) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if props == nil {
		return openflow.NullArgument("table feature properties")
	}
	for _, p := range props {
		if tableFeaturePropHdr+len(p.Data) > maxStructLength {
			return openflow.OutOfRange("table feature property length", uint64(tableFeaturePropHdr+len(p.Data)), maxStructLength)
		}
	}
	length, err := computeTableFeaturesLength(props)
	if err != nil {
		return err
	}
	r.props = make([]TableFeatureProp, len(props))
	for i, p := range props {
		r.props[i] = p.clone()
	}
	r.length = length

	return nil
}

func (r *MutableTableFeatures) ToImmutable() (*TableFeatures, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.TableFeatures
	v.props = r.Properties()

	return &v, nil
}

func (r *MutableTableFeatures) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeTableFeatures(v *TableFeatures, w *openflow.PacketWriter) error {
	w.WriteU16(uint16(v.length))
	w.WriteU8(v.tableID)
	// 5 bytes padding
	w.WriteZeros(5)
	if err := w.WriteString(v.name, tableNameLen); err != nil {
		return err
	}
	w.WriteU64(v.metadataMatch)
	w.WriteU64(v.metadataWrite)
	w.WriteU32(v.config)
	w.WriteU32(v.maxEntries)
	for _, p := range v.props {
		p.encode(w)
	}

	return nil
}

func parseTableFeatures(r *openflow.PacketReader, pv openflow.Version) (*TableFeatures, error) {
	length, err := r.PeekU16(0)
	if err != nil {
		return nil, err
	}
	if int(length) < tableFeaturesFixedLen {
		return nil, errors.Wrapf(openflow.ErrInvalidPacketLength, "table features length %v", length)
	}
	body, err := r.Bounded(int(length))
	if err != nil {
		return nil, err
	}

	v := NewMutableTableFeatures(pv)
	body.Skip(2)
	v.tableID = body.ReadU8()
	body.Skip(5)
	v.name = body.ReadString(tableNameLen)
	v.metadataMatch = body.ReadU64()
	v.metadataWrite = body.ReadU64()
	v.config = body.ReadU32()
	v.maxEntries = body.ReadU32()
	if err := body.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse table features")
	}
	for body.Remaining() > 0 {
		p, err := decodeTableFeatureProp(body)
		if err != nil {
			return nil, err
		}
		v.props = append(v.props, p)
	}
	if v.length, err = computeTableFeaturesLength(v.props); err != nil {
		return nil, err
	}

	return v.ToImmutable()
}
