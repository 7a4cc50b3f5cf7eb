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
	"fmt"

	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/registry"
)

const (
	of10ExperimenterHdrLen = 4
	experimenterHdrLen     = 8
)

// ExperimenterPayload is a vendor body decoded by a registered codec.
type ExperimenterPayload interface {
	Experimenter() uint32
	// ExpType is always 0 for OF1.0 vendor bodies.
	ExpType() uint32
}

type ExperimenterKey struct {
	Version      openflow.Version
	Experimenter uint32
	ExpType      uint32
}

func (r ExperimenterKey) String() string {
	return fmt.Sprintf("%v experimenter=0x%08x exp_type=%v", r.Version, r.Experimenter, r.ExpType)
}

// ExperimenterCodec converts a vendor payload to and from the bytes following
// the experimenter header.
type ExperimenterCodec interface {
	EncodePayload(p ExperimenterPayload) ([]byte, error)
	DecodePayload(data []byte) (ExperimenterPayload, error)
}

var experimenterCodecs = registry.New[ExperimenterKey, ExperimenterCodec]()

func RegisterExperimenterCodec(key ExperimenterKey, c ExperimenterCodec) error {
	if c == nil {
		return openflow.NullArgument("experimenter codec")
	}
	if key.Version == openflow.OF10_VERSION && key.ExpType != 0 {
		return openflow.IllegalArgument("OF1.0 vendor bodies have no exp type: %v", key)
	}
	return experimenterCodecs.Register(key, c)
}

func UnregisterExperimenterCodec(key ExperimenterKey) bool {
	return experimenterCodecs.Unregister(key)
}

// Experimenter is a vendor multipart body. Data always holds the encoded
// vendor bytes; Payload is set when a codec is registered for the body.
type Experimenter struct {
	version      openflow.Version
	experimenter uint32
	expType      uint32
	data         []byte
	payload      ExperimenterPayload
}

func (r *Experimenter) view() *Experimenter {
	return r
}

func (r *Experimenter) Version() openflow.Version {
	return r.version
}

func (r *Experimenter) Validate() error {
	return nil
}

func (r *Experimenter) TotalLength() int {
	return r.headerLength() + len(r.data)
}

func (r *Experimenter) headerLength() int {
	if r.version == openflow.OF10_VERSION {
		return of10ExperimenterHdrLen
	}
	return experimenterHdrLen
}

func (r *Experimenter) Experimenter() uint32 {
	return r.experimenter
}

// ExpType returns 0 for OF1.0.
func (r *Experimenter) ExpType() uint32 {
	return r.expType
}

func (r *Experimenter) Data() []byte {
	return append([]byte{}, r.data...)
}

// Payload returns nil if no codec decoded the body.
func (r *Experimenter) Payload() ExperimenterPayload {
	return r.payload
}

func (r *Experimenter) key() ExperimenterKey {
	return ExperimenterKey{Version: r.version, Experimenter: r.experimenter, ExpType: r.expType}
}

type MutableExperimenter struct {
	Experimenter
	mutable
}

func NewMutableExperimenter(pv openflow.Version) *MutableExperimenter {
	return &MutableExperimenter{Experimenter: Experimenter{version: pv, data: make([]byte, 0)}}
}

func (r *MutableExperimenter) SetExperimenter(id uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.experimenter = id
	r.payload = nil

	return nil
}

func (r *MutableExperimenter) SetExpType(t uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.VerRange(r.version, openflow.OF11_VERSION, openflow.OF13_VERSION, "exp type"); err != nil {
		return err
	}
	r.expType = t
	r.payload = nil

	return nil
}

// SetData replaces the vendor bytes and drops any decoded payload.
func (r *MutableExperimenter) SetData(data []byte) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if data == nil {
		return openflow.NullArgument("experimenter data")
	}
	r.data = append([]byte{}, data...)
	r.payload = nil

	return nil
}

// SetPayload encodes p with its registered codec and takes the experimenter
// ID and exp type from p.
func (r *MutableExperimenter) SetPayload(p ExperimenterPayload) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if p == nil {
		return openflow.NullArgument("experimenter payload")
	}
	if r.version == openflow.OF10_VERSION && p.ExpType() != 0 {
		return openflow.VerMismatch(r.version, "exp type")
	}

	key := ExperimenterKey{Version: r.version, Experimenter: p.Experimenter(), ExpType: p.ExpType()}
	c, ok := experimenterCodecs.Lookup(key)
	if !ok {
		return errors.Wrapf(openflow.ErrNoCodec, "experimenter body (%v)", key)
	}
	data, err := c.EncodePayload(p)
	if err != nil {
		return errors.Wrapf(err, "failed to encode experimenter body (%v)", key)
	}
	r.experimenter = key.Experimenter
	r.expType = key.ExpType
	r.data = append([]byte{}, data...)
	r.payload = p

	return nil
}

func (r *MutableExperimenter) ToImmutable() (*Experimenter, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.Experimenter
	v.data = r.Data()

	return &v, nil
}

func (r *MutableExperimenter) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeExperimenter(b Body, w *openflow.PacketWriter) error {
	v, err := viewOf[Experimenter](b)
	if err != nil {
		return err
	}
	w.WriteU32(v.experimenter)
	if v.version != openflow.OF10_VERSION {
		w.WriteU32(v.expType)
	}
	w.WriteBytes(v.data)

	return nil
}

// parseExperimenter reads a vendor body up to the target index of r.
func parseExperimenter(r *openflow.PacketReader, pv openflow.Version) (*MutableExperimenter, error) {
	v := NewMutableExperimenter(pv)
	v.experimenter = r.ReadU32()
	if pv != openflow.OF10_VERSION {
		v.expType = r.ReadU32()
	}
	v.data = r.ReadBytes(r.Remaining())
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse experimenter body")
	}

	key := v.key()
	c, ok := experimenterCodecs.Lookup(key)
	if !ok {
		if openflow.StrictParsing() {
			return nil, errors.Wrapf(openflow.ErrUnknownType, "experimenter body (%v)", key)
		}
		openflow.ReportUnknown("experimenter body", key)
		return v, nil
	}
	p, err := c.DecodePayload(v.Data())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode experimenter body (%v)", key)
	}
	v.payload = p

	return v, nil
}
