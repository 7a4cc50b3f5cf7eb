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

// Body is the payload of a multipart request or reply.
type Body interface {
	Version() openflow.Version
	// Validate returns an IncompleteStructureError if a required field is
	// not set.
	Validate() error
	// TotalLength returns the encoded length of the body in bytes.
	TotalLength() int
}

// MutableBody is a body under construction. Freeze turns it into its
// read-only form exactly once; the mutable instance rejects every later
// change, and a second Freeze fails with openflow.ErrInvalidMutable.
type MutableBody interface {
	Body
	Writable() bool
	Freeze() (Body, error)
}

type mutable struct {
	frozen bool
}

func (r *mutable) Writable() bool {
	return !r.frozen
}

func (r *mutable) checkWritable() error {
	if r.frozen {
		return errors.WithStack(openflow.ErrInvalidMutable)
	}
	return nil
}

func (r *mutable) freeze() error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.frozen = true

	return nil
}

// maxStructLength is the largest value of a 16-bit length field.
const maxStructLength = 0xffff

// checkLength returns n if it fits a 16-bit length field.
func checkLength(what string, n int) (int, error) {
	if n > maxStructLength {
		return 0, openflow.OutOfRange(what+" length", uint64(n), maxStructLength)
	}
	return n, nil
}

// viewer is implemented by every read-only body type. Mutable types embed the
// read-only type, so they satisfy it too.
type viewer[T any] interface {
	view() *T
}

func viewOf[T any](b Body) (*T, error) {
	v, ok := b.(viewer[T])
	if !ok {
		var t T
		return nil, openflow.IllegalArgument("unexpected body %T for %T", b, &t)
	}

	return v.view(), nil
}

// Element is a structure that replies carry as a homogeneous array.
type Element interface {
	comparable
	Body
}

// Array is an ordered sequence of reply elements.
type Array[E Element] struct {
	version    openflow.Version
	elements   []E
	length     int
	incomplete bool
	cause      error
}

func (r *Array[E]) view() *Array[E] {
	return r
}

func (r *Array[E]) Version() openflow.Version {
	return r.version
}

func (r *Array[E]) Validate() error {
	for i, v := range r.elements {
		if err := v.Validate(); err != nil {
			return errors.Wrapf(err, "array element %v", i)
		}
	}

	return nil
}

func (r *Array[E]) TotalLength() int {
	return r.length
}

func (r *Array[E]) Len() int {
	return len(r.elements)
}

func (r *Array[E]) Elements() []E {
	v := make([]E, len(r.elements))
	copy(v, r.elements)

	return v
}

// Incomplete reports whether decoding stopped at a malformed element. The
// elements before it are kept and ParseError returns the cause.
func (r *Array[E]) Incomplete() bool {
	return r.incomplete
}

func (r *Array[E]) ParseError() error {
	return r.cause
}

type MutableArray[E Element] struct {
	Array[E]
	mutable
}

func NewMutableArray[E Element](pv openflow.Version) *MutableArray[E] {
	return &MutableArray[E]{
		Array: Array[E]{version: pv, elements: make([]E, 0)},
	}
}

// Add appends e, which must be bound to the same protocol version.
func (r *MutableArray[E]) Add(e E) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	var zero E
	if e == zero {
		return openflow.NullArgument("array element")
	}
	if e.Version() != r.version {
		return errors.Wrapf(openflow.ErrVersionMismatch, "%v element added to %v array", e.Version(), r.version)
	}
	r.elements = append(r.elements, e)
	r.length += e.TotalLength()

	return nil
}

func (r *MutableArray[E]) markIncomplete(cause error) {
	r.incomplete = true
	r.cause = cause
}

func (r *MutableArray[E]) ToImmutable() (*Array[E], error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.Array
	v.elements = r.Elements()

	return &v, nil
}

func (r *MutableArray[E]) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}
