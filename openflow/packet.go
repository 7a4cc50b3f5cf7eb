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
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// PacketReader reads big-endian fields from a byte buffer. Positions are
// absolute offsets into the buffer and reads never go past the target index,
// even if the buffer holds more bytes. The first overrun is recorded and every
// later read returns a zero value; check Err() once after a group of reads.
type PacketReader struct {
	buf    []byte
	pos    int
	target int
	err    error
}

func NewPacketReader(buf []byte) *PacketReader {
	return &PacketReader{buf: buf, target: len(buf)}
}

func (r *PacketReader) Position() int {
	return r.pos
}

// TargetIndex returns the absolute offset at which the structure being read
// must end.
func (r *PacketReader) TargetIndex() int {
	return r.target
}

func (r *PacketReader) Remaining() int {
	if r.pos >= r.target {
		return 0
	}
	return r.target - r.pos
}

func (r *PacketReader) Err() error {
	return r.err
}

func (r *PacketReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.err = errors.Wrapf(ErrOverrun, "need %v bytes at offset %v, target index is %v", n, r.pos, r.target)
		r.pos = r.target
		return nil
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n

	return v
}

func (r *PacketReader) ReadU8() uint8 {
	v := r.take(1)
	if v == nil {
		return 0
	}
	return v[0]
}

func (r *PacketReader) ReadU16() uint16 {
	v := r.take(2)
	if v == nil {
		return 0
	}
	return binary.BigEndian.Uint16(v)
}

func (r *PacketReader) ReadU32() uint32 {
	v := r.take(4)
	if v == nil {
		return 0
	}
	return binary.BigEndian.Uint32(v)
}

func (r *PacketReader) ReadU64() uint64 {
	v := r.take(8)
	if v == nil {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

// ReadBytes returns a copy of the next n bytes.
func (r *PacketReader) ReadBytes(n int) []byte {
	v := r.take(n)
	if v == nil {
		return nil
	}
	c := make([]byte, n)
	copy(c, v)

	return c
}

// ReadString reads a NUL padded string field of the given width.
func (r *PacketReader) ReadString(width int) string {
	v := r.take(width)
	if v == nil {
		return ""
	}
	if i := bytes.IndexByte(v, 0); i >= 0 {
		v = v[:i]
	}

	return string(v)
}

// Skip advances over n padding bytes without inspecting them.
func (r *PacketReader) Skip(n int) {
	r.take(n)
}

// PeekU16 returns the big-endian u16 at offset bytes past the current
// position without consuming anything.
func (r *PacketReader) PeekU16(offset int) (uint16, error) {
	if r.err != nil {
		return 0, r.err
	}
	if offset < 0 || offset+2 > r.Remaining() {
		return 0, errors.Wrapf(ErrOverrun, "cannot peek 2 bytes at offset %v, target index is %v", r.pos+offset, r.target)
	}

	return binary.BigEndian.Uint16(r.buf[r.pos+offset:]), nil
}

// Consumed returns the bytes between two absolute offsets that have
// already been read.
func (r *PacketReader) Consumed(from, to int) []byte {
	if from < 0 || to > r.pos || from > to {
		return nil
	}
	return r.buf[from:to]
}

// Bounded returns a reader over the next length bytes and advances r past
// them. It fails if length overstates what r can still provide.
func (r *PacketReader) Bounded(length int) (*PacketReader, error) {
	if r.err != nil {
		return nil, r.err
	}
	if length < 0 || length > r.Remaining() {
		return nil, errors.Wrapf(ErrOverrun, "structure at offset %v declares %v bytes but only %v remain", r.pos, length, r.Remaining())
	}
	child := &PacketReader{buf: r.buf, pos: r.pos, target: r.pos + length}
	r.pos += length

	return child, nil
}

// PacketWriter appends big-endian fields to a growing buffer.
type PacketWriter struct {
	buf []byte
}

func NewPacketWriter() *PacketWriter {
	return &PacketWriter{buf: make([]byte, 0, 256)}
}

func (r *PacketWriter) Position() int {
	return len(r.buf)
}

func (r *PacketWriter) Bytes() []byte {
	return r.buf
}

func (r *PacketWriter) WriteU8(v uint8) {
	r.buf = append(r.buf, v)
}

func (r *PacketWriter) WriteU16(v uint16) {
	r.buf = binary.BigEndian.AppendUint16(r.buf, v)
}

func (r *PacketWriter) WriteU32(v uint32) {
	r.buf = binary.BigEndian.AppendUint32(r.buf, v)
}

func (r *PacketWriter) WriteU64(v uint64) {
	r.buf = binary.BigEndian.AppendUint64(r.buf, v)
}

func (r *PacketWriter) WriteBytes(v []byte) {
	r.buf = append(r.buf, v...)
}

func (r *PacketWriter) WriteZeros(n int) {
	for i := 0; i < n; i++ {
		r.buf = append(r.buf, 0)
	}
}

// WriteString writes s as a NUL padded field of the given width. At least
// one trailing NUL is always written.
func (r *PacketWriter) WriteString(s string, width int) error {
	if len(s) > width-1 {
		return IllegalArgument("string %q is longer than %v bytes", s, width-1)
	}
	r.buf = append(r.buf, s...)
	r.WriteZeros(width - len(s))

	return nil
}

// PutU16At overwrites the u16 at an absolute offset that was already written.
func (r *PacketWriter) PutU16At(offset int, v uint16) {
	binary.BigEndian.PutUint16(r.buf[offset:offset+2], v)
}

// Pad8 returns the number of zero bytes needed to align n to 8 bytes.
func Pad8(n int) int {
	return (8 - n%8) % 8
}
