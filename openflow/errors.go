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
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrIncompleteStructure = errors.New("incomplete structure")
	ErrMessageParse        = errors.New("message parse error")
	ErrVersionMismatch     = errors.New("version mismatch")
	ErrVersionNotSupported = errors.New("version not supported")
	ErrInvalidMutable      = errors.New("mutable instance is no longer writable")
	ErrIllegalArgument     = errors.New("illegal argument")
	ErrNullArgument        = errors.New("null argument")
	ErrOutOfRange          = errors.New("value out of range")
	ErrUnknownType         = errors.New("unknown type")
	ErrAlreadyRegistered   = errors.New("already registered")
	ErrNoCodec             = errors.New("no codec registered")
	ErrOverrun             = errors.New("read past the target index")
	ErrInvalidPacketLength = errors.New("invalid packet length")
)

// IncompleteStructureError reports a required field that has not been set.
type IncompleteStructureError struct {
	What string
}

func NewIncompleteStructure(what string) error {
	return &IncompleteStructureError{What: what}
}

func (r *IncompleteStructureError) Error() string {
	return fmt.Sprintf("incomplete structure: %v is not set", r.What)
}

func (r *IncompleteStructureError) Is(target error) bool {
	return target == ErrIncompleteStructure
}

// MessageParseError wraps a decoding fault with the absolute offset at which
// the faulty structure started.
type MessageParseError struct {
	Offset int
	Err    error
}

// NewMessageParseError wraps err unless it is already a MessageParseError.
func NewMessageParseError(offset int, err error) error {
	if err == nil {
		return nil
	}
	var v *MessageParseError
	if errors.As(err, &v) {
		return err
	}

	return &MessageParseError{Offset: offset, Err: err}
}

func (r *MessageParseError) Error() string {
	return fmt.Sprintf("failed to parse message at offset %v: %v", r.Offset, r.Err)
}

func (r *MessageParseError) Is(target error) bool {
	return target == ErrMessageParse
}

func (r *MessageParseError) Cause() error {
	return r.Err
}

func (r *MessageParseError) Unwrap() error {
	return r.Err
}

// OutOfRange returns ErrOutOfRange describing a value that exceeds max.
func OutOfRange(what string, value, max uint64) error {
	return errors.Wrapf(ErrOutOfRange, "%v: %v exceeds maximum %v", what, value, max)
}

func NullArgument(what string) error {
	return errors.Wrapf(ErrNullArgument, "%v is nil", what)
}

func IllegalArgument(format string, args ...interface{}) error {
	return errors.Wrapf(ErrIllegalArgument, format, args...)
}
