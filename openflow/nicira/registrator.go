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

package nicira

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/action"
	"github.com/superkkt/ofmp/openflow/match"
)

var actionSubtypes = []uint16{
	NXAST_RESUBMIT,
	NXAST_SET_TUNNEL,
	NXAST_REG_MOVE,
	NXAST_REG_LOAD,
	NXAST_SET_TUNNEL64,
	NXAST_RESUBMIT_TABLE,
	NXAST_OUTPUT_REG,
}

// Registrator installs the Nicira codecs into the action and match field
// registries for one protocol version.
type Registrator struct {
	version openflow.Version

	mutex sync.Mutex
	// undo holds one unregister call per codec installed by this registrator.
	undo []func() bool
}

// NewRegistrator returns a registrator for pv. Nicira NXM fields travel inside
// OXM matches, so pv must be OpenFlow 1.2 or later.
func NewRegistrator(pv openflow.Version) (*Registrator, error) {
	if err := openflow.VerMin(pv, openflow.OF12_VERSION, "Nicira extensions"); err != nil {
		return nil, err
	}

	return &Registrator{version: pv}, nil
}

// RegisterExtensions installs every Nicira codec. If any key is already taken
// the codecs installed so far are removed again and the error is returned.
func (r *Registrator) RegisterExtensions() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.undo) > 0 {
		return errors.Wrap(openflow.ErrAlreadyRegistered, "Nicira extensions")
	}
	if err := r.register(); err != nil {
		r.unregister()
		return err
	}
	logger.Infof("registered %v Nicira codecs for %v", len(r.undo), r.version)

	return nil
}

func (r *Registrator) register() error {
	for _, subtype := range actionSubtypes {
		key := action.ActionKey{Version: r.version, Experimenter: NX_VENDOR_ID, Subtype: subtype}
		codec := actionCodec{subtype: subtype}
		if err := action.RegisterActionSerializer(key, codec); err != nil {
			return err
		}
		r.undo = append(r.undo, func() bool { return action.UnregisterActionSerializer(key) })
		if err := action.RegisterActionDeserializer(key, codec); err != nil {
			return err
		}
		r.undo = append(r.undo, func() bool { return action.UnregisterActionDeserializer(key) })
	}

	for id, def := range fieldDefs {
		key := match.FieldKey{Version: r.version, Class: id.Class(), Field: id.Field()}
		codec := fieldCodec{id: id, def: def}
		if err := match.RegisterFieldSerializer(key, codec); err != nil {
			return err
		}
		r.undo = append(r.undo, func() bool { return match.UnregisterFieldSerializer(key) })
		if err := match.RegisterFieldDeserializer(key, codec); err != nil {
			return err
		}
		r.undo = append(r.undo, func() bool { return match.UnregisterFieldDeserializer(key) })
	}

	return nil
}

func (r *Registrator) unregister() {
	for i := len(r.undo) - 1; i >= 0; i-- {
		if !r.undo[i]() {
			logger.Warningf("Nicira codec %v was already removed from the registry", i)
		}
	}
	r.undo = nil
}

// UnregisterExtensions removes every codec installed by RegisterExtensions.
// It is a no-op if nothing is installed.
func (r *Registrator) UnregisterExtensions() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.undo) == 0 {
		return
	}
	r.unregister()
	logger.Infof("unregistered Nicira codecs for %v", r.version)
}

// Close implements io.Closer.
func (r *Registrator) Close() error {
	r.UnregisterExtensions()
	return nil
}
