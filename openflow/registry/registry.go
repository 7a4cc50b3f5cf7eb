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

// Package registry provides the keyed codec table shared by every pluggable
// extension family: actions, match fields and experimenter multipart bodies.
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
)

// Registry maps keys to values. Writers copy the whole table under a lock and
// publish the new copy atomically, so Lookup never blocks. The zero value is
// an empty registry ready to use.
type Registry[K comparable, V any] struct {
	mutex sync.Mutex
	table atomic.Pointer[map[K]V]
}

func New[K comparable, V any]() *Registry[K, V] {
	return new(Registry[K, V])
}

func (r *Registry[K, V]) current() map[K]V {
	p := r.table.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Register adds value under key. It fails with openflow.ErrAlreadyRegistered if
// the key is taken.
func (r *Registry[K, V]) Register(key K, value V) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	old := r.current()
	if _, ok := old[key]; ok {
		return errors.Wrapf(openflow.ErrAlreadyRegistered, "key %+v", key)
	}

	table := make(map[K]V, len(old)+1)
	for k, v := range old {
		table[k] = v
	}
	table[key] = value
	r.table.Store(&table)

	return nil
}

// Unregister removes key and reports whether it was present. Removing a key
// that was never registered is a no-op.
func (r *Registry[K, V]) Unregister(key K) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	old := r.current()
	if _, ok := old[key]; !ok {
		return false
	}

	table := make(map[K]V, len(old))
	for k, v := range old {
		if k != key {
			table[k] = v
		}
	}
	r.table.Store(&table)

	return true
}

func (r *Registry[K, V]) Lookup(key K) (value V, ok bool) {
	value, ok = r.current()[key]
	return value, ok
}

func (r *Registry[K, V]) Len() int {
	return len(r.current())
}
