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
	"sync"

	"github.com/hashicorp/golang-lru"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("openflow")

	unknownMutex   sync.Mutex
	unknownReports *lru.Cache
)

func init() {
	if err := resetUnknownReports(defaultUnknownCacheLen); err != nil {
		panic(err)
	}
}

func resetUnknownReports(size int) error {
	cache, err := lru.New(size)
	if err != nil {
		return errors.Wrap(err, "failed to create the unknown type cache")
	}

	unknownMutex.Lock()
	defer unknownMutex.Unlock()
	unknownReports = cache

	return nil
}

// ReportUnknown logs an unknown extension code. Each distinct (kind, key)
// pair is reported once while it stays in the cache, so a switch flooding the
// same unknown TLV does not flood the log. It returns true if the pair was
// reported by this call.
func ReportUnknown(kind string, key interface{}) bool {
	unknownMutex.Lock()
	cache := unknownReports
	unknownMutex.Unlock()

	k := fmt.Sprintf("%v/%v", kind, key)
	if found, _ := cache.ContainsOrAdd(k, struct{}{}); found {
		return false
	}
	logger.Warningf("unknown %v: %v", kind, key)

	return true
}
