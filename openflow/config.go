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
	"sync/atomic"

	"github.com/dlintw/goconf"
	"github.com/pkg/errors"
)

const (
	configSection          = "openflow"
	defaultUnknownCacheLen = 1024
)

var strictParsing atomic.Bool

// SetStrictParsing selects how decoders react to a malformed array element or
// an unknown vendor extension. In strict mode the whole body is rejected.
// Otherwise the fault is logged, the array is flagged incomplete and unknown
// extensions are kept as opaque raw values.
func SetStrictParsing(strict bool) {
	strictParsing.Store(strict)
}

func StrictParsing() bool {
	return strictParsing.Load()
}

// ReadConfig loads the [openflow] section of a configuration file.
//
//	[openflow]
//	strict_parsing = false
//	unknown_report_cache = 1024
func ReadConfig(path string) error {
	conf, err := goconf.ReadConfigFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read the config file")
	}

	return ApplyConfig(conf)
}

// ApplyConfig applies the options found in conf. Missing options keep their
// current values.
func ApplyConfig(conf *goconf.ConfigFile) error {
	if conf == nil {
		return NullArgument("config")
	}
	if !conf.HasSection(configSection) {
		return nil
	}

	if conf.HasOption(configSection, "strict_parsing") {
		strict, err := conf.GetBool(configSection, "strict_parsing")
		if err != nil {
			return errors.Wrap(err, "invalid strict_parsing config")
		}
		SetStrictParsing(strict)
	}

	if conf.HasOption(configSection, "unknown_report_cache") {
		size, err := conf.GetInt(configSection, "unknown_report_cache")
		if err != nil || size <= 0 {
			return errors.New("invalid unknown_report_cache config")
		}
		if err := resetUnknownReports(size); err != nil {
			return err
		}
	}
	logger.Debugf("openflow config applied: strict_parsing=%v", StrictParsing())

	return nil
}
