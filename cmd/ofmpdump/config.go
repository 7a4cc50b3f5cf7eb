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

package main

import (
	"github.com/dlintw/goconf"
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
)

// Config holds the [default] section of the configuration file. The
// [openflow] section is handed to the codec as is.
//
//	[default]
//	log_level = info
//	syslog = false
//	nicira = true
type Config struct {
	LogLevel  string
	UseSyslog bool
	Nicira    bool
}

func NewConfig() *Config {
	return &Config{
		LogLevel: defaultLogLevel.String(),
	}
}

// Read loads path. An empty path keeps the defaults.
func (c *Config) Read(path string) error {
	if path == "" {
		return nil
	}

	conf, err := goconf.ReadConfigFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read the config file")
	}
	if err := c.readDefaultConfig(conf); err != nil {
		return err
	}

	return openflow.ApplyConfig(conf)
}

func (c *Config) readDefaultConfig(conf *goconf.ConfigFile) error {
	var err error

	if conf.HasOption("default", "log_level") {
		c.LogLevel, err = conf.GetString("default", "log_level")
		if err != nil || len(c.LogLevel) == 0 {
			return errors.New("invalid log_level config")
		}
	}
	if conf.HasOption("default", "syslog") {
		c.UseSyslog, err = conf.GetBool("default", "syslog")
		if err != nil {
			return errors.Wrap(err, "invalid syslog config")
		}
	}
	if conf.HasOption("default", "nicira") {
		c.Nicira, err = conf.GetBool("default", "nicira")
		if err != nil {
			return errors.Wrap(err, "invalid nicira config")
		}
	}

	return nil
}
