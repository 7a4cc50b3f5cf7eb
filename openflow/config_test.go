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
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "ofmp.conf")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestReadConfig(t *testing.T) {
	defer SetStrictParsing(false)

	path := writeConfig(t, "[openflow]\nstrict_parsing = true\nunknown_report_cache = 16\n")
	if err := ReadConfig(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !StrictParsing() {
		t.Fatalf("expected strict parsing to be enabled")
	}
}

func TestReadConfigInvalid(t *testing.T) {
	defer SetStrictParsing(false)

	path := writeConfig(t, "[openflow]\nunknown_report_cache = -1\n")
	if err := ReadConfig(path); err == nil {
		t.Fatalf("expected an error for a negative cache size")
	}
	if err := ReadConfig(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestReportUnknown(t *testing.T) {
	if !ReportUnknown("test action", 0xabcd) {
		t.Fatalf("expected the first report to be logged")
	}
	if ReportUnknown("test action", 0xabcd) {
		t.Fatalf("expected the second report to be suppressed")
	}
	if !ReportUnknown("test action", 0xabce) {
		t.Fatalf("expected a different key to be logged")
	}
}
