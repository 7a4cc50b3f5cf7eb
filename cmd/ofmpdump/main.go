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

// Command ofmpdump decodes an OpenFlow multipart body given in hex, prints the
// decoded structure and checks that encoding it again yields the same bytes.
//
//	ofmpdump -of 4 -type 4 00000001000000000000...
//	echo 'ffffffff 00000000' | ofmpdump -of 4 -type 4 -request
package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/davecgh/go-spew/spew"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
	"github.com/superkkt/ofmp/openflow/mp"
	"github.com/superkkt/ofmp/openflow/nicira"
)

const (
	programName     = "ofmpdump"
	programVersion  = "0.1.0"
	defaultLogLevel = logging.WARNING
)

var (
	logger      = logging.MustGetLogger("main")
	showVersion = flag.Bool("version", false, "Show program version and exit")
	configFile  = flag.String("config", "", "path of the configuration file")
	wireVersion = flag.Uint("of", uint(openflow.OF13_VERSION), "OpenFlow wire version (1 for 1.0 ... 4 for 1.3)")
	typeCode    = flag.Uint("type", 0, "multipart type code")
	isRequest   = flag.Bool("request", false, "decode a request body instead of a reply")
	strict      = flag.Bool("strict", false, "reject malformed elements and unknown extensions")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Printf("Version: %v\n", programVersion)
		os.Exit(0)
	}

	conf := NewConfig()
	if err := conf.Read(*configFile); err != nil {
		logger.Fatalf("failed to read configurations: %v", err)
	}
	if err := initLog(conf.UseSyslog, getLogLevel(conf.LogLevel)); err != nil {
		logger.Fatalf("failed to init log: %v", err)
	}
	if *strict {
		openflow.SetStrictParsing(true)
	}

	pv := openflow.Version(*wireVersion)
	if *wireVersion > 0xff || !pv.Supported() {
		logger.Fatalf("unsupported OpenFlow version: %v", *wireVersion)
	}
	if *typeCode > 0xffff {
		logger.Fatalf("invalid multipart type: %v", *typeCode)
	}
	if err := run(pv, uint16(*typeCode), *isRequest, conf.Nicira, flag.Args(), os.Stdin, os.Stdout); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

// run decodes the body spelled by args, or by in if args is empty, and writes
// the report to out. The Nicira codecs stay installed only while it runs.
func run(pv openflow.Version, code uint16, request, withNicira bool, args []string, in io.Reader, out io.Writer) error {
	if withNicira && pv >= openflow.OF12_VERSION {
		registrator, err := nicira.NewRegistrator(pv)
		if err != nil {
			return errors.Wrap(err, "failed to create the Nicira registrator")
		}
		if err := registrator.RegisterExtensions(); err != nil {
			return errors.Wrap(err, "failed to register Nicira extensions")
		}
		defer registrator.Close()
	}

	packet, err := readInput(args, in)
	if err != nil {
		return errors.Wrap(err, "invalid input")
	}
	report, err := dump(pv, code, request, packet)
	if err != nil {
		return errors.Wrap(err, "failed to decode")
	}
	if _, err := io.WriteString(out, report); err != nil {
		return errors.Wrap(err, "failed to write the report")
	}

	return nil
}

func initLog(useSyslog bool, level logging.Level) error {
	var backend logging.Backend = logging.NewLogBackend(os.Stderr, "", 0)
	if useSyslog {
		b, err := newSyslog(programName)
		if err != nil {
			return err
		}
		backend = b
	}
	backend = logging.NewBackendFormatter(backend, logging.MustStringFormatter(`%{level}: %{shortpkg}.%{shortfunc}: %{message}`))

	leveled := logging.AddModuleLevel(backend)
	// Set log level for all modules
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)

	return nil
}

func getLogLevel(level string) logging.Level {
	level = strings.ToUpper(level)
	ret, err := logging.LogLevel(level)
	if err != nil {
		logger.Infof("invalid log level=%v, defaulting to %v..", level, defaultLogLevel)
		return defaultLogLevel
	}

	return ret
}

// readInput returns the bytes spelled by the hex digits of args, or of in if
// args is empty. Whitespace between digits is ignored.
func readInput(args []string, in io.Reader) ([]byte, error) {
	text := strings.Join(args, "")
	if len(args) == 0 {
		var b strings.Builder
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			b.WriteString(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, errors.Wrap(err, "failed to read the input")
		}
		text = b.String()
	}
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	packet, err := hex.DecodeString(text)
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex string")
	}

	return packet, nil
}

type incompleter interface {
	Incomplete() bool
	ParseError() error
}

func dump(pv openflow.Version, code uint16, request bool, packet []byte) (string, error) {
	t, err := mp.DecodeType(code, pv)
	if err != nil {
		return "", err
	}
	parse, encode, direction := mp.ParseReplyBody, mp.EncodeReplyBody, "reply"
	if request {
		parse, encode, direction = mp.ParseRequestBody, mp.EncodeRequestBody, "request"
	}

	body, err := parse(t, openflow.NewPacketReader(packet), pv)
	if err != nil {
		return "", err
	}
	frozen, err := body.Freeze()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%v %v %v body: %v bytes\n", pv, t, direction, frozen.TotalLength())
	b.WriteString(spew.Sdump(frozen))
	if v, ok := frozen.(incompleter); ok && v.Incomplete() {
		fmt.Fprintf(&b, "incomplete: %v\n", v.ParseError())
	}

	w := openflow.NewPacketWriter()
	switch err := encode(frozen, w); {
	case err != nil:
		fmt.Fprintf(&b, "re-encode failed: %v\n", err)
	case bytes.Equal(w.Bytes(), packet):
		b.WriteString("re-encoded body is identical\n")
	default:
		fmt.Fprintf(&b, "re-encoded body differs: %x\n", w.Bytes())
	}

	return b.String(), nil
}
