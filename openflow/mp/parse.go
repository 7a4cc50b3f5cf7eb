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

// ParseRequestBody decodes a request body of type t from r, which must end at
// the body's target index. Every failure wraps a *openflow.MessageParseError.
func ParseRequestBody(t MultipartType, r *openflow.PacketReader, pv openflow.Version) (MutableBody, error) {
	return parseBody(t, r, pv, parseRequest)
}

// ParseReplyBody decodes a reply body of type t from r, which must end at the
// body's target index. Every failure wraps a *openflow.MessageParseError,
// except that a malformed array entry in lenient mode yields a partial array
// flagged incomplete.
func ParseReplyBody(t MultipartType, r *openflow.PacketReader, pv openflow.Version) (MutableBody, error) {
	return parseBody(t, r, pv, parseReply)
}

type bodyParser func(MultipartType, *openflow.PacketReader, openflow.Version) (MutableBody, error)

func parseBody(t MultipartType, r *openflow.PacketReader, pv openflow.Version, parse bodyParser) (MutableBody, error) {
	if r == nil {
		return nil, openflow.NullArgument("packet reader")
	}
	start := r.Position()
	if err := t.check(pv); err != nil {
		return nil, openflow.NewMessageParseError(start, err)
	}

	v, err := parse(t, r, pv)
	if err != nil {
		return nil, openflow.NewMessageParseError(start, errors.Wrapf(err, "failed to parse %v body", t))
	}
	// Singleton bodies may be followed by bytes a later revision appends.
	if n := r.Remaining(); n > 0 {
		logger.Debugf("skipping %v trailing bytes after %v body", n, t)
		r.Skip(n)
	}

	return v, nil
}

func parseRequest(t MultipartType, r *openflow.PacketReader, pv openflow.Version) (MutableBody, error) {
	switch t {
	case OFPMP_DESC, OFPMP_TABLE, OFPMP_GROUP_DESC, OFPMP_GROUP_FEATURES,
		OFPMP_METER_FEATURES, OFPMP_PORT_DESC:
		return nil, noBody(t, "request")
	case OFPMP_FLOW, OFPMP_AGGREGATE:
		return parseFlowRequest(r, pv, t)
	case OFPMP_PORT_STATS:
		return parsePortStatsRequest(r, pv)
	case OFPMP_QUEUE:
		return parseQueueStatsRequest(r, pv)
	case OFPMP_GROUP:
		return parseGroupRequest(r, pv)
	case OFPMP_METER, OFPMP_METER_CONFIG:
		return parseMeterRequest(r, pv, t)
	case OFPMP_TABLE_FEATURES:
		return parseArray(t, r, pv, parseTableFeatures)
	case OFPMP_EXPERIMENTER:
		return parseExperimenter(r, pv)
	}

	return nil, errors.Wrapf(openflow.ErrUnknownType, "multipart type %v", t)
}

func parseReply(t MultipartType, r *openflow.PacketReader, pv openflow.Version) (MutableBody, error) {
	switch t {
	case OFPMP_DESC:
		return parseDesc(r, pv)
	case OFPMP_FLOW:
		return parseArray(t, r, pv, parseFlowStats)
	case OFPMP_AGGREGATE:
		return parseAggregate(r, pv)
	case OFPMP_TABLE:
		return parseArray(t, r, pv, parseTableStats)
	case OFPMP_PORT_STATS:
		return parseArray(t, r, pv, parsePortStats)
	case OFPMP_QUEUE:
		return parseArray(t, r, pv, parseQueueStats)
	case OFPMP_GROUP:
		return parseArray(t, r, pv, parseGroupStats)
	case OFPMP_GROUP_DESC:
		return parseArray(t, r, pv, parseGroupDesc)
	case OFPMP_GROUP_FEATURES:
		return parseGroupFeatures(r, pv)
	case OFPMP_METER:
		return parseArray(t, r, pv, parseMeterStats)
	case OFPMP_METER_CONFIG:
		return parseArray(t, r, pv, parseMeterConfig)
	case OFPMP_METER_FEATURES:
		return parseMeterFeatures(r, pv)
	case OFPMP_TABLE_FEATURES:
		return parseArray(t, r, pv, parseTableFeatures)
	case OFPMP_PORT_DESC:
		return parseArray(t, r, pv, parsePortDesc)
	case OFPMP_EXPERIMENTER:
		return parseExperimenter(r, pv)
	}

	return nil, errors.Wrapf(openflow.ErrUnknownType, "multipart type %v", t)
}

// parseArray decodes entries until r reaches its target index. Each entry is
// bounded by its own length. In lenient mode a malformed entry ends the array,
// which keeps the entries decoded so far and records the failure.
func parseArray[E Element](t MultipartType, r *openflow.PacketReader, pv openflow.Version, parse func(*openflow.PacketReader, openflow.Version) (E, error)) (*MutableArray[E], error) {
	v := NewMutableArray[E](pv)
	for r.Remaining() > 0 {
		start := r.Position()
		e, err := parse(r, pv)
		if err != nil {
			cause := openflow.NewMessageParseError(start, errors.Wrapf(err, "%v entry %v", t, v.Len()))
			if openflow.StrictParsing() {
				return nil, cause
			}
			logger.Warningf("dropping the rest of %v reply: %v", t, cause)
			v.markIncomplete(cause)
			r.Skip(r.Remaining())
			break
		}
		if err := v.Add(e); err != nil {
			return nil, err
		}
	}

	return v, nil
}
