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

// EncodeRequestBody writes the request body b at the current position of w.
// It writes exactly b.TotalLength() bytes or fails before writing anything
// for an incomplete body.
func EncodeRequestBody(b Body, w *openflow.PacketWriter) error {
	return encodeBody(b, w, encodeRequest)
}

// EncodeReplyBody writes the reply body b at the current position of w. It
// writes exactly b.TotalLength() bytes or fails before writing anything for
// an incomplete body.
func EncodeReplyBody(b Body, w *openflow.PacketWriter) error {
	return encodeBody(b, w, encodeReply)
}

func encodeBody(b Body, w *openflow.PacketWriter, encode func(MultipartType, Body, *openflow.PacketWriter) error) error {
	if b == nil {
		return openflow.NullArgument("body")
	}
	if w == nil {
		return openflow.NullArgument("packet writer")
	}
	t, err := TypeOf(b)
	if err != nil {
		return err
	}
	if err := t.check(b.Version()); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}

	// Encode into a scratch writer so a failure leaves w untouched.
	scratch := openflow.NewPacketWriter()
	if err := encode(t, b, scratch); err != nil {
		return errors.Wrapf(err, "failed to encode %v body", t)
	}
	if n := scratch.Position(); n != b.TotalLength() {
		return errors.Wrapf(openflow.ErrInvalidPacketLength, "%v body encoded to %v bytes, expected %v", t, n, b.TotalLength())
	}
	w.WriteBytes(scratch.Bytes())

	return nil
}

func encodeRequest(t MultipartType, b Body, w *openflow.PacketWriter) error {
	switch t {
	case OFPMP_DESC, OFPMP_TABLE, OFPMP_GROUP_DESC, OFPMP_GROUP_FEATURES,
		OFPMP_METER_FEATURES, OFPMP_PORT_DESC:
		return noBody(t, "request")
	case OFPMP_FLOW, OFPMP_AGGREGATE:
		return encodeFlowRequest(b, w)
	case OFPMP_PORT_STATS:
		return encodePortStatsRequest(b, w)
	case OFPMP_QUEUE:
		return encodeQueueStatsRequest(b, w)
	case OFPMP_GROUP:
		return encodeGroupRequest(b, w)
	case OFPMP_METER, OFPMP_METER_CONFIG:
		return encodeMeterRequest(b, w)
	case OFPMP_TABLE_FEATURES:
		return encodeArray(b, w, encodeTableFeatures)
	case OFPMP_EXPERIMENTER:
		return encodeExperimenter(b, w)
	}

	return errors.Wrapf(openflow.ErrUnknownType, "multipart type %v", t)
}

func encodeReply(t MultipartType, b Body, w *openflow.PacketWriter) error {
	switch t {
	case OFPMP_DESC:
		return encodeDesc(b, w)
	case OFPMP_FLOW:
		return encodeArray(b, w, encodeFlowStats)
	case OFPMP_AGGREGATE:
		return encodeAggregate(b, w)
	case OFPMP_TABLE:
		return encodeArray(b, w, encodeTableStats)
	case OFPMP_PORT_STATS:
		return encodeArray(b, w, encodePortStats)
	case OFPMP_QUEUE:
		return encodeArray(b, w, encodeQueueStats)
	case OFPMP_GROUP:
		return encodeArray(b, w, encodeGroupStats)
	case OFPMP_GROUP_DESC:
		return encodeArray(b, w, encodeGroupDesc)
	case OFPMP_GROUP_FEATURES:
		return encodeGroupFeatures(b, w)
	case OFPMP_METER:
		return encodeArray(b, w, encodeMeterStats)
	case OFPMP_METER_CONFIG:
		return encodeArray(b, w, encodeMeterConfig)
	case OFPMP_METER_FEATURES:
		return encodeMeterFeatures(b, w)
	case OFPMP_TABLE_FEATURES:
		return encodeArray(b, w, encodeTableFeatures)
	case OFPMP_PORT_DESC:
		return encodeArray(b, w, encodePortDesc)
	case OFPMP_EXPERIMENTER:
		return encodeExperimenter(b, w)
	}

	return errors.Wrapf(openflow.ErrUnknownType, "multipart type %v", t)
}

func encodeArray[E Element](b Body, w *openflow.PacketWriter, encode func(E, *openflow.PacketWriter) error) error {
	v, err := viewOf[Array[E]](b)
	if err != nil {
		return err
	}
	for i, e := range v.elements {
		if e.Version() != v.version {
			return errors.Wrapf(openflow.ErrVersionMismatch, "%v element %v in %v array", e.Version(), i, v.version)
		}
		if err := encode(e, w); err != nil {
			return errors.Wrapf(err, "failed to encode array element %v", i)
		}
	}

	return nil
}
