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

func noBody(t MultipartType, direction string) error {
	return openflow.IllegalArgument("%v multipart has no %v body", t, direction)
}

// CreateRequestBody returns an empty request body of type t bound to pv.
func CreateRequestBody(pv openflow.Version, t MultipartType) (MutableBody, error) {
	if err := t.check(pv); err != nil {
		return nil, err
	}

	switch t {
	case OFPMP_DESC, OFPMP_TABLE, OFPMP_GROUP_DESC, OFPMP_GROUP_FEATURES,
		OFPMP_METER_FEATURES, OFPMP_PORT_DESC:
		return nil, noBody(t, "request")
	case OFPMP_FLOW:
		return NewMutableFlowStatsRequest(pv), nil
	case OFPMP_AGGREGATE:
		return NewMutableAggregateRequest(pv), nil
	case OFPMP_PORT_STATS:
		return NewMutablePortStatsRequest(pv), nil
	case OFPMP_QUEUE:
		return NewMutableQueueStatsRequest(pv), nil
	case OFPMP_GROUP:
		return NewMutableGroupRequest(pv), nil
	case OFPMP_METER:
		return NewMutableMeterStatsRequest(pv), nil
	case OFPMP_METER_CONFIG:
		return NewMutableMeterConfigRequest(pv), nil
	case OFPMP_TABLE_FEATURES:
		return NewMutableArray[*TableFeatures](pv), nil
	case OFPMP_EXPERIMENTER:
		return NewMutableExperimenter(pv), nil
	}

	return nil, errors.Wrapf(openflow.ErrUnknownType, "multipart type %v", t)
}

// CreateReplyBody returns an empty reply body of type t bound to pv. Types
// whose reply is a list of entries get an empty array.
func CreateReplyBody(pv openflow.Version, t MultipartType) (MutableBody, error) {
	if err := t.check(pv); err != nil {
		return nil, err
	}

	switch t {
	case OFPMP_DESC:
		return NewMutableDesc(pv), nil
	case OFPMP_FLOW:
		return NewMutableArray[*FlowStats](pv), nil
	case OFPMP_AGGREGATE:
		return NewMutableAggregate(pv), nil
	case OFPMP_TABLE:
		return NewMutableArray[*TableStats](pv), nil
	case OFPMP_PORT_STATS:
		return NewMutableArray[*PortStats](pv), nil
	case OFPMP_QUEUE:
		return NewMutableArray[*QueueStats](pv), nil
	case OFPMP_GROUP:
		return NewMutableArray[*GroupStats](pv), nil
	case OFPMP_GROUP_DESC:
		return NewMutableArray[*GroupDesc](pv), nil
	case OFPMP_GROUP_FEATURES:
		return NewMutableGroupFeatures(pv), nil
	case OFPMP_METER:
		return NewMutableArray[*MeterStats](pv), nil
	case OFPMP_METER_CONFIG:
		return NewMutableArray[*MeterConfig](pv), nil
	case OFPMP_METER_FEATURES:
		return NewMutableMeterFeatures(pv), nil
	case OFPMP_TABLE_FEATURES:
		return NewMutableArray[*TableFeatures](pv), nil
	case OFPMP_PORT_DESC:
		return NewMutableArray[*PortDesc](pv), nil
	case OFPMP_EXPERIMENTER:
		return NewMutableExperimenter(pv), nil
	}

	return nil, errors.Wrapf(openflow.ErrUnknownType, "multipart type %v", t)
}

// CreateReplyBodyElement returns an empty entry for the array reply of type
// t. Singleton replies are an IllegalArgument.
func CreateReplyBodyElement(pv openflow.Version, t MultipartType) (MutableBody, error) {
	if err := t.check(pv); err != nil {
		return nil, err
	}

	switch t {
	case OFPMP_DESC, OFPMP_AGGREGATE, OFPMP_GROUP_FEATURES, OFPMP_METER_FEATURES,
		OFPMP_EXPERIMENTER:
		return nil, openflow.IllegalArgument("%v reply is not an array", t)
	case OFPMP_FLOW:
		return NewMutableFlowStats(pv), nil
	case OFPMP_TABLE:
		return NewMutableTableStats(pv), nil
	case OFPMP_PORT_STATS:
		return NewMutablePortStats(pv), nil
	case OFPMP_QUEUE:
		return NewMutableQueueStats(pv), nil
	case OFPMP_GROUP:
		return NewMutableGroupStats(pv), nil
	case OFPMP_GROUP_DESC:
		return NewMutableGroupDesc(pv), nil
	case OFPMP_METER:
		return NewMutableMeterStats(pv), nil
	case OFPMP_METER_CONFIG:
		return NewMutableMeterConfig(pv), nil
	case OFPMP_TABLE_FEATURES:
		return NewMutableTableFeatures(pv), nil
	case OFPMP_PORT_DESC:
		return NewMutablePortDesc(pv), nil
	}

	return nil, errors.Wrapf(openflow.ErrUnknownType, "multipart type %v", t)
}

// TypeOf returns the multipart type of a body, an array or an array element,
// in either its mutable or its read-only form.
func TypeOf(b Body) (MultipartType, error) {
	switch v := b.(type) {
	case viewer[Desc]:
		return OFPMP_DESC, nil
	case viewer[FlowRequest]:
		return v.view().kind, nil
	case viewer[FlowStats], viewer[Array[*FlowStats]]:
		return OFPMP_FLOW, nil
	case viewer[Aggregate]:
		return OFPMP_AGGREGATE, nil
	case viewer[TableStats], viewer[Array[*TableStats]]:
		return OFPMP_TABLE, nil
	case viewer[PortStatsRequest], viewer[PortStats], viewer[Array[*PortStats]]:
		return OFPMP_PORT_STATS, nil
	case viewer[QueueStatsRequest], viewer[QueueStats], viewer[Array[*QueueStats]]:
		return OFPMP_QUEUE, nil
	case viewer[GroupRequest], viewer[GroupStats], viewer[Array[*GroupStats]]:
		return OFPMP_GROUP, nil
	case viewer[GroupDesc], viewer[Array[*GroupDesc]]:
		return OFPMP_GROUP_DESC, nil
	case viewer[GroupFeatures]:
		return OFPMP_GROUP_FEATURES, nil
	case viewer[MeterRequest]:
		return v.view().kind, nil
	case viewer[MeterStats], viewer[Array[*MeterStats]]:
		return OFPMP_METER, nil
	case viewer[MeterConfig], viewer[Array[*MeterConfig]]:
		return OFPMP_METER_CONFIG, nil
	case viewer[MeterFeatures]:
		return OFPMP_METER_FEATURES, nil
	case viewer[TableFeatures], viewer[Array[*TableFeatures]]:
		return OFPMP_TABLE_FEATURES, nil
	case viewer[PortDesc], viewer[Array[*PortDesc]]:
		return OFPMP_PORT_DESC, nil
	case viewer[Experimenter]:
		return OFPMP_EXPERIMENTER, nil
	case nil:
		return 0, openflow.NullArgument("body")
	default:
		return 0, openflow.IllegalArgument("unexpected body type %T", b)
	}
}
