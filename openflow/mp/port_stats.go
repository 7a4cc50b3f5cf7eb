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

const (
	portStatsRequestLength  = 8
	portStatsLength         = 104
	of13PortStatsLength     = 112
	queueStatsRequestLength = 8
	queueStatsLength        = 32
	of13QueueStatsLength    = 40

	// OFPQ_ALL selects every queue of a port.
	OFPQ_ALL = 0xffffffff
)

// PortStatsRequest selects one port, or every port with OFPP_ANY.
type PortStatsRequest struct {
	version openflow.Version
	port    openflow.PortNumber
}

func (r *PortStatsRequest) view() *PortStatsRequest {
	return r
}

func (r *PortStatsRequest) Version() openflow.Version {
	return r.version
}

func (r *PortStatsRequest) Validate() error {
	return nil
}

func (r *PortStatsRequest) TotalLength() int {
	return portStatsRequestLength
}

func (r *PortStatsRequest) Port() openflow.PortNumber {
	return r.port
}

type MutablePortStatsRequest struct {
	PortStatsRequest
	mutable
}

func NewMutablePortStatsRequest(pv openflow.Version) *MutablePortStatsRequest {
	return &MutablePortStatsRequest{PortStatsRequest: PortStatsRequest{version: pv, port: openflow.OFPP_ANY}}
}

func (r *MutablePortStatsRequest) SetPort(port openflow.PortNumber) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.CheckPortNumber(r.version, port); err != nil {
		return err
	}
	r.port = port

	return nil
}

func (r *MutablePortStatsRequest) ToImmutable() (*PortStatsRequest, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.PortStatsRequest

	return &v, nil
}

func (r *MutablePortStatsRequest) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodePortStatsRequest(b Body, w *openflow.PacketWriter) error {
	v, err := viewOf[PortStatsRequest](b)
	if err != nil {
		return err
	}
	if err := openflow.WritePortNumber(w, v.version, v.port); err != nil {
		return err
	}
	if v.version == openflow.OF10_VERSION {
		// 6 bytes padding
		w.WriteZeros(6)
	} else {
		// 4 bytes padding
		w.WriteZeros(4)
	}

	return nil
}

func parsePortStatsRequest(r *openflow.PacketReader, pv openflow.Version) (*MutablePortStatsRequest, error) {
	v := NewMutablePortStatsRequest(pv)
	v.port = openflow.ReadPortNumber(r, pv)
	if pv == openflow.OF10_VERSION {
		r.Skip(6)
	} else {
		r.Skip(4)
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse port stats request")
	}

	return v, nil
}

// PortCounters holds the twelve counters of a port stats entry.
type PortCounters struct {
	RxPackets  uint64
	TxPackets  uint64
	RxBytes    uint64
	TxBytes    uint64
	RxDropped  uint64
	TxDropped  uint64
	RxErrors   uint64
	TxErrors   uint64
	RxFrameErr uint64
	RxOverErr  uint64
	RxCRCErr   uint64
	Collisions uint64
}

// PortStats describes one port in a PORT_STATS reply.
type PortStats struct {
	version      openflow.Version
	port         openflow.PortNumber
	counters     PortCounters
	durationSec  uint32
	durationNsec uint32
}

func (r *PortStats) view() *PortStats {
	return r
}

func (r *PortStats) Version() openflow.Version {
	return r.version
}

func (r *PortStats) Validate() error {
	return nil
}

func (r *PortStats) TotalLength() int {
	if r.version == openflow.OF13_VERSION {
		return of13PortStatsLength
	}
	return portStatsLength
}

func (r *PortStats) Port() openflow.PortNumber {
	return r.port
}

func (r *PortStats) Counters() PortCounters {
	return r.counters
}

// DurationSec returns 0 before OF1.3.
func (r *PortStats) DurationSec() uint32 {
	return r.durationSec
}

// DurationNsec returns 0 before OF1.3.
func (r *PortStats) DurationNsec() uint32 {
	return r.durationNsec
}

type MutablePortStats struct {
	PortStats
	mutable
}

func NewMutablePortStats(pv openflow.Version) *MutablePortStats {
	return &MutablePortStats{PortStats: PortStats{version: pv}}
}

func (r *MutablePortStats) SetPort(port openflow.PortNumber) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.CheckPortNumber(r.version, port); err != nil {
		return err
	}
	r.port = port

	return nil
}

func (r *MutablePortStats) SetCounters(c PortCounters) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.counters = c

	return nil
}

func (r *MutablePortStats) SetDuration(sec, nsec uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.VerRange(r.version, openflow.OF13_VERSION, openflow.OF13_VERSION, "port stats duration"); err != nil {
		return err
	}
	r.durationSec = sec
	r.durationNsec = nsec

	return nil
}

func (r *MutablePortStats) ToImmutable() (*PortStats, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.PortStats

	return &v, nil
}

func (r *MutablePortStats) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r PortCounters) values() []uint64 {
	return []uint64{
		r.RxPackets, r.TxPackets, r.RxBytes, r.TxBytes, r.RxDropped, r.TxDropped,
		r.RxErrors, r.TxErrors, r.RxFrameErr, r.RxOverErr, r.RxCRCErr, r.Collisions,
	}
}

func (r *PortCounters) fields() []*uint64 {
	return []*uint64{
		&r.RxPackets, &r.TxPackets, &r.RxBytes, &r.TxBytes, &r.RxDropped, &r.TxDropped,
		&r.RxErrors, &r.TxErrors, &r.RxFrameErr, &r.RxOverErr, &r.RxCRCErr, &r.Collisions,
	}
}

func encodePortStats(v *PortStats, w *openflow.PacketWriter) error {
	if err := openflow.WritePortNumber(w, v.version, v.port); err != nil {
		return err
	}
	if v.version == openflow.OF10_VERSION {
		// 6 bytes padding
		w.WriteZeros(6)
	} else {
		// 4 bytes padding
		w.WriteZeros(4)
	}
	for _, c := range v.counters.values() {
		w.WriteU64(c)
	}
	if v.version == openflow.OF13_VERSION {
		w.WriteU32(v.durationSec)
		w.WriteU32(v.durationNsec)
	}

	return nil
}

func parsePortStats(r *openflow.PacketReader, pv openflow.Version) (*PortStats, error) {
	v := NewMutablePortStats(pv)
	body, err := r.Bounded(v.TotalLength())
	if err != nil {
		return nil, err
	}

	v.port = openflow.ReadPortNumber(body, pv)
	if pv == openflow.OF10_VERSION {
		body.Skip(6)
	} else {
		body.Skip(4)
	}
	for _, c := range v.counters.fields() {
		*c = body.ReadU64()
	}
	if pv == openflow.OF13_VERSION {
		v.durationSec = body.ReadU32()
		v.durationNsec = body.ReadU32()
	}
	if err := body.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse port stats")
	}

	return v.ToImmutable()
}

// QueueStatsRequest selects queues of a port. OFPP_ANY and OFPQ_ALL act as
// wildcards.
type QueueStatsRequest struct {
	version openflow.Version
	port    openflow.PortNumber
	queueID uint32
}

func (r *QueueStatsRequest) view() *QueueStatsRequest {
	return r
}

func (r *QueueStatsRequest) Version() openflow.Version {
	return r.version
}

func (r *QueueStatsRequest) Validate() error {
	return nil
}

func (r *QueueStatsRequest) TotalLength() int {
	return queueStatsRequestLength
}

func (r *QueueStatsRequest) Port() openflow.PortNumber {
	return r.port
}

func (r *QueueStatsRequest) QueueID() uint32 {
	return r.queueID
}

type MutableQueueStatsRequest struct {
	QueueStatsRequest
	mutable
}

func NewMutableQueueStatsRequest(pv openflow.Version) *MutableQueueStatsRequest {
	return &MutableQueueStatsRequest{
		QueueStatsRequest: QueueStatsRequest{version: pv, port: openflow.OFPP_ANY, queueID: OFPQ_ALL},
	}
}

func (r *MutableQueueStatsRequest) SetPort(port openflow.PortNumber) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.CheckPortNumber(r.version, port); err != nil {
		return err
	}
	r.port = port

	return nil
}

func (r *MutableQueueStatsRequest) SetQueueID(id uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.queueID = id

	return nil
}

func (r *MutableQueueStatsRequest) ToImmutable() (*QueueStatsRequest, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.QueueStatsRequest

	return &v, nil
}

func (r *MutableQueueStatsRequest) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeQueueStatsRequest(b Body, w *openflow.PacketWriter) error {
	v, err := viewOf[QueueStatsRequest](b)
	if err != nil {
		return err
	}
	if err := openflow.WritePortNumber(w, v.version, v.port); err != nil {
		return err
	}
	if v.version == openflow.OF10_VERSION {
		// 2 bytes padding
		w.WriteZeros(2)
	}
	w.WriteU32(v.queueID)

	return nil
}

func parseQueueStatsRequest(r *openflow.PacketReader, pv openflow.Version) (*MutableQueueStatsRequest, error) {
	v := NewMutableQueueStatsRequest(pv)
	v.port = openflow.ReadPortNumber(r, pv)
	if pv == openflow.OF10_VERSION {
		r.Skip(2)
	}
	v.queueID = r.ReadU32()
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse queue stats request")
	}

	return v, nil
}

// QueueStats describes one queue in a QUEUE reply.
type QueueStats struct {
	version      openflow.Version
	port         openflow.PortNumber
	queueID      uint32
	txBytes      uint64
	txPackets    uint64
	txErrors     uint64
	durationSec  uint32
	durationNsec uint32
}

func (r *QueueStats) view() *QueueStats {
	return r
}

func (r *QueueStats) Version() openflow.Version {
	return r.version
}

func (r *QueueStats) Validate() error {
	return nil
}

func (r *QueueStats) TotalLength() int {
	if r.version == openflow.OF13_VERSION {
		return of13QueueStatsLength
	}
	return queueStatsLength
}

func (r *QueueStats) Port() openflow.PortNumber {
	return r.port
}

func (r *QueueStats) QueueID() uint32 {
	return r.queueID
}

func (r *QueueStats) TxBytes() uint64 {
	return r.txBytes
}

func (r *QueueStats) TxPackets() uint64 {
	return r.txPackets
}

func (r *QueueStats) TxErrors() uint64 {
	return r.txErrors
}

// DurationSec returns 0 before OF1.3.
func (r *QueueStats) DurationSec() uint32 {
	return r.durationSec
}

// DurationNsec returns 0 before OF1.3.
func (r *QueueStats) DurationNsec() uint32 {
	return r.durationNsec
}

type MutableQueueStats struct {
	QueueStats
	mutable
}

func NewMutableQueueStats(pv openflow.Version) *MutableQueueStats {
	return &MutableQueueStats{QueueStats: QueueStats{version: pv}}
}

func (r *MutableQueueStats) SetPort(port openflow.PortNumber) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.CheckPortNumber(r.version, port); err != nil {
		return err
	}
	r.port = port

	return nil
}

func (r *MutableQueueStats) SetQueueID(id uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.queueID = id

	return nil
}

func (r *MutableQueueStats) SetTxBytes(v uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.txBytes = v

	return nil
}

func (r *MutableQueueStats) SetTxPackets(v uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.txPackets = v

	return nil
}

func (r *MutableQueueStats) SetTxErrors(v uint64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.txErrors = v

	return nil
}

func (r *MutableQueueStats) SetDuration(sec, nsec uint32) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := openflow.VerRange(r.version, openflow.OF13_VERSION, openflow.OF13_VERSION, "queue stats duration"); err != nil {
		return err
	}
	r.durationSec = sec
	r.durationNsec = nsec

	return nil
}

func (r *MutableQueueStats) ToImmutable() (*QueueStats, error) {
	if err := r.freeze(); err != nil {
		return nil, err
	}
	v := r.QueueStats

	return &v, nil
}

func (r *MutableQueueStats) Freeze() (Body, error) {
	v, err := r.ToImmutable()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeQueueStats(v *QueueStats, w *openflow.PacketWriter) error {
	if err := openflow.WritePortNumber(w, v.version, v.port); err != nil {
		return err
	}
	if v.version == openflow.OF10_VERSION {
		// 2 bytes padding
		w.WriteZeros(2)
	}
	w.WriteU32(v.queueID)
	w.WriteU64(v.txBytes)
	w.WriteU64(v.txPackets)
	w.WriteU64(v.txErrors)
	if v.version == openflow.OF13_VERSION {
		w.WriteU32(v.durationSec)
		w.WriteU32(v.durationNsec)
	}

	return nil
}

func parseQueueStats(r *openflow.PacketReader, pv openflow.Version) (*QueueStats, error) {
	v := NewMutableQueueStats(pv)
	body, err := r.Bounded(v.TotalLength())
	if err != nil {
		return nil, err
	}

	v.port = openflow.ReadPortNumber(body, pv)
	if pv == openflow.OF10_VERSION {
		body.Skip(2)
	}
	v.queueID = body.ReadU32()
	v.txBytes = body.ReadU64()
	v.txPackets = body.ReadU64()
	v.txErrors = body.ReadU64()
	if pv == openflow.OF13_VERSION {
		v.durationSec = body.ReadU32()
		v.durationNsec = body.ReadU32()
	}
	if err := body.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse queue stats")
	}

	return v.ToImmutable()
}
