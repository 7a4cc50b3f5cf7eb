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

package match

import (
	"net"

	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
	"github.com/superkkt/ofmp/openflow"
)

// OF1.0 wildcard bits.
const (
	OFPFW_IN_PORT      = 1 << 0
	OFPFW_DL_VLAN      = 1 << 1
	OFPFW_DL_SRC       = 1 << 2
	OFPFW_DL_DST       = 1 << 3
	OFPFW_DL_TYPE      = 1 << 4
	OFPFW_NW_PROTO     = 1 << 5
	OFPFW_TP_SRC       = 1 << 6
	OFPFW_TP_DST       = 1 << 7
	OFPFW_NW_SRC_SHIFT = 8
	OFPFW_NW_SRC_BITS  = 6
	OFPFW_NW_SRC_MASK  = ((1 << OFPFW_NW_SRC_BITS) - 1) << OFPFW_NW_SRC_SHIFT
	OFPFW_NW_SRC_ALL   = 32 << OFPFW_NW_SRC_SHIFT
	OFPFW_NW_DST_SHIFT = 14
	OFPFW_NW_DST_BITS  = 6
	OFPFW_NW_DST_MASK  = ((1 << OFPFW_NW_DST_BITS) - 1) << OFPFW_NW_DST_SHIFT
	OFPFW_NW_DST_ALL   = 32 << OFPFW_NW_DST_SHIFT
	OFPFW_DL_VLAN_PCP  = 1 << 20
	OFPFW_NW_TOS       = 1 << 21
	OFPFW_ALL          = (1 << 22) - 1
)

const legacyLength = 40

// Legacy is the fixed OF1.0 ofp_match structure.
type Legacy struct {
	Wildcards    uint32
	InPort       openflow.PortNumber
	SrcMAC       net.HardwareAddr
	DstMAC       net.HardwareAddr
	VLANID       uint16
	VLANPriority uint8
	EtherType    layers.EthernetType
	TOS          uint8
	Protocol     layers.IPProtocol
	SrcIP        net.IP
	DstIP        net.IP
	SrcPort      uint16
	DstPort      uint16
}

func (r Legacy) clone() Legacy {
	v := r
	v.SrcMAC = cloneBytes(r.SrcMAC)
	v.DstMAC = cloneBytes(r.DstMAC)
	v.SrcIP = cloneBytes(r.SrcIP)
	v.DstIP = cloneBytes(r.DstIP)

	return v
}

func (r Legacy) validate() error {
	if r.SrcMAC != nil && len(r.SrcMAC) != 6 {
		return openflow.IllegalArgument("invalid source MAC address: %v", r.SrcMAC)
	}
	if r.DstMAC != nil && len(r.DstMAC) != 6 {
		return openflow.IllegalArgument("invalid destination MAC address: %v", r.DstMAC)
	}
	if r.SrcIP != nil && r.SrcIP.To4() == nil {
		return openflow.IllegalArgument("invalid source IPv4 address: %v", r.SrcIP)
	}
	if r.DstIP != nil && r.DstIP.To4() == nil {
		return openflow.IllegalArgument("invalid destination IPv4 address: %v", r.DstIP)
	}

	return openflow.CheckPortNumber(openflow.OF10_VERSION, r.InPort)
}

func writeMAC(w *openflow.PacketWriter, mac net.HardwareAddr) {
	if mac == nil {
		w.WriteZeros(6)
		return
	}
	w.WriteBytes(mac)
}

func writeIPv4(w *openflow.PacketWriter, ip net.IP) {
	if ip == nil {
		w.WriteZeros(4)
		return
	}
	w.WriteBytes(ip.To4())
}

func (r Legacy) encode(w *openflow.PacketWriter) error {
	w.WriteU32(r.Wildcards)
	if err := openflow.WritePortNumber(w, openflow.OF10_VERSION, r.InPort); err != nil {
		return err
	}
	writeMAC(w, r.SrcMAC)
	writeMAC(w, r.DstMAC)
	w.WriteU16(r.VLANID)
	w.WriteU8(r.VLANPriority)
	// 1 byte padding
	w.WriteZeros(1)
	w.WriteU16(uint16(r.EtherType))
	w.WriteU8(r.TOS)
	w.WriteU8(uint8(r.Protocol))
	// 2 bytes padding
	w.WriteZeros(2)
	writeIPv4(w, r.SrcIP)
	writeIPv4(w, r.DstIP)
	w.WriteU16(r.SrcPort)
	w.WriteU16(r.DstPort)

	return nil
}

func decodeLegacy(r *openflow.PacketReader) (Legacy, error) {
	v := Legacy{}
	v.Wildcards = r.ReadU32()
	v.InPort = openflow.ReadPortNumber(r, openflow.OF10_VERSION)
	v.SrcMAC = net.HardwareAddr(r.ReadBytes(6))
	v.DstMAC = net.HardwareAddr(r.ReadBytes(6))
	v.VLANID = r.ReadU16()
	v.VLANPriority = r.ReadU8()
	r.Skip(1)
	v.EtherType = layers.EthernetType(r.ReadU16())
	v.TOS = r.ReadU8()
	v.Protocol = layers.IPProtocol(r.ReadU8())
	r.Skip(2)
	v.SrcIP = net.IP(r.ReadBytes(4))
	v.DstIP = net.IP(r.ReadBytes(4))
	v.SrcPort = r.ReadU16()
	v.DstPort = r.ReadU16()
	if err := r.Err(); err != nil {
		return Legacy{}, errors.Wrap(err, "failed to decode OF1.0 match")
	}

	return v, nil
}
