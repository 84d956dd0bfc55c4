/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rtps

import (
	"encoding/binary"
	"fmt"
)

// headerMagic is the fixed four-byte tag every RTPS message starts with.
var headerMagic = [4]byte{'R', 'T', 'P', 'S'}

const headerSize = 20

// Header is the fixed-size preamble of every RTPS message: magic,
// protocol version, source vendor, and source GUID prefix. Every field is
// either a single byte or an endianness-invariant byte array, so unlike a
// submessage body the header has no associated byte order.
type Header struct {
	Magic      [4]byte
	Version    ProtocolVersion
	VendorID   VendorID
	GUIDPrefix GUIDPrefix
}

// Valid reports whether the header carries the RTPS magic and a protocol
// version this receiver supports.
func (h Header) Valid() bool {
	if h.Magic != headerMagic {
		return false
	}
	return h.Version.AtLeast(MinSupportedProtocolVersion)
}

func headerMarshalBinaryTo(h *Header, b []byte) (int, error) {
	if len(b) < headerSize {
		return 0, fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, headerSize, len(b))
	}
	copy(b[0:4], h.Magic[:])
	b[4] = h.Version.Major
	b[5] = h.Version.Minor
	copy(b[6:8], h.VendorID[:])
	copy(b[8:20], h.GUIDPrefix[:])
	return headerSize, nil
}

func unmarshalHeader(h *Header, b []byte) error {
	if len(b) < headerSize {
		return fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, headerSize, len(b))
	}
	copy(h.Magic[:], b[0:4])
	h.Version.Major = b[4]
	h.Version.Minor = b[5]
	copy(h.VendorID[:], b[6:8])
	copy(h.GUIDPrefix[:], b[8:20])
	return nil
}

// SubmessageKind identifies the type of an RTPS submessage body.
type SubmessageKind byte

// Recognized submessage kinds.
const (
	KindPad           SubmessageKind = 0x01
	KindAckNack       SubmessageKind = 0x06
	KindHeartbeat     SubmessageKind = 0x07
	KindGap           SubmessageKind = 0x08
	KindInfoTS        SubmessageKind = 0x09
	KindInfoSrc       SubmessageKind = 0x0C
	KindInfoDst       SubmessageKind = 0x0E
	KindInfoReply     SubmessageKind = 0x0F
	KindNackFrag      SubmessageKind = 0x12
	KindHeartbeatFrag SubmessageKind = 0x13
	KindData          SubmessageKind = 0x15
	KindDataFrag      SubmessageKind = 0x16
)

// submessageKindNames is used for logging and the rtpsdump CLI's -msgtype
// flag; unrecognized kinds fall back to a numeric rendering.
var submessageKindNames = map[SubmessageKind]string{
	KindPad:           "PAD",
	KindAckNack:       "ACKNACK",
	KindHeartbeat:     "HEARTBEAT",
	KindGap:           "GAP",
	KindInfoTS:        "INFO_TS",
	KindInfoSrc:       "INFO_SRC",
	KindInfoDst:       "INFO_DST",
	KindInfoReply:     "INFO_REPLY",
	KindNackFrag:      "NACK_FRAG",
	KindHeartbeatFrag: "HEARTBEAT_FRAG",
	KindData:          "DATA",
	KindDataFrag:      "DATA_FRAG",
}

func (k SubmessageKind) String() string {
	if s, ok := submessageKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("SubmessageKind(0x%02x)", byte(k))
}

// SubmessageFlags is the one-byte flags field of a submessage header. Bit 0
// always selects the byte order of the submessage body; remaining bits are
// kind-specific (FlagFinal, FlagInvalidate and FlagMulticast all share bit
// 1, FlagLiveliness is bit 2; each is only meaningful for its own kind).
type SubmessageFlags byte

// Flag bit masks. FlagFinal/FlagInvalidate/FlagMulticast occupy the same
// bit position but are interpreted only by the submessage kind that
// defines them.
const (
	FlagEndianness SubmessageFlags = 0x01
	FlagFinal      SubmessageFlags = 0x02
	FlagInvalidate SubmessageFlags = 0x02
	FlagMulticast  SubmessageFlags = 0x02
	FlagLiveliness SubmessageFlags = 0x04
)

// LittleEndian reports whether the submessage body is little-endian.
func (f SubmessageFlags) LittleEndian() bool { return f&FlagEndianness != 0 }

// ByteOrder returns the binary.ByteOrder the submessage body was encoded
// with, as dictated solely by the endianness flag bit.
func (f SubmessageFlags) ByteOrder() binary.ByteOrder {
	if f.LittleEndian() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Has reports whether the given flag bit is set.
func (f SubmessageFlags) Has(bit SubmessageFlags) bool { return f&bit != 0 }

const submessageHeaderSize = 4

// SubmessageHeader is the 4-byte kind/flags/length prefix of every
// submessage. Length is read using the byte order the flags byte itself
// selects.
type SubmessageHeader struct {
	Kind   SubmessageKind
	Flags  SubmessageFlags
	Length uint16
}

func unmarshalSubmessageHeader(b []byte) (SubmessageHeader, error) {
	if len(b) < submessageHeaderSize {
		return SubmessageHeader{}, fmt.Errorf("%w: submessage header needs %d bytes, got %d", ErrTruncated, submessageHeaderSize, len(b))
	}
	flags := SubmessageFlags(b[1])
	length := flags.ByteOrder().Uint16(b[2:4])
	return SubmessageHeader{
		Kind:   SubmessageKind(b[0]),
		Flags:  flags,
		Length: length,
	}, nil
}

func marshalSubmessageHeaderTo(h SubmessageHeader, b []byte) int {
	b[0] = byte(h.Kind)
	b[1] = byte(h.Flags)
	h.Flags.ByteOrder().PutUint16(b[2:4], h.Length)
	return submessageHeaderSize
}
