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
	"time"
)

// ProtocolVersion is the two-byte (major, minor) RTPS protocol version.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

// Recognized protocol versions.
var (
	ProtocolVersion2_4 = ProtocolVersion{Major: 2, Minor: 4}
	ProtocolVersion2_1 = ProtocolVersion{Major: 2, Minor: 1}
)

// MinSupportedProtocolVersion is the oldest version this receiver accepts.
var MinSupportedProtocolVersion = ProtocolVersion2_1

// AtLeast reports whether v is the same as or newer than other.
func (v ProtocolVersion) AtLeast(other ProtocolVersion) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor >= other.Minor
}

func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// VendorID is the two-byte RTPS vendor identifier. Declaration-order byte
// array: identical on the wire regardless of submessage endianness.
type VendorID [2]byte

// VendorUnknown is the reserved "no vendor" value.
var VendorUnknown = VendorID{0x00, 0x00}

func (v VendorID) String() string {
	return fmt.Sprintf("%02x:%02x", v[0], v[1])
}

// EntityID identifies a reader, writer, or participant within a GUID prefix.
// Endianness-invariant: entity_key and entity_kind are raw bytes in
// declaration order regardless of the active submessage endianness.
type EntityID struct {
	Key  [3]byte
	Kind byte
}

// Named entity IDs reserved for built-in discovery endpoints.
var (
	EntityIDUnknown     = EntityID{Key: [3]byte{0x00, 0x00, 0x00}, Kind: 0x00}
	EntityIDParticipant = EntityID{Key: [3]byte{0x00, 0x00, 0x01}, Kind: 0xC1}

	EntityIDSEDPBuiltinTopicWriter         = EntityID{Key: [3]byte{0x00, 0x00, 0x02}, Kind: 0xC2}
	EntityIDSEDPBuiltinTopicReader         = EntityID{Key: [3]byte{0x00, 0x00, 0x02}, Kind: 0xC7}
	EntityIDSEDPBuiltinPublicationsWriter  = EntityID{Key: [3]byte{0x00, 0x00, 0x03}, Kind: 0xC2}
	EntityIDSEDPBuiltinPublicationsReader  = EntityID{Key: [3]byte{0x00, 0x00, 0x03}, Kind: 0xC7}
	EntityIDSEDPBuiltinSubscriptionsWriter = EntityID{Key: [3]byte{0x00, 0x00, 0x04}, Kind: 0xC2}
	EntityIDSEDPBuiltinSubscriptionsReader = EntityID{Key: [3]byte{0x00, 0x00, 0x04}, Kind: 0xC7}

	EntityIDSPDPBuiltinParticipantWriter = EntityID{Key: [3]byte{0x00, 0x01, 0x00}, Kind: 0xC2}
	EntityIDSPDPBuiltinParticipantReader = EntityID{Key: [3]byte{0x00, 0x01, 0x00}, Kind: 0xC7}

	EntityIDP2PBuiltinParticipantMessageWriter = EntityID{Key: [3]byte{0x00, 0x02, 0x00}, Kind: 0xC2}
	EntityIDP2PBuiltinParticipantMessageReader = EntityID{Key: [3]byte{0x00, 0x02, 0x00}, Kind: 0xC7}
)

// entityIDSize is the wire width of an EntityID.
const entityIDSize = 4

func (e EntityID) String() string {
	return fmt.Sprintf("%02x%02x%02x.%02x", e.Key[0], e.Key[1], e.Key[2], e.Kind)
}

func unmarshalEntityID(b []byte) (EntityID, error) {
	if len(b) < entityIDSize {
		return EntityID{}, fmt.Errorf("%w: entity id needs %d bytes, got %d", ErrTruncated, entityIDSize, len(b))
	}
	var e EntityID
	copy(e.Key[:], b[0:3])
	e.Kind = b[3]
	return e, nil
}

func marshalEntityIDTo(e EntityID, b []byte) int {
	copy(b[0:3], e.Key[:])
	b[3] = e.Kind
	return entityIDSize
}

// GUIDPrefix is the twelve-byte identifier shared by every entity of a
// participant. Endianness-invariant, like EntityID.
type GUIDPrefix [12]byte

// GUIDPrefixUnknown is the reserved all-zero value.
var GUIDPrefixUnknown = GUIDPrefix{}

const guidPrefixSize = 12

func (g GUIDPrefix) String() string {
	return fmt.Sprintf("%x", [12]byte(g))
}

func unmarshalGUIDPrefix(b []byte) (GUIDPrefix, error) {
	if len(b) < guidPrefixSize {
		return GUIDPrefix{}, fmt.Errorf("%w: guid prefix needs %d bytes, got %d", ErrTruncated, guidPrefixSize, len(b))
	}
	var g GUIDPrefix
	copy(g[:], b[0:guidPrefixSize])
	return g, nil
}

func marshalGUIDPrefixTo(g GUIDPrefix, b []byte) int {
	copy(b[0:guidPrefixSize], g[:])
	return guidPrefixSize
}

// SequenceNumber is a signed 64-bit sequence counter, transmitted on the
// wire as {high: int32, low: uint32} in that order.
type SequenceNumber int64

const sequenceNumberSize = 8

// Valid reports whether the sequence number satisfies the "at least one"
// RTPS invariant.
func (sn SequenceNumber) Valid() bool { return sn >= 1 }

func (sn SequenceNumber) marshalTo(order binary.ByteOrder, b []byte) int {
	high := int32(int64(sn) >> 32)
	low := uint32(int64(sn))
	order.PutUint32(b[0:], uint32(high))
	order.PutUint32(b[4:], low)
	return sequenceNumberSize
}

func unmarshalSequenceNumber(order binary.ByteOrder, b []byte) (SequenceNumber, error) {
	if len(b) < sequenceNumberSize {
		return 0, fmt.Errorf("%w: sequence number needs %d bytes, got %d", ErrTruncated, sequenceNumberSize, len(b))
	}
	high := int32(order.Uint32(b[0:]))
	low := order.Uint32(b[4:])
	return SequenceNumber(int64(high)<<32 | int64(low)), nil
}

// FragmentNumber is an unsigned 32-bit fragment counter.
type FragmentNumber uint32

const fragmentNumberSize = 4

func (fn FragmentNumber) marshalTo(order binary.ByteOrder, b []byte) int {
	order.PutUint32(b, uint32(fn))
	return fragmentNumberSize
}

func unmarshalFragmentNumber(order binary.ByteOrder, b []byte) (FragmentNumber, error) {
	if len(b) < fragmentNumberSize {
		return 0, fmt.Errorf("%w: fragment number needs %d bytes, got %d", ErrTruncated, fragmentNumberSize, len(b))
	}
	return FragmentNumber(order.Uint32(b)), nil
}

// Count is a signed 32-bit counter used by ACKNACK/HEARTBEAT/NACK_FRAG.
type Count int32

const countSize = 4

func unmarshalCount(order binary.ByteOrder, b []byte) (Count, error) {
	if len(b) < countSize {
		return 0, fmt.Errorf("%w: count needs %d bytes, got %d", ErrTruncated, countSize, len(b))
	}
	return Count(int32(order.Uint32(b))), nil
}

func marshalCountTo(c Count, order binary.ByteOrder, b []byte) int {
	order.PutUint32(b, uint32(int32(c)))
	return countSize
}

// Time represents an NTP-style {seconds, fraction} timestamp:
// time = seconds + fraction/2^32.
type Time struct {
	Seconds  int32
	Fraction uint32
}

// Reserved Time values.
var (
	TimeZero     = Time{Seconds: 0, Fraction: 0}
	TimeInvalid  = Time{Seconds: -1, Fraction: 0xFFFFFFFF}
	TimeInfinite = Time{Seconds: 0x7FFFFFFF, Fraction: 0xFFFFFFFF}
)

const timeSize = 8

func (t Time) marshalTo(order binary.ByteOrder, b []byte) int {
	order.PutUint32(b[0:], uint32(t.Seconds))
	order.PutUint32(b[4:], t.Fraction)
	return timeSize
}

func unmarshalTime(order binary.ByteOrder, b []byte) (Time, error) {
	if len(b) < timeSize {
		return Time{}, fmt.Errorf("%w: time needs %d bytes, got %d", ErrTruncated, timeSize, len(b))
	}
	return Time{
		Seconds:  int32(order.Uint32(b[0:])),
		Fraction: order.Uint32(b[4:]),
	}, nil
}

// ToWallClock converts t to a wallclock instant. The conversion is lossy:
// the result has nanosecond resolution, so Fraction is truncated to whole
// nanoseconds (one nanosecond is about 4.3 units of 1/2^32 s). TimeInvalid
// has no wallclock counterpart and is rejected.
func (t Time) ToWallClock() (time.Time, error) {
	if t == TimeInvalid {
		return time.Time{}, ErrInvalidTime
	}
	nanos := (int64(t.Fraction) * int64(time.Second)) >> 32
	return time.Unix(int64(uint32(t.Seconds)), nanos).UTC(), nil
}

// TimeFromWallClock converts a wallclock instant to a Time. The conversion
// is lossy: the nanosecond count is truncated to a whole number of 1/2^32 s
// units. A ToWallClock/TimeFromWallClock round trip can therefore differ
// from the original Fraction by up to 5 units.
func TimeFromWallClock(w time.Time) Time {
	fraction := (int64(w.Nanosecond()) << 32) / int64(time.Second)
	return Time{Seconds: int32(w.Unix()), Fraction: uint32(fraction)}
}

// Duration shares Time's layout and reserved values.
type Duration struct {
	Seconds  int32
	Fraction uint32
}

// Reserved Duration values.
var (
	DurationZero     = Duration{Seconds: 0, Fraction: 0}
	DurationInvalid  = Duration{Seconds: -1, Fraction: 0xFFFFFFFF}
	DurationInfinite = Duration{Seconds: 0x7FFFFFFF, Fraction: 0xFFFFFFFF}
)

const durationSize = 8

func (d Duration) marshalTo(order binary.ByteOrder, b []byte) int {
	order.PutUint32(b[0:], uint32(d.Seconds))
	order.PutUint32(b[4:], d.Fraction)
	return durationSize
}

func unmarshalDuration(order binary.ByteOrder, b []byte) (Duration, error) {
	if len(b) < durationSize {
		return Duration{}, fmt.Errorf("%w: duration needs %d bytes, got %d", ErrTruncated, durationSize, len(b))
	}
	return Duration{
		Seconds:  int32(order.Uint32(b[0:])),
		Fraction: order.Uint32(b[4:]),
	}, nil
}

// TopicKind is a 32-bit tagged enum distinguishing keyed from unkeyed topics.
type TopicKind uint32

// Topic kind values.
const (
	TopicKindNoKey   TopicKind = 1
	TopicKindWithKey TopicKind = 2
)

func (k TopicKind) String() string {
	switch k {
	case TopicKindNoKey:
		return "NO_KEY"
	case TopicKindWithKey:
		return "WITH_KEY"
	default:
		return fmt.Sprintf("TopicKind(%d)", uint32(k))
	}
}
