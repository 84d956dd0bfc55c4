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

	log "github.com/sirupsen/logrus"
)

// ReceiverContext holds everything a MessageReceiver has learned about the
// message currently being decoded: the source/destination participant
// identity established by the header and any INFO_SRC/INFO_DST/INFO_REPLY/
// INFO_TS interpreter submessages seen so far.
type ReceiverContext struct {
	SourceVersion    ProtocolVersion
	SourceVendorID   VendorID
	SourceGUIDPrefix GUIDPrefix
	DestGUIDPrefix   GUIDPrefix

	UnicastReplyLocatorList   LocatorList
	MulticastReplyLocatorList LocatorList

	HaveTimestamp bool
	Timestamp     Time
}

func newReceiverContext(locatorKind int32) ReceiverContext {
	invalid := LocatorInvalid(locatorKind)
	return ReceiverContext{
		SourceVersion:             ProtocolVersion2_4,
		SourceVendorID:            VendorUnknown,
		SourceGUIDPrefix:          GUIDPrefixUnknown,
		DestGUIDPrefix:            GUIDPrefixUnknown,
		UnicastReplyLocatorList:   LocatorList{invalid},
		MulticastReplyLocatorList: LocatorList{invalid},
		HaveTimestamp:             false,
		Timestamp:                 TimeInvalid,
	}
}

// decoderState is the two-state machine from the RTPS message grammar:
// every message starts with exactly one header, followed by zero or more
// submessages.
type decoderState int

const (
	stateReadingHeader decoderState = iota
	stateReadingSubmessage
)

// MessageReceiver is a stateful, pull-style decoder for a single RTPS
// message stream: each call to Decode advances it by exactly one header or
// one submessage, returning at most one EntitySubmessage notification.
// Interpreter submessages (INFO_SRC, INFO_DST, INFO_REPLY, INFO_TS, PAD)
// are applied to Context and never surfaced as notifications.
//
// A MessageReceiver is not safe for concurrent use; construct one per
// connection/goroutine.
type MessageReceiver struct {
	Context     ReceiverContext
	locatorKind int32
	state       decoderState
}

// NewMessageReceiver returns a receiver in its initial state, seeding
// reply locator lists with an invalid locator of the given kind (typically
// LocatorKindUDPv4).
func NewMessageReceiver(locatorKind int32) *MessageReceiver {
	return &MessageReceiver{
		Context:     newReceiverContext(locatorKind),
		locatorKind: locatorKind,
		state:       stateReadingHeader,
	}
}

// Decode consumes either the fixed RTPS header or one submessage from the
// front of data, returning how many bytes were consumed. msg is non-nil
// only when an entity submessage (ACKNACK, GAP, HEARTBEAT, HEARTBEAT_FRAG,
// NACK_FRAG) was decoded; interpreter submessages and the header itself
// return a nil msg with no error.
//
// A body-level parse error resets the receiver to expect a fresh header on
// the next call, per the RTPS framing rule that a corrupt submessage
// invalidates the rest of the current message.
func (m *MessageReceiver) Decode(data []byte) (int, *EntitySubmessage, error) {
	switch m.state {
	case stateReadingHeader:
		return m.decodeHeader(data)
	case stateReadingSubmessage:
		return m.decodeSubmessage(data)
	default:
		panic("rtps: unreachable decoder state")
	}
}

func (m *MessageReceiver) decodeHeader(data []byte) (int, *EntitySubmessage, error) {
	var h Header
	if err := unmarshalHeader(&h, data); err != nil {
		return 0, nil, err
	}
	if !h.Valid() {
		return 0, nil, fmt.Errorf("%w: magic %q version %s", ErrInvalidHeader, h.Magic, h.Version)
	}
	m.Context.SourceGUIDPrefix = h.GUIDPrefix
	m.Context.SourceVersion = h.Version
	m.Context.SourceVendorID = h.VendorID
	m.Context.HaveTimestamp = false
	m.state = stateReadingSubmessage
	return headerSize, nil, nil
}

func (m *MessageReceiver) decodeSubmessage(data []byte) (int, *EntitySubmessage, error) {
	if len(data) < submessageHeaderSize {
		return 0, nil, fmt.Errorf("%w: submessage header needs %d bytes, got %d", ErrTruncated, submessageHeaderSize, len(data))
	}
	hdr, err := unmarshalSubmessageHeader(data)
	if err != nil {
		return 0, nil, err
	}
	bodyLen := int(hdr.Length)
	total := submessageHeaderSize + bodyLen
	if len(data) < total {
		m.state = stateReadingHeader
		return 0, nil, fmt.Errorf("%w: submessage %s body needs %d bytes, got %d", ErrTruncated, hdr.Kind, bodyLen, len(data)-submessageHeaderSize)
	}
	body := data[submessageHeaderSize:total]
	order := hdr.Flags.ByteOrder()

	// A submessage_length of zero marks the last submessage of the datagram
	// for every kind except INFO_TS and PAD, whose bodies are legitimately
	// empty; the body is still taken as exactly Length (zero) bytes, and the
	// receiver expects a fresh header afterwards.
	if hdr.Length == 0 && hdr.Kind != KindInfoTS && hdr.Kind != KindPad {
		m.state = stateReadingHeader
	}

	msg, err := m.dispatch(hdr, order, body)
	if err != nil {
		m.state = stateReadingHeader
		return 0, nil, err
	}
	return total, msg, nil
}

func (m *MessageReceiver) dispatch(hdr SubmessageHeader, order binary.ByteOrder, body []byte) (*EntitySubmessage, error) {
	switch hdr.Kind {
	case KindAckNack:
		var an AckNack
		if _, err := an.UnmarshalBinary(order, body); err != nil {
			return nil, fmt.Errorf("acknack: %w", err)
		}
		return &EntitySubmessage{Kind: hdr.Kind, Flags: hdr.Flags, AckNack: &an}, nil

	case KindGap:
		var g Gap
		if _, err := g.UnmarshalBinary(order, body); err != nil {
			return nil, fmt.Errorf("gap: %w", err)
		}
		return &EntitySubmessage{Kind: hdr.Kind, Flags: hdr.Flags, Gap: &g}, nil

	case KindHeartbeat:
		var h Heartbeat
		if _, err := h.UnmarshalBinary(order, body); err != nil {
			return nil, fmt.Errorf("heartbeat: %w", err)
		}
		return &EntitySubmessage{Kind: hdr.Kind, Flags: hdr.Flags, Heartbeat: &h}, nil

	case KindHeartbeatFrag:
		var h HeartbeatFrag
		if _, err := h.UnmarshalBinary(order, body); err != nil {
			return nil, fmt.Errorf("heartbeat frag: %w", err)
		}
		return &EntitySubmessage{Kind: hdr.Kind, Flags: hdr.Flags, HeartbeatFrag: &h}, nil

	case KindNackFrag:
		var n NackFrag
		if _, err := n.UnmarshalBinary(order, body); err != nil {
			return nil, fmt.Errorf("nack frag: %w", err)
		}
		return &EntitySubmessage{Kind: hdr.Kind, Flags: hdr.Flags, NackFrag: &n}, nil

	case KindInfoSrc:
		var is InfoSource
		if _, err := is.UnmarshalBinary(order, body); err != nil {
			return nil, fmt.Errorf("info src: %w", err)
		}
		m.Context.SourceGUIDPrefix = is.GUIDPrefix
		m.Context.SourceVersion = is.ProtocolVersion
		m.Context.SourceVendorID = is.VendorID
		invalid := LocatorInvalid(m.locatorKind)
		m.Context.UnicastReplyLocatorList = LocatorList{invalid}
		m.Context.MulticastReplyLocatorList = LocatorList{invalid}
		m.Context.HaveTimestamp = false
		return nil, nil

	case KindInfoDst:
		var id InfoDestination
		if _, err := id.UnmarshalBinary(order, body); err != nil {
			return nil, fmt.Errorf("info dst: %w", err)
		}
		if id.GUIDPrefix != GUIDPrefixUnknown {
			m.Context.DestGUIDPrefix = id.GUIDPrefix
		}
		return nil, nil

	case KindInfoReply:
		ir, _, err := unmarshalInfoReply(order, body, hdr.Flags.Has(FlagMulticast))
		if err != nil {
			return nil, fmt.Errorf("info reply: %w", err)
		}
		m.Context.UnicastReplyLocatorList = ir.UnicastLocatorList
		m.Context.MulticastReplyLocatorList = ir.MulticastLocatorList
		return nil, nil

	case KindInfoTS:
		ts, _, err := unmarshalInfoTimestamp(order, body, hdr.Flags.Has(FlagInvalidate))
		if err != nil {
			return nil, fmt.Errorf("info ts: %w", err)
		}
		m.Context.HaveTimestamp = ts.Present
		if ts.Present {
			m.Context.Timestamp = ts.Timestamp
		}
		return nil, nil

	case KindPad:
		return nil, nil

	case KindData, KindDataFrag:
		return nil, fmt.Errorf("%w: %s", ErrUnimplemented, hdr.Kind)

	default:
		log.WithField("kind", hdr.Kind).Debug("rtps: received unknown submessage kind, skipping")
		return nil, nil
	}
}

// DecodeAll drains every header and submessage out of a complete datagram,
// returning the entity submessages emitted along the way. It is a thin
// convenience built entirely out of repeated Decode calls; callers that
// want incremental decoding (e.g. a framed transport) should call Decode
// directly instead.
func (m *MessageReceiver) DecodeAll(data []byte) ([]EntitySubmessage, error) {
	var out []EntitySubmessage
	pos := 0
	for pos < len(data) {
		consumed, msg, err := m.Decode(data[pos:])
		if err != nil {
			return out, err
		}
		if msg != nil {
			out = append(out, *msg)
		}
		pos += consumed
	}
	return out, nil
}
