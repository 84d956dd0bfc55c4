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
	"testing"

	"github.com/stretchr/testify/require"
)

var byteOrders = []binary.ByteOrder{binary.LittleEndian, binary.BigEndian}

func TestAckNackRoundTrip(t *testing.T) {
	snState := NewRangedBitSet[SequenceNumber](1)
	for _, order := range byteOrders {
		want := &AckNack{
			ReaderID:      EntityIDSEDPBuiltinSubscriptionsReader,
			WriterID:      EntityIDSEDPBuiltinSubscriptionsWriter,
			ReaderSNState: snState,
			Count:         1,
		}
		buf := make([]byte, 64)
		n, err := want.MarshalBinaryTo(order, buf)
		require.NoError(t, err)

		var got AckNack
		consumed, err := got.UnmarshalBinary(order, buf[:n])
		require.NoError(t, err)
		require.Equal(t, n, consumed)
		require.Equal(t, want, &got)
	}
}

func TestGapRoundTrip(t *testing.T) {
	for _, order := range byteOrders {
		want := &Gap{
			ReaderID: EntityIDP2PBuiltinParticipantMessageReader,
			WriterID: EntityIDP2PBuiltinParticipantMessageWriter,
			GapStart: 42,
			GapList:  NewRangedBitSet[SequenceNumber](42),
		}
		buf := make([]byte, 64)
		n, err := want.MarshalBinaryTo(order, buf)
		require.NoError(t, err)

		var got Gap
		consumed, err := got.UnmarshalBinary(order, buf[:n])
		require.NoError(t, err)
		require.Equal(t, n, consumed)
		require.Equal(t, want, &got)
	}
}

func TestHeartbeatRoundTrip(t *testing.T) {
	for _, order := range byteOrders {
		want := &Heartbeat{
			ReaderID: EntityIDP2PBuiltinParticipantMessageReader,
			WriterID: EntityIDP2PBuiltinParticipantMessageWriter,
			FirstSN:  7,
			LastSN:   11,
			Count:    99,
		}
		buf := make([]byte, heartbeatSize)
		n, err := want.MarshalBinaryTo(order, buf)
		require.NoError(t, err)
		require.Equal(t, heartbeatSize, n)

		var got Heartbeat
		consumed, err := got.UnmarshalBinary(order, buf)
		require.NoError(t, err)
		require.Equal(t, heartbeatSize, consumed)
		require.Equal(t, want, &got)
	}
}

func TestHeartbeatFragRoundTrip(t *testing.T) {
	for _, order := range byteOrders {
		want := &HeartbeatFrag{
			ReaderID:        EntityIDP2PBuiltinParticipantMessageReader,
			WriterID:        EntityIDP2PBuiltinParticipantMessageWriter,
			WriterSN:        36,
			LastFragmentNum: 33,
			Count:           12345,
		}
		buf := make([]byte, heartbeatFragSize)
		n, err := want.MarshalBinaryTo(order, buf)
		require.NoError(t, err)
		require.Equal(t, heartbeatFragSize, n)

		var got HeartbeatFrag
		consumed, err := got.UnmarshalBinary(order, buf)
		require.NoError(t, err)
		require.Equal(t, heartbeatFragSize, consumed)
		require.Equal(t, want, &got)
	}
}

func TestNackFragRoundTrip(t *testing.T) {
	for _, order := range byteOrders {
		want := &NackFrag{
			ReaderID:            EntityIDP2PBuiltinParticipantMessageReader,
			WriterID:            EntityIDP2PBuiltinParticipantMessageWriter,
			WriterSN:            69,
			FragmentNumberState: NewRangedBitSet[FragmentNumber](96),
			Count:               54321,
		}
		buf := make([]byte, 64)
		n, err := want.MarshalBinaryTo(order, buf)
		require.NoError(t, err)

		var got NackFrag
		consumed, err := got.UnmarshalBinary(order, buf[:n])
		require.NoError(t, err)
		require.Equal(t, n, consumed)
		require.Equal(t, want, &got)
	}
}

func TestInfoSourceWireSize(t *testing.T) {
	is := &InfoSource{
		ProtocolVersion: ProtocolVersion2_4,
		VendorID:        VendorUnknown,
		GUIDPrefix:      GUIDPrefixUnknown,
	}
	buf := make([]byte, infoSourceSize)
	n, err := is.MarshalBinaryTo(binary.BigEndian, buf)
	require.NoError(t, err)
	require.Equal(t, infoSourceSize, n)
	require.Equal(t, 16, infoSourceSize)

	var got InfoSource
	consumed, err := got.UnmarshalBinary(binary.BigEndian, buf)
	require.NoError(t, err)
	require.Equal(t, infoSourceSize, consumed)
	require.Equal(t, is, &got)
}

func TestInfoDestinationRoundTrip(t *testing.T) {
	id := &InfoDestination{GUIDPrefix: GUIDPrefix{0x42, 0x42, 0x42, 0x42, 0x42, 0x42, 0x42, 0x42, 0x42, 0x42, 0x42, 0x42}}
	buf := make([]byte, guidPrefixSize)
	n, err := id.MarshalBinaryTo(binary.BigEndian, buf)
	require.NoError(t, err)
	require.Equal(t, guidPrefixSize, n)

	var got InfoDestination
	_, err = got.UnmarshalBinary(binary.BigEndian, buf)
	require.NoError(t, err)
	require.Equal(t, id, &got)
}

func TestInfoReplyRoundTripWithAndWithoutMulticast(t *testing.T) {
	unicastOnly := InfoReply{UnicastLocatorList: LocatorList{LocatorInvalid(LocatorKindUDPv4)}}
	buf := make([]byte, 256)
	n := marshalInfoReplyTo(unicastOnly, binary.LittleEndian, buf)
	got, consumed, err := unmarshalInfoReply(binary.LittleEndian, buf[:n], false)
	require.NoError(t, err)
	require.Equal(t, n, consumed)
	require.Equal(t, unicastOnly.UnicastLocatorList, got.UnicastLocatorList)
	require.Nil(t, got.MulticastLocatorList)

	withMulticast := InfoReply{
		UnicastLocatorList:   LocatorList{LocatorInvalid(LocatorKindUDPv4)},
		MulticastLocatorList: LocatorList{{Kind: LocatorKindUDPv4, Port: 8080, Address: [16]byte{12: 127, 15: 1}}, {Kind: LocatorKindUDPv6, Port: 8080}},
	}
	buf = make([]byte, 256)
	n = marshalInfoReplyTo(withMulticast, binary.LittleEndian, buf)
	got, consumed, err = unmarshalInfoReply(binary.LittleEndian, buf[:n], true)
	require.NoError(t, err)
	require.Equal(t, n, consumed)
	require.Equal(t, withMulticast.UnicastLocatorList, got.UnicastLocatorList)
	require.Equal(t, withMulticast.MulticastLocatorList, got.MulticastLocatorList)
}

func TestInfoTimestampPresenceControlledByInvalidateFlag(t *testing.T) {
	buf := make([]byte, timeSize)
	TimeInfinite.marshalTo(binary.BigEndian, buf)

	present, n, err := unmarshalInfoTimestamp(binary.BigEndian, buf, false)
	require.NoError(t, err)
	require.Equal(t, timeSize, n)
	require.True(t, present.Present)
	require.Equal(t, TimeInfinite, present.Timestamp)

	absent, n, err := unmarshalInfoTimestamp(binary.BigEndian, buf, true)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.False(t, absent.Present)
}
