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

func TestLocatorUDPv4Wire(t *testing.T) {
	// 127.0.0.1:8080
	l := LocatorUDPv4{Address: 0x7F000001, Port: 8080}

	le := hexBytes("01 00 00 7F 90 1F 00 00")
	buf := make([]byte, locatorUDPv4Size)
	l.marshalTo(binary.LittleEndian, buf)
	require.Equal(t, le, buf)

	be := hexBytes("7F 00 00 01 00 00 1F 90")
	buf = make([]byte, locatorUDPv4Size)
	l.marshalTo(binary.BigEndian, buf)
	require.Equal(t, be, buf)

	gotLE, err := unmarshalLocatorUDPv4(binary.LittleEndian, le)
	require.NoError(t, err)
	require.Equal(t, l, gotLE)

	gotBE, err := unmarshalLocatorUDPv4(binary.BigEndian, be)
	require.NoError(t, err)
	require.Equal(t, l, gotBE)
}

func TestLocatorRoundTrip(t *testing.T) {
	l := Locator{Kind: LocatorKindUDPv4, Port: 7400, Address: [16]byte{12: 127, 13: 0, 14: 0, 15: 1}}
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		buf := make([]byte, locatorSize)
		l.marshalTo(order, buf)
		got, err := unmarshalLocator(order, buf)
		require.NoError(t, err)
		require.Equal(t, l, got)
	}

	addr, err := l.UDPAddr()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", addr.IP.String())
	require.Equal(t, 7400, addr.Port)
}

func TestLocatorListLengthPrefixed(t *testing.T) {
	list := LocatorList{
		LocatorInvalid(LocatorKindUDPv4),
		{Kind: LocatorKindUDPv4, Port: 8080, Address: [16]byte{12: 127, 15: 1}},
	}
	buf := make([]byte, 4+len(list)*locatorSize)
	n := marshalLocatorListTo(list, binary.LittleEndian, buf)
	require.Equal(t, len(buf), n)

	got, consumed, err := unmarshalLocatorListReportingLength(binary.LittleEndian, buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), consumed)
	require.Equal(t, list, got)
}

func TestLocatorListRejectsCountExceedingRemainingBytes(t *testing.T) {
	buf := make([]byte, 4+locatorSize)
	binary.LittleEndian.PutUint32(buf, 0xFFFFFFFF)

	_, _, err := unmarshalLocatorListReportingLength(binary.LittleEndian, buf)
	require.ErrorIs(t, err, ErrTruncated)
}
