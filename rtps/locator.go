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
	"net"
)

// Locator kind values. Negative and zero values are reserved; the address
// family discriminates how Address is interpreted.
const (
	LocatorKindInvalid  int32 = -1
	LocatorKindReserved int32 = 0
	LocatorKindUDPv4    int32 = 1
	LocatorKindUDPv6    int32 = 2
)

// Locator is a transport-independent network address: a 4-byte kind, a
// 4-byte port, and a 16-byte address whose interpretation depends on kind.
// The address field is an endianness-invariant byte array, like EntityID
// and GUIDPrefix.
type Locator struct {
	Kind    int32
	Port    uint32
	Address [16]byte
}

const locatorSize = 24

// LocatorInvalid is the reserved "no locator" value for a given kind.
func LocatorInvalid(kind int32) Locator {
	return Locator{Kind: kind, Port: 0}
}

// UDPAddr returns the locator's address as a *net.UDPAddr, assuming kind
// LocatorKindUDPv4 (the low 4 bytes of Address hold a big-endian dotted
// quad) or LocatorKindUDPv6 (all 16 bytes hold the address directly).
func (l Locator) UDPAddr() (*net.UDPAddr, error) {
	switch l.Kind {
	case LocatorKindUDPv4:
		ip := net.IPv4(l.Address[12], l.Address[13], l.Address[14], l.Address[15])
		return &net.UDPAddr{IP: ip, Port: int(l.Port)}, nil
	case LocatorKindUDPv6:
		ip := make(net.IP, 16)
		copy(ip, l.Address[:])
		return &net.UDPAddr{IP: ip, Port: int(l.Port)}, nil
	default:
		return nil, fmt.Errorf("locator kind %d has no UDP address interpretation", l.Kind)
	}
}

func (l Locator) marshalTo(order binary.ByteOrder, b []byte) int {
	order.PutUint32(b[0:], uint32(l.Kind))
	order.PutUint32(b[4:], l.Port)
	copy(b[8:24], l.Address[:])
	return locatorSize
}

func unmarshalLocator(order binary.ByteOrder, b []byte) (Locator, error) {
	if len(b) < locatorSize {
		return Locator{}, fmt.Errorf("%w: locator needs %d bytes, got %d", ErrTruncated, locatorSize, len(b))
	}
	var l Locator
	l.Kind = int32(order.Uint32(b[0:]))
	l.Port = order.Uint32(b[4:])
	copy(l.Address[:], b[8:24])
	return l, nil
}

// LocatorUDPv4 is the compact four-plus-four-byte UDPv4-only locator form
// used by some discovery parameters; Address packs the dotted quad as a
// single big-endian-ordered integer (a.b.c.d -> ((a*256+b)*256+c)*256+d).
type LocatorUDPv4 struct {
	Address uint32
	Port    uint32
}

const locatorUDPv4Size = 8

// LocatorUDPv4Invalid is the reserved zero value.
var LocatorUDPv4Invalid = LocatorUDPv4{}

func (l LocatorUDPv4) marshalTo(order binary.ByteOrder, b []byte) int {
	order.PutUint32(b[0:], l.Address)
	order.PutUint32(b[4:], l.Port)
	return locatorUDPv4Size
}

func unmarshalLocatorUDPv4(order binary.ByteOrder, b []byte) (LocatorUDPv4, error) {
	if len(b) < locatorUDPv4Size {
		return LocatorUDPv4{}, fmt.Errorf("%w: locator udpv4 needs %d bytes, got %d", ErrTruncated, locatorUDPv4Size, len(b))
	}
	return LocatorUDPv4{
		Address: order.Uint32(b[0:]),
		Port:    order.Uint32(b[4:]),
	}, nil
}

// LocatorList is a length-prefixed sequence of Locator values, as embedded
// back-to-back (unicast then optional multicast) in INFO_REPLY.
type LocatorList []Locator

func marshalLocatorListTo(l LocatorList, order binary.ByteOrder, b []byte) int {
	order.PutUint32(b[0:], uint32(len(l)))
	off := 4
	for _, loc := range l {
		off += loc.marshalTo(order, b[off:])
	}
	return off
}

// unmarshalLocatorListReportingLength decodes a length-prefixed locator
// list and reports how many bytes were consumed, so callers chaining a
// second list (INFO_REPLY's multicast list) know where it starts.
func unmarshalLocatorListReportingLength(order binary.ByteOrder, b []byte) (LocatorList, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("%w: locator list count needs 4 bytes, got %d", ErrTruncated, len(b))
	}
	count := order.Uint32(b[0:])
	off := 4
	if maxCount := uint32(len(b)-off) / locatorSize; count > maxCount {
		return nil, 0, fmt.Errorf("%w: locator list declares %d entries, only room for %d in %d remaining bytes", ErrTruncated, count, maxCount, len(b)-off)
	}
	list := make(LocatorList, 0, count)
	for i := uint32(0); i < count; i++ {
		loc, err := unmarshalLocator(order, b[off:])
		if err != nil {
			return nil, 0, fmt.Errorf("locator list entry %d: %w", i, err)
		}
		list = append(list, loc)
		off += locatorSize
	}
	return list, off, nil
}
