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

package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/klapeyron/rtps/rtps"
)

// conventional RTPS discovery/user-traffic UDP ports (domain 0: multicast
// metatraffic, multicast user traffic, unicast metatraffic, unicast user
// traffic).
const (
	portDiscoveryMulticast layers.UDPPort = 7400
	portUserMulticast      layers.UDPPort = 7401
	portDiscoveryUnicast   layers.UDPPort = 7410
	portUserUnicast        layers.UDPPort = 7411
)

// MultiKind is a wrapper around []rtps.SubmessageKind to parse from flags.
type MultiKind []rtps.SubmessageKind

var kindsByName = map[string]rtps.SubmessageKind{
	"ACKNACK":        rtps.KindAckNack,
	"GAP":            rtps.KindGap,
	"HEARTBEAT":      rtps.KindHeartbeat,
	"HEARTBEAT_FRAG": rtps.KindHeartbeatFrag,
	"NACK_FRAG":      rtps.KindNackFrag,
}

// Set adds a submessage kind to the filter.
func (k *MultiKind) Set(kind string) error {
	v, ok := kindsByName[strings.ToUpper(kind)]
	if !ok {
		return fmt.Errorf("unsupported msgtype %q", kind)
	}
	*k = append(*k, v)
	return nil
}

// String returns the joined list of filtered kinds.
func (k *MultiKind) String() string {
	s := []string{}
	for _, v := range []rtps.SubmessageKind(*k) {
		s = append(s, v.String())
	}
	return strings.Join(s, ",")
}

// GetDefaults returns the default kind filter: every entity submessage kind.
func (k *MultiKind) GetDefaults() []rtps.SubmessageKind {
	return []rtps.SubmessageKind{
		rtps.KindAckNack, rtps.KindGap, rtps.KindHeartbeat, rtps.KindHeartbeatFrag, rtps.KindNackFrag,
	}
}

// SetDefault fills the filter with every kind if the user gave none.
func (k *MultiKind) SetDefault() {
	if len([]rtps.SubmessageKind(*k)) != 0 {
		return
	}
	*k = append(*k, k.GetDefaults()...)
}

// LayerRTPS wraps the entity submessages a single datagram decoded to.
type LayerRTPS struct {
	layers.BaseLayer

	Messages []rtps.EntitySubmessage
}

// LayerTypeRTPS is registered as a gopacket layer type.
var LayerTypeRTPS = gopacket.RegisterLayerType(
	1473,
	gopacket.LayerTypeMetadata{
		Name:    "RTPS",
		Decoder: gopacket.DecodeFunc(decodeRTPS),
	},
)

// LayerType returns the type this layer implements.
func (l *LayerRTPS) LayerType() gopacket.LayerType {
	return LayerTypeRTPS
}

// Payload is empty; RTPS is the final layer in this dump tool.
func (l *LayerRTPS) Payload() []byte {
	return nil
}

func decodeRTPS(data []byte, p gopacket.PacketBuilder) error {
	recv := rtps.NewMessageReceiver(rtps.LocatorKindUDPv4)
	msgs, err := recv.DecodeAll(data)
	if err != nil && len(msgs) == 0 {
		return fmt.Errorf("decoding RTPS message: %w", err)
	}
	d := &LayerRTPS{}
	d.BaseLayer = layers.BaseLayer{Contents: data[:]}
	d.Messages = msgs
	p.AddLayer(d)
	p.SetApplicationLayer(d)
	return nil
}

// packetHandle abstracts packet handles provided by pcapgo.Reader and pcapgo.NgReader.
type packetHandle interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

func run(input string, filter []rtps.SubmessageKind) error {
	// register the RTPS layer against every conventional metatraffic/user port
	for _, port := range []layers.UDPPort{portDiscoveryMulticast, portUserMulticast, portDiscoveryUnicast, portUserUnicast} {
		layers.RegisterUDPPortLayerType(port, LayerTypeRTPS)
	}

	filterMap := map[rtps.SubmessageKind]bool{}
	for _, v := range filter {
		filterMap[v] = true
	}

	var handle packetHandle
	var err error

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	// try NgReader, if it fails - fall back to Reader
	handle, err = pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if err != nil {
		if _, ierr := f.Seek(0, 0); ierr != nil {
			return fmt.Errorf("seeking in %s: %w", input, ierr)
		}
		handle, err = pcapgo.NewReader(f)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", input, err)
		}
	}

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range packetSource.Packets() {
		rtpsLayer := packet.Layer(LayerTypeRTPS)
		if rtpsLayer != nil {
			rtpsContent, _ := rtpsLayer.(*LayerRTPS)

			var srcIP, dstIP net.IP
			var srcPort, dstPort layers.UDPPort
			ip6Layer := packet.Layer(layers.LayerTypeIPv6)
			if ip6Layer != nil {
				ip, _ := ip6Layer.(*layers.IPv6)
				srcIP = ip.SrcIP
				dstIP = ip.DstIP
			} else {
				ip4Layer := packet.Layer(layers.LayerTypeIPv4)
				ip, _ := ip4Layer.(*layers.IPv4)
				srcIP = ip.SrcIP
				dstIP = ip.DstIP
			}

			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer != nil {
				udp, _ := udpLayer.(*layers.UDP)
				srcPort = udp.SrcPort
				dstPort = udp.DstPort
			}

			for _, msg := range rtpsContent.Messages {
				if !filterMap[msg.Kind] {
					continue
				}
				spew.Printf("%s -> %s\n",
					net.JoinHostPort(srcIP.String(), strconv.Itoa(int(srcPort))),
					net.JoinHostPort(dstIP.String(), strconv.Itoa(int(dstPort))),
				)
				spew.Dump(msg)
				spew.Println()
			}
		}
		if err := packet.ErrorLayer(); err != nil {
			return fmt.Errorf("failed to decode: %w", err.Error())
		}
	}
	return nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "rtpsdump: RTPS-specific poor man's tshark. Dumps RTPS submessages parsed from a capture file to stdout.\nUsage:\n")
		fmt.Fprintf(flag.CommandLine.Output(), "%s [file]\n", os.Args[0])
		fmt.Fprint(flag.CommandLine.Output(), "where [file] is any .pcap or .pcapng packet capture\n")
		flag.PrintDefaults()
	}
	var kinds MultiKind
	flag.Var(&kinds, "msgtype", fmt.Sprintf("Only print certain RTPS submessage types. Choose from: %v. Repeat for multiple", kinds.GetDefaults()))
	flag.Parse()
	if len(flag.Args()) != 1 {
		flag.Usage()
		os.Exit(1)
	}
	kinds.SetDefault()
	if err := run(flag.Arg(0), kinds); err != nil {
		log.Fatal(err)
	}
}
