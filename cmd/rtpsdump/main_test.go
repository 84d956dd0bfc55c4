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
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"

	"github.com/klapeyron/rtps/rtps"
)

func TestConventionalPortTable(t *testing.T) {
	require.Equal(t, []layers.UDPPort{7400, 7401, 7410, 7411}, []layers.UDPPort{
		portDiscoveryMulticast, portUserMulticast, portDiscoveryUnicast, portUserUnicast,
	})
}

func TestMultiKindSetAndDefault(t *testing.T) {
	var k MultiKind
	require.NoError(t, k.Set("heartbeat"))
	require.NoError(t, k.Set("GAP"))
	require.Equal(t, MultiKind{rtps.KindHeartbeat, rtps.KindGap}, k)
	require.Error(t, k.Set("not_a_kind"))

	var empty MultiKind
	empty.SetDefault()
	require.ElementsMatch(t, empty.GetDefaults(), []rtps.SubmessageKind(empty))
}

func TestRTPSLayerTypeRegistered(t *testing.T) {
	// LayerTypeRTPS must register without panicking and be distinct from
	// gopacket's built-in layer types.
	require.NotEqual(t, gopacket.LayerTypePayload, LayerTypeRTPS)
	require.Equal(t, "RTPS", LayerTypeRTPS.String())
}
