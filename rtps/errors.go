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

import "errors"

// Sentinel errors returned (wrapped with additional context via fmt.Errorf
// and "%w") by the decoder. Callers should match against these with
// errors.Is rather than comparing strings.
var (
	// ErrInvalidHeader means the fixed RTPS header failed its magic or
	// minimum-version check. It is also returned when a sequence-number or
	// fragment-number set declares a num_bits beyond the 256-bit capacity.
	ErrInvalidHeader = errors.New("rtps: invalid header")

	// ErrTruncated means fewer bytes were available than a primitive,
	// container, or submessage body declared it needed.
	ErrTruncated = errors.New("rtps: truncated data")

	// ErrUnimplemented means the submessage kind is recognized but its body
	// is not decoded by this package (DATA, DATA_FRAG).
	ErrUnimplemented = errors.New("rtps: unimplemented submessage kind")

	// ErrInvalidTime means a Time has no corresponding wallclock instant
	// (TIME_INVALID has no valid conversion).
	ErrInvalidTime = errors.New("rtps: time has no wallclock representation")
)
