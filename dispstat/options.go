/*
 * options.go, part of gomsd.
 *
 * Copyright 2026 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package dispstat

import (
	"fmt"
	"strings"
)

//OriginMode is the choice of time origins for the displacements.
type OriginMode int

const (
	//Every frame (or every stride-th frame) of the segment is an origin.
	Sliding OriginMode = iota
	//Only the first frame of each segment is an origin.
	FirstFrame
)

func (O OriginMode) String() string {
	if O == FirstFrame {
		return "first"
	}
	return "sliding"
}

//ParseOriginMode returns the mode named by s, "sliding" (or empty) or "first".
func ParseOriginMode(s string) (OriginMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sliding", "all":
		return Sliding, nil
	case "first", "first_frame", "firstframe":
		return FirstFrame, nil
	}
	return Sliding, fmt.Errorf("unknown origin mode %q", s)
}

//MarshalText allows using the mode in JSON and config files.
func (O OriginMode) MarshalText() ([]byte, error) {
	return []byte(O.String()), nil
}

//UnmarshalText parses the mode from text.
func (O *OriginMode) UnmarshalText(b []byte) error {
	m, err := ParseOriginMode(string(b))
	if err != nil {
		return err
	}
	*O = m
	return nil
}

//Options for the accumulation and the finalization.
type Options struct {
	stride  int
	maxLag  int
	origins OriginMode
	epsilon float64
}

//DefaultOptions returns a stride of 1, no lag limit, sliding origins and 1e-12 as the
//threshold for near-zero denominators.
func DefaultOptions() *Options {
	return &Options{stride: 1, origins: Sliding, epsilon: 1e-12}
}

//Stride sets the spacing between time origins if a value is given, and returns the current value.
func (O *Options) Stride(s ...int) int {
	if len(s) > 0 && s[0] > 0 {
		O.stride = s[0]
	}
	return O.stride
}

//MaxLag sets the largest lag, in frames, to accumulate, and returns the current value.
//0 means every lag the segment allows.
func (O *Options) MaxLag(l ...int) int {
	if len(l) > 0 && l[0] >= 0 {
		O.maxLag = l[0]
	}
	return O.maxLag
}

//Origins sets the origin mode if given, and returns the current one.
func (O *Options) Origins(m ...OriginMode) OriginMode {
	if len(m) > 0 {
		O.origins = m[0]
	}
	return O.origins
}

//Epsilon sets the threshold below which a denominator is considered zero, and returns the current value.
func (O *Options) Epsilon(e ...float64) float64 {
	if len(e) > 0 && e[0] > 0 {
		O.epsilon = e[0]
	}
	return O.epsilon
}
