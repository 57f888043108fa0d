// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownResource is returned for a path the streamer cannot serve.
var ErrUnknownResource = errors.New("sensors: unknown resource")

// Kind is the physical sensor behind a resource.
type Kind uint8

const (
	Accelerometer Kind = iota
	Gyroscope
)

func (k Kind) String() string {
	if k == Gyroscope {
		return "Gyro"
	}
	return "Acc"
}

// Resource is a parsed stream path such as /Meas/Gyro/52.
type Resource struct {
	Kind   Kind
	RateHz int
}

func (r Resource) String() string {
	return fmt.Sprintf("/Meas/%s/%d", r.Kind, r.RateHz)
}

// ParseResource parses "/Meas/<Acc|Gyro>/<rate>".
func ParseResource(path string) (Resource, error) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "Meas" {
		return Resource{}, fmt.Errorf("%w: %q", ErrUnknownResource, path)
	}

	var r Resource
	switch parts[1] {
	case "Acc":
		r.Kind = Accelerometer
	case "Gyro":
		r.Kind = Gyroscope
	default:
		return Resource{}, fmt.Errorf("%w: %q", ErrUnknownResource, path)
	}

	rate, err := strconv.Atoi(parts[2])
	if err != nil || rate <= 0 || rate > 1000 {
		return Resource{}, fmt.Errorf("%w: bad sample rate in %q", ErrUnknownResource, path)
	}
	r.RateHz = rate
	return r, nil
}
