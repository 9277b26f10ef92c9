/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package enet

import (
	"fmt"
	"time"

	libdur "github/sabouaram/enet/duration"
	liberr "github/sabouaram/enet/errors"

	libval "github.com/go-playground/validator/v10"
)

// Config is the host construction configuration (§6.5). Zero-valued
// optional fields (Compressor, Checksum) are simply not used.
type Config struct {
	PeerLimit   uint16 `validate:"gte=1,lte=4095"`
	ChannelLimit uint8  `validate:"gte=1"`

	IncomingBandwidth uint32 // 0 = unlimited
	OutgoingBandwidth uint32 // 0 = unlimited

	MTU uint32 `validate:"gte=576,lte=4096"`

	MaximumPacketSize  uint32
	MaximumWaitingData uint32

	PingInterval           libdur.Duration
	TimeoutLimit           uint32
	TimeoutMinimum         libdur.Duration
	TimeoutMaximum         libdur.Duration
	PacketThrottleInterval libdur.Duration
	ThrottleAcceleration   uint32
	ThrottleDeceleration   uint32
	DefaultRoundTripTime   libdur.Duration

	RandomSeed uint32

	Compressor Compressor
	Checksum   Checksum
}

// DefaultConfig returns the configuration defaults enumerated in §6.5.
func DefaultConfig() Config {
	return Config{
		PeerLimit:              32,
		ChannelLimit:           1,
		MTU:                    1392,
		MaximumPacketSize:      32 * 1024 * 1024,
		MaximumWaitingData:     32 * 1024 * 1024,
		PingInterval:           libdur.ParseDuration(500 * time.Millisecond),
		TimeoutLimit:           32,
		TimeoutMinimum:         libdur.Seconds(5),
		TimeoutMaximum:         libdur.Seconds(30),
		PacketThrottleInterval: libdur.Seconds(5),
		ThrottleAcceleration:   2,
		ThrottleDeceleration:   2,
		DefaultRoundTripTime:   libdur.ParseDuration(500 * time.Millisecond),
	}
}

// Validate checks Config against its field constraints, following the
// validator-backed idiom used throughout this module's ambient config
// structs: validate, then translate each failing field into a liberr.Error.
func (c *Config) Validate() liberr.Error {
	err := libval.New().Struct(c)
	if err == nil {
		return nil
	}

	e := ErrInvalidArgument.Error(nil)
	if verr, ok := err.(libval.ValidationErrors); ok {
		for _, fe := range verr {
			e.Add(fmt.Errorf("field %s failed on %s", fe.Namespace(), fe.ActualTag()))
		}
	} else {
		e.Add(err)
	}
	return e
}
