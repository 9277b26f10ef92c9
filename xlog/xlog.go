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

// Package xlog is a small structured-logging facade over logrus, in the
// shape of the teacher's logger.Options: a level and a *logrus.Logger,
// without the teacher's full hook-registration machinery (syslog, file
// rotation, gorm, hclog), which this module has no use for.
package xlog

import (
	"github/sabouaram/enet/logger/level"

	"github.com/sirupsen/logrus"
)

// New builds a *logrus.Logger at lvl, logging to the logger's default
// output (stderr) in logrus's text formatter.
func New(lvl level.Level) *logrus.Logger {
	l := logrus.New()
	l.SetLevel(lvl.Logrus())
	return l
}

// PeerFields builds the structured-field map this module's Host attaches to
// every peer-scoped log line, following the teacher's field-map convention
// over ad hoc string formatting.
func PeerFields(peerID uint16, channelID uint8, command uint8) logrus.Fields {
	return logrus.Fields{
		"peer_id":    peerID,
		"channel_id": channelID,
		"command":    command,
	}
}
