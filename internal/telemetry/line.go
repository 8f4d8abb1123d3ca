// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"fmt"
	"io"
	"strings"
)

// LineFormat selects the text encoding of a LineWriter.
type LineFormat int

const (
	FormatData LineFormat = iota // DATA:... lines
	FormatNMEALine               // $PIMUA sentences
)

// ParseLineFormat maps "data" or "nmea" (any case) to a LineFormat.
func ParseLineFormat(s string) (LineFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "data":
		return FormatData, nil
	case "nmea":
		return FormatNMEALine, nil
	default:
		return 0, fmt.Errorf("telemetry: unknown line format %q (want data or nmea)", s)
	}
}

func (f LineFormat) String() string {
	if f == FormatNMEALine {
		return "nmea"
	}
	return "data"
}

// LineWriter is a Sink writing one CRLF terminated text line per record.
type LineWriter struct {
	w      io.Writer
	format LineFormat
}

// NewLineWriter wraps w. If w is an io.Closer it is closed by Close.
func NewLineWriter(w io.Writer, format LineFormat) *LineWriter {
	return &LineWriter{w: w, format: format}
}

// Format renders a record in the writer's encoding, without terminator.
func (l *LineWriter) Format(r Record) string {
	if l.format == FormatNMEALine {
		return FormatNMEA(r)
	}
	return FormatDataLine(r)
}

// Emit implements Sink.
func (l *LineWriter) Emit(r Record) error {
	_, err := io.WriteString(l.w, l.Format(r)+"\r\n")
	return err
}

// Close implements Sink.
func (l *LineWriter) Close() error {
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
