// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/adrianmo/go-nmea"
)

// TypeIMUA is the proprietary attitude sentence:
//
//	$PIMUA,roll,pitch,yaw,temp,motion*CS
const TypeIMUA = "IMUA"

// IMUA is a parsed attitude sentence.
type IMUA struct {
	nmea.BaseSentence
	Roll   float64
	Pitch  float64
	Yaw    float64
	TempC  float64
	Motion bool
}

func init() {
	if err := nmea.RegisterParser(TypeIMUA, parseIMUA); err != nil {
		panic(err)
	}
}

func parseIMUA(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	m := IMUA{
		BaseSentence: s,
		Roll:         p.Float64(0, "roll"),
		Pitch:        p.Float64(1, "pitch"),
		Yaw:          p.Float64(2, "yaw"),
		TempC:        p.Float64(3, "temperature"),
		Motion:       p.Int64(4, "motion") != 0,
	}
	return m, p.Err()
}

// FormatNMEA renders the record as a $PIMUA sentence with checksum. Yaw is
// included, unlike the DATA line.
func FormatNMEA(r Record) string {
	fields := []string{
		"P" + TypeIMUA,
		strconv.FormatFloat(r.Roll, 'f', 2, 64),
		strconv.FormatFloat(r.Pitch, 'f', 2, 64),
		strconv.FormatFloat(r.Yaw, 'f', 2, 64),
		strconv.FormatFloat(r.Temperature, 'f', 2, 64),
		motionDigit(r.MotionDetected),
	}
	body := strings.Join(fields, ",")
	return fmt.Sprintf("%s%s%s%s", nmea.SentenceStart, body, nmea.ChecksumSep, nmea.Checksum(body))
}

// ParseNMEA parses a $PIMUA sentence back into the orientation part of a
// record. Accel and gyro are not carried and stay zero.
func ParseNMEA(line string) (Record, error) {
	s, err := nmea.Parse(strings.TrimSpace(line))
	if err != nil {
		return Record{}, fmt.Errorf("telemetry: parse nmea: %w", err)
	}
	m, ok := s.(IMUA)
	if !ok {
		return Record{}, fmt.Errorf("telemetry: unexpected sentence type %s", s.DataType())
	}
	return Record{
		Roll:           m.Roll,
		Pitch:          m.Pitch,
		Yaw:            m.Yaw,
		Temperature:    m.TempC,
		MotionDetected: m.Motion,
	}, nil
}
