// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/benbjohnson/clock"
)

// CSVHeader is the first row of every recording.
var CSVHeader = []string{
	"Timestamp",
	"AccelX", "AccelY", "AccelZ",
	"GyroX", "GyroY", "GyroZ",
	"Roll", "Pitch",
	"Temperature", "Motion",
}

const csvTimeLayout = "2006-01-02 15:04:05.000000"

// CSVRecorder is a Sink that appends one row per record.
type CSVRecorder struct {
	w      *csv.Writer
	closer io.Closer
	clk    clock.Clock
}

// NewCSVRecorder writes the header to w and returns a recorder. If w is an
// io.Closer it is closed by Close.
func NewCSVRecorder(w io.Writer, clk clock.Clock) (*CSVRecorder, error) {
	r := &CSVRecorder{w: csv.NewWriter(w), clk: clk}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	if err := r.w.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("telemetry: write csv header: %w", err)
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: write csv header: %w", err)
	}
	return r, nil
}

// RecordingFileName is mpu6050_data_YYYYMMDD_HHMMSS.csv for the clock's now.
func RecordingFileName(clk clock.Clock) string {
	return "mpu6050_data_" + clk.Now().Format("20060102_150405") + ".csv"
}

// CreateCSVRecording creates a new recording file in dir and returns the
// recorder and the file path.
func CreateCSVRecording(dir string, clk clock.Clock) (*CSVRecorder, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("telemetry: create record dir: %w", err)
	}
	path := filepath.Join(dir, RecordingFileName(clk))
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("telemetry: create recording: %w", err)
	}
	rec, err := NewCSVRecorder(f, clk)
	if err != nil {
		f.Close()
		return nil, "", err
	}
	return rec, path, nil
}

// Emit implements Sink. Every row is flushed so a crash loses at most the
// row being written.
func (c *CSVRecorder) Emit(r Record) error {
	row := []string{c.clk.Now().Format(csvTimeLayout)}
	for _, v := range []float64{
		r.AccelX, r.AccelY, r.AccelZ,
		r.GyroX, r.GyroY, r.GyroZ,
		r.Roll, r.Pitch, r.Temperature,
	} {
		row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
	}
	row = append(row, motionDigit(r.MotionDetected))

	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("telemetry: write csv row: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

// Close implements Sink.
func (c *CSVRecorder) Close() error {
	c.w.Flush()
	err := c.w.Error()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
