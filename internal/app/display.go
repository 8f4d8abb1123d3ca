package app

import (
	"fmt"
	"image"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/tilt_estimator/internal/telemetry"
)

// Screen is the part of ssd1306.Dev the display sink draws on.
type Screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// DisplaySink renders the latest record on a 128x64 OLED. It redraws at
// most once per interval, from the producer goroutine, so the I²C bus keeps
// a single user.
type DisplaySink struct {
	screen   Screen
	clk      clock.Clock
	interval time.Duration
	last     time.Time
	drawn    bool
}

// openDisplay initializes an SSD1306 on bus and shows the splash screen.
func openDisplay(bus i2c.Bus, clk clock.Clock, interval time.Duration) (*DisplaySink, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	d := NewDisplaySink(dev, clk, interval)
	if err := d.render(splashLines()); err != nil {
		return nil, fmt.Errorf("display splash: %w", err)
	}
	return d, nil
}

// NewDisplaySink draws on screen.
func NewDisplaySink(screen Screen, clk clock.Clock, interval time.Duration) *DisplaySink {
	return &DisplaySink{screen: screen, clk: clk, interval: interval}
}

// Emit implements telemetry.Sink.
func (d *DisplaySink) Emit(r telemetry.Record) error {
	now := d.clk.Now()
	if d.drawn && now.Sub(d.last) < d.interval {
		return nil
	}
	d.last = now
	d.drawn = true
	return d.render(displayLines(r))
}

// Close implements telemetry.Sink; the panel is blanked.
func (d *DisplaySink) Close() error {
	return d.render(nil)
}

func splashLines() []string {
	return []string{"", "  Tilt Pi", "  MPU-6050", " calibrating"}
}

// displayLines is the text page for one record, four rows of at most 18
// characters (7x13 font on 128 px).
func displayLines(r telemetry.Record) []string {
	motion := "still"
	if r.MotionDetected {
		motion = "MOTION"
	}
	return []string{
		fmt.Sprintf("R: %7.1f", r.Roll),
		fmt.Sprintf("P: %7.1f", r.Pitch),
		fmt.Sprintf("Y: %7.1f", r.Yaw),
		fmt.Sprintf("%-6s %5.1fC", motion, r.Temperature),
	}
}

// renderImage draws up to four text rows into a blank 1-bit image.
func renderImage(bounds image.Rectangle, lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(bounds)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(line)
	}
	return img
}

func (d *DisplaySink) render(lines []string) error {
	img := renderImage(d.screen.Bounds(), lines)
	return d.screen.Draw(d.screen.Bounds(), img, image.Point{})
}
