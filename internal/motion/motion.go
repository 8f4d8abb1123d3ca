// Package motion isolates the motion-interrupt flag of the MPU-6050
// INT_STATUS register.
//
// Classification is stateless: every status byte is judged on its own.
// Debouncing or latching, if wanted, belongs to the caller.
package motion

// MotionInterruptBit is MOT_INT (bit 6) of INT_STATUS (0x3A).
const MotionInterruptBit byte = 0x40

// Classify reports whether the motion interrupt bit is set in status.
func Classify(status byte) bool {
	return status&MotionInterruptBit != 0
}

// Config is the motion-detection setup written to MOT_THR / MOT_DUR.
// Threshold is in 2 mg steps, Duration in 1 ms steps.
type Config struct {
	Threshold byte
	Duration  byte
}

// DefaultConfig is a very sensitive detector: threshold 1, duration 20.
func DefaultConfig() Config {
	return Config{Threshold: 1, Duration: 20}
}
