package motion

import (
	"testing"

	"go.viam.com/test"
)

func TestClassify(t *testing.T) {
	test.That(t, Classify(0x40), test.ShouldBeTrue)
	test.That(t, Classify(0xFF), test.ShouldBeTrue)
	test.That(t, Classify(0x41), test.ShouldBeTrue)

	test.That(t, Classify(0x00), test.ShouldBeFalse)
	// every bit except MOT_INT
	test.That(t, Classify(0xBF), test.ShouldBeFalse)
	// neighbours of bit 6 and DATA_RDY
	test.That(t, Classify(0x80), test.ShouldBeFalse)
	test.That(t, Classify(0x20), test.ShouldBeFalse)
	test.That(t, Classify(0x01), test.ShouldBeFalse)
}

func TestClassifyAllBytes(t *testing.T) {
	for b := 0; b <= 0xFF; b++ {
		test.That(t, Classify(byte(b)), test.ShouldEqual, b&0x40 != 0)
	}
}

func TestClassifyHasNoMemory(t *testing.T) {
	test.That(t, Classify(0x40), test.ShouldBeTrue)
	test.That(t, Classify(0x00), test.ShouldBeFalse)
	test.That(t, Classify(0x40), test.ShouldBeTrue)
}
