package blargg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ThaumielSparrow/go-sm83/sm83"
)

type blarggTestCase struct {
	ROMPath   string
	MaxFrames int
	Name      string
}

func getBlarggTests() []blarggTestCase {
	baseDir := "../../test-roms"

	return []blarggTestCase{
		{
			ROMPath:   filepath.Join(baseDir, "01-special.gb"),
			MaxFrames: 500,
			Name:      "01-special",
		},
		{
			ROMPath:   filepath.Join(baseDir, "02-interrupts.gb"),
			MaxFrames: 500,
			Name:      "02-interrupts",
		},
		{
			ROMPath:   filepath.Join(baseDir, "03-op sp,hl.gb"),
			MaxFrames: 500,
			Name:      "03-op sp,hl",
		},
		{
			ROMPath:   filepath.Join(baseDir, "04-op r,imm.gb"),
			MaxFrames: 500,
			Name:      "04-op r,imm",
		},
		{
			ROMPath:   filepath.Join(baseDir, "05-op rp.gb"),
			MaxFrames: 500,
			Name:      "05-op rp",
		},
		{
			ROMPath:   filepath.Join(baseDir, "06-ld r,r.gb"),
			MaxFrames: 500,
			Name:      "06-ld r,r",
		},
		{
			ROMPath:   filepath.Join(baseDir, "07-jr,jp,call,ret,rst.gb"),
			MaxFrames: 500,
			Name:      "07-jr,jp,call,ret,rst",
		},
		{
			ROMPath:   filepath.Join(baseDir, "08-misc instrs.gb"),
			MaxFrames: 500,
			Name:      "08-misc instrs",
		},
		{
			ROMPath:   filepath.Join(baseDir, "09-op r,r.gb"),
			MaxFrames: 1000,
			Name:      "09-op r,r",
		},
		{
			ROMPath:   filepath.Join(baseDir, "10-bit ops.gb"),
			MaxFrames: 1000,
			Name:      "10-bit ops",
		},
		{
			ROMPath:   filepath.Join(baseDir, "11-op a,(hl).gb"),
			MaxFrames: 1500,
			Name:      "11-op a,(hl)",
		},
	}
}

// runBlarggTest boots a test ROM and watches the serial port. The
// ROMs print their result over serial, ending in "Passed" or "Failed".
func runBlarggTest(t *testing.T, testCase blarggTestCase) {
	if _, err := os.Stat(testCase.ROMPath); os.IsNotExist(err) {
		t.Skipf("ROM file not found: %s", testCase.ROMPath)
		return
	}

	machine, err := sm83.NewFromFile(testCase.ROMPath)
	if err != nil {
		t.Fatalf("Failed to load ROM: %v", err)
	}

	var output strings.Builder
	machine.MMU().OnSerialTransfer(func(value byte) {
		output.WriteByte(value)
	})

	for frame := 0; frame < testCase.MaxFrames; frame++ {
		machine.RunFrame()

		text := output.String()
		if strings.Contains(text, "Passed") {
			t.Logf("Passed after %d frames", frame+1)
			return
		}
		if strings.Contains(text, "Failed") {
			t.Fatalf("ROM reported failure:\n%s", text)
		}
	}

	t.Fatalf("No result after %d frames, serial output so far:\n%s",
		testCase.MaxFrames, output.String())
}

func TestBlarggSuite(t *testing.T) {
	for _, testCase := range getBlarggTests() {
		t.Run(testCase.Name, func(t *testing.T) {
			runBlarggTest(t, testCase)
		})
	}
}
