package integration

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThaumielSparrow/go-sm83/sm83"
	"github.com/ThaumielSparrow/go-sm83/sm83/backend/headless"
	"github.com/ThaumielSparrow/go-sm83/sm83/video"
)

type integrationTestCase struct {
	ROMPath   string
	MaxFrames int
	Name      string
}

func getIntegrationTests() []integrationTestCase {
	baseDir := "../../test-roms/game-boy-test-roms"

	return []integrationTestCase{
		{
			ROMPath:   filepath.Join(baseDir, "dmg-acid2/dmg-acid2.gb"),
			MaxFrames: 10,
			Name:      "dmg-acid2",
		},
		{
			ROMPath:   filepath.Join(baseDir, "blargg/halt_bug.gb"),
			MaxFrames: 500,
			Name:      "halt_bug",
		},
		{
			ROMPath:   filepath.Join(baseDir, "blargg/instr_timing/instr_timing.gb"),
			MaxFrames: 1200,
			Name:      "instr_timing",
		},
		{
			ROMPath:   filepath.Join(baseDir, "blargg/mem_timing/individual/01-read_timing.gb"),
			MaxFrames: 60,
			Name:      "mem_timing_01-read",
		},
		{
			ROMPath:   filepath.Join(baseDir, "blargg/mem_timing/individual/02-write_timing.gb"),
			MaxFrames: 60,
			Name:      "mem_timing_02-write",
		},
		{
			ROMPath:   filepath.Join(baseDir, "blargg/mem_timing/individual/03-modify_timing.gb"),
			MaxFrames: 60,
			Name:      "mem_timing_03-modify",
		},
	}
}

// toGrayscale flattens a frame into one byte per pixel for hashing.
func toGrayscale(fb *video.FrameBuffer) []byte {
	pixels := fb.ToSlice()
	out := make([]byte, len(pixels))
	for i, p := range pixels {
		switch video.GBColor(p) {
		case video.BlackColor:
			out[i] = 0
		case video.DarkGreyColor:
			out[i] = 85
		case video.LightGreyColor:
			out[i] = 170
		default:
			out[i] = 255
		}
	}
	return out
}

// runIntegrationTest runs a ROM for a fixed number of frames and
// compares the final screen against a golden hash in testdata. Set
// INTEGRATION_GENERATE_GOLDEN=true to regenerate the reference files.
func runIntegrationTest(t *testing.T, testCase integrationTestCase) {
	if _, err := os.Stat(testCase.ROMPath); os.IsNotExist(err) {
		t.Skipf("ROM file not found: %s", testCase.ROMPath)
		return
	}

	machine, err := sm83.NewFromFile(testCase.ROMPath)
	if err != nil {
		t.Fatalf("Failed to load ROM: %v", err)
	}

	var frame *video.FrameBuffer
	for i := 0; i < testCase.MaxFrames; i++ {
		frame = machine.RunFrame()
	}

	screenDataPath := filepath.Join("testdata", fmt.Sprintf("%s.bin", testCase.Name))
	snapshotPath := filepath.Join("testdata", "snapshots", fmt.Sprintf("%s.png", testCase.Name))

	if err := os.MkdirAll(filepath.Join("testdata", "snapshots"), 0755); err != nil {
		t.Fatalf("Failed to create testdata directory: %v", err)
	}

	binaryData := toGrayscale(frame)
	hash := fmt.Sprintf("%x", md5.Sum(binaryData))

	if os.Getenv("INTEGRATION_GENERATE_GOLDEN") == "true" {
		if err := os.WriteFile(screenDataPath, binaryData, 0644); err != nil {
			t.Fatalf("Failed to write screen data file: %v", err)
		}
		if err := headless.WritePNG(frame, snapshotPath); err != nil {
			t.Fatalf("Failed to write snapshot PNG file: %v", err)
		}
		t.Logf("Reference files generated - hash: %s", hash)
		return
	}

	expectedData, err := os.ReadFile(screenDataPath)
	if err != nil {
		t.Skipf("Golden file not found: %s. Set INTEGRATION_GENERATE_GOLDEN=true to generate it.", screenDataPath)
		return
	}
	expectedHash := fmt.Sprintf("%x", md5.Sum(expectedData))

	if hash != expectedHash {
		actualPngPath := filepath.Join("testdata", "snapshots", fmt.Sprintf("%s_actual.png", testCase.Name))
		headless.WritePNG(frame, actualPngPath)

		t.Errorf("Screen differs from golden\n  Expected hash: %s\n  Actual hash:   %s\n  Saved:         %s",
			expectedHash, hash, actualPngPath)
	}
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	for _, testCase := range getIntegrationTests() {
		t.Run(testCase.Name, func(t *testing.T) {
			runIntegrationTest(t, testCase)
		})
	}
}
