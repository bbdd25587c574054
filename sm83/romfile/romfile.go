// Package romfile loads ROM images from plain files and common archive
// formats, and manages the battery save file that sits next to the ROM.
package romfile

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// ErrEmptyArchive is returned when an archive contains no usable entry.
var ErrEmptyArchive = errors.New("archive contains no files")

// Load reads a ROM image, transparently decompressing .gz, .zip and
// .7z files. Archives with multiple entries prefer the first .gb or
// .gbc file.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return loadGzip(data)
	case ".zip":
		return loadZip(path, data)
	case ".7z":
		return loadSevenZip(path, data)
	default:
		return data, nil
	}
}

func loadGzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func loadZip(path string, data []byte) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := zip.NewReader(f, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}

	names := make([]string, len(r.File))
	for i, entry := range r.File {
		names[i] = entry.Name
	}
	picked, err := pickEntry(names)
	if err != nil {
		return nil, err
	}

	rc, err := r.File[picked].Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func loadSevenZip(path string, data []byte) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := sevenzip.NewReader(f, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("7z: %w", err)
	}

	names := make([]string, len(r.File))
	for i, entry := range r.File {
		names[i] = entry.Name
	}
	picked, err := pickEntry(names)
	if err != nil {
		return nil, err
	}

	rc, err := r.File[picked].Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// pickEntry selects the archive entry to extract: the first .gb or
// .gbc file, or failing that the first entry.
func pickEntry(names []string) (int, error) {
	if len(names) == 0 {
		return 0, ErrEmptyArchive
	}
	for i, name := range names {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".gb", ".gbc":
			return i, nil
		}
	}
	return 0, nil
}

// SavePath returns the battery save file path for a ROM: same
// directory and base name, .sav extension.
func SavePath(romPath string) string {
	ext := filepath.Ext(romPath)
	return strings.TrimSuffix(romPath, ext) + ".sav"
}

// ReadBattery loads the battery save next to a ROM. A missing file is
// not an error; it returns nil bytes.
func ReadBattery(romPath string) ([]byte, error) {
	data, err := os.ReadFile(SavePath(romPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("battery save loaded", "path", SavePath(romPath), "bytes", len(data))
	return data, nil
}

// WriteBattery persists battery-backed RAM next to the ROM. Writing
// nil data is a no-op, so callers can pass the dump of a cartridge
// without persistent RAM directly.
func WriteBattery(romPath string, data []byte) error {
	if data == nil {
		return nil
	}
	path := SavePath(romPath)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write battery save: %w", err)
	}
	slog.Debug("battery save written", "path", path, "bytes", len(data))
	return nil
}
