package replay

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// ReadFile returns the replay JSON stored at path, decompressing it when the
// file is a zstd frame (the format replays are distributed in).
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}

	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: zstd: %w", filepath.Base(path), err)
	}
	defer dec.Close()

	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: zstd: %v", ErrMalformedReplay, filepath.Base(path), err)
	}
	return out, nil
}

// Load reads and decodes the replay at path for the given player.
func Load(path, player string) (*Game, error) {
	raw, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Decode(raw, player)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return g, nil
}
