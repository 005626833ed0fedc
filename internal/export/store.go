package export

import (
	"bufio"
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// Store is the sink exported files are written to.
type Store interface {
	// EnsureDir creates dir and any missing parents.
	EnsureDir(dir string) error
	// WriteObject creates or truncates path and writes data to it.
	WriteObject(path string, data []byte) error
}

// LocalStore writes to the local file system.
type LocalStore struct {
}

func (LocalStore) EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func (s LocalStore) WriteObject(path string, data []byte) error {
	// Ensure any subdirs in between are created
	if err := s.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EncodePNG returns img encoded as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var b bytes.Buffer
	writer := bufio.NewWriter(&b)

	if err := png.Encode(writer, img); err != nil {
		return nil, err
	}
	if err := writer.Flush(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
