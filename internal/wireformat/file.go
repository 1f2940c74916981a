package wireformat

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
)

// WriteFile encodes doc and writes it to path, gzip-compressed when compress
// is set. The data goes to a temporary sibling first and is renamed into
// place once fully flushed, so a failed write leaves no file at path.
func WriteFile(path string, doc *device.Document, compress bool) error {
	data := Marshal(doc)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("temp output file: %w", err)
	}
	if err := writeData(tmp, data, compress); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}

func writeData(w io.Writer, data []byte, compress bool) error {
	if !compress {
		_, err := w.Write(data)
		return err
	}
	zw := gzip.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

var gzipMagic = []byte{0x1f, 0x8b}

// ReadFile decodes a document written by WriteFile, compressed or not
func ReadFile(path string) (*device.Document, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	doc, err := r.Document()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// OpenReader loads a document written by WriteFile for record lookups.
// A compressed file is inflated in memory first.
func OpenReader(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		data, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", path, err)
		}
		if err := zr.Close(); err != nil {
			return nil, fmt.Errorf("decompress %s: %w", path, err)
		}
	}
	r, err := NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return r, nil
}
