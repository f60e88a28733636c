package dataprocessing

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrEntryNotFound is returned when an archive has no entry with the requested name
var ErrEntryNotFound = errors.New("archive entry not found")

// ExtractEntry returns the content of the named entry from zip archive bytes
func ExtractEntry(archive []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", name, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
}
