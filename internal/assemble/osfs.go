package assemble

import (
	"fmt"
	"os"
)

// OSFileSystem backs a compilation with the real file system.
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) Size(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (OSFileSystem) Read(path string, offset, length int64) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset > int64(len(b)) {
		return nil, fmt.Errorf("offset %d out of range for %s (%d bytes)", offset, path, len(b))
	}
	end := offset + length
	if length <= 0 || end > int64(len(b)) {
		end = int64(len(b))
	}
	return b[offset:end], nil
}
