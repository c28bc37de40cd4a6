//go:build !unix

package step

import (
	"fmt"
	"os"
)

// OpenModelFile reads path into memory and opens it as a model. The
// zero-copy mmap path (mmap_unix.go) is unix-only, matching the teacher's
// own golang.org/x/sys/unix usage; elsewhere this falls back to a plain
// read.
func OpenModelFile(path string, settings LoaderSettings) (ModelID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("step: read %s: %w", path, err)
	}
	return OpenModel(data, settings)
}
