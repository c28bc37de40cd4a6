//go:build unix

package step

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// OpenModelFile mmaps path read-only and opens it as a model, avoiding a
// full copy into the process's heap for large inputs — the same zero-copy
// idiom the teacher's mcf/gguf readers use for multi-hundred-MB files. The
// mapping is released once tokenization is complete; the tape owns its own
// copies of everything it needs after that point.
func OpenModelFile(path string, settings LoaderSettings) (ModelID, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("step: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("step: stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return OpenModel(nil, settings)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return 0, fmt.Errorf("step: mmap %s: %w", path, err)
	}
	defer unix.Munmap(data)

	return OpenModel(data, settings)
}
