package step

import "os"

// ExportFileAsIFCToPath serializes id and writes the result to path.
func ExportFileAsIFCToPath(id ModelID, path string) error {
	data, err := ExportFileAsIFC(id)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
