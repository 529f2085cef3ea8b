package prep

import (
	"bufio"
	"os"
)

// ReadManifest reads the whole manifest into memory, one record per
// line. Lines are returned in file order with line endings stripped.
// The manifest is static once read: stages never touch the file again.
func ReadManifest(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// manifest lines can carry long transcripts
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), 1<<20)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
