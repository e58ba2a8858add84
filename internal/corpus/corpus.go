// Package corpus loads document batches from text and parquet files.
// The position of a document in the returned slice is its id in search results.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const maxLineBytes = 64 << 20

// ReadLines returns one document per line of r. Line terminators (\n or \r\n) are stripped;
// empty lines are kept as empty documents.
func ReadLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var docs []string
	for sc.Scan() {
		docs = append(docs, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return docs, nil
}

// Load reads documents from path. Files ending in .parquet are read from column;
// anything else is read line by line and column is ignored. "-" reads lines from stdin.
func Load(path, column string) ([]string, error) {
	if path == "-" {
		return ReadLines(os.Stdin)
	}
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return LoadParquet(path, column)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadLines(f)
}
