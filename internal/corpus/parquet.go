package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/simdoc/internal/domain"
)

// DefaultColumn is the parquet column read when none is given.
const DefaultColumn = "text"

const rowBatch = 1000

// LoadParquet reads one string column of a parquet file.
func LoadParquet(path, column string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	return ReadParquet(f, stat.Size(), column)
}

// ReadParquet returns the values of a top-level column, one document per row in file order.
// Null values become empty documents.
func ReadParquet(r io.ReaderAt, size int64, column string) ([]string, error) {
	if column == "" {
		column = DefaultColumn
	}
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	idx, err := resolveColumn(pf, column)
	if err != nil {
		return nil, err
	}

	docs := make([]string, 0, pf.NumRows())
	buf := make([]parquet.Row, rowBatch)
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				docs = append(docs, valueOf(row, idx))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return docs, nil
}

// resolveColumn finds the leaf index of a flat column by name.
func resolveColumn(pf *parquet.File, column string) (int, error) {
	var names []string
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		if path[0] == column {
			if len(path) != 1 {
				return -1, domain.InvalidInputf("parquet column %q is nested", column)
			}
			return i, nil
		}
		names = append(names, strings.Join(path, "."))
	}
	return -1, domain.InvalidInputf("parquet column %q not found (have %s)", column, strings.Join(names, ", "))
}

func valueOf(row parquet.Row, idx int) string {
	for _, v := range row {
		if v.Column() == idx {
			if v.IsNull() {
				return ""
			}
			return v.String()
		}
	}
	return ""
}
