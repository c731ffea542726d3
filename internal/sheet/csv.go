package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// delimited text exported from a spreadsheet (.csv, .tsv)
type csvSource struct{}

func (csvSource) Format() Format {
	return FormatCSV
}

// Load reads the file as one worksheet named after it. UTF-8 and UTF-16
// with a byte order mark are accepted; tabs are used as the delimiter for
// .tsv files or when the first line has tabs and no commas.
func (csvSource) Load(path string) (*Workbook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv file: %w", err)
	}

	data, _, err := transform.Bytes(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		raw,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to decode csv file: %w", err)
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return nil, errors.New("not a text file")
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = detectDelimiter(path, data)

	base := filepath.Base(path)
	g := newGrid(strings.TrimSuffix(base, filepath.Ext(base)))
	for row := 0; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv file: %w", err)
		}
		for col, value := range record {
			g.set(row, col, value)
		}
	}

	return &Workbook{
		Name:   base,
		Format: FormatCSV,
		Sheets: []Worksheet{g.worksheet()},
	}, nil
}

func detectDelimiter(path string, data []byte) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	first, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.IndexByte(first, '\t') >= 0 && bytes.IndexByte(first, ',') < 0 {
		return '\t'
	}
	return ','
}
