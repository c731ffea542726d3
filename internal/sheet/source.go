package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yamitzky/xlrd-go/xlrd"
)

// Source loads one spreadsheet format.
type Source interface {
	Format() Format
	Load(path string) (*Workbook, error)
}

// tried in this order when the format cannot be told from the file
var sources = []Source{
	xlsSource{},
	xlsxSource{},
	xlsbSource{},
	csvSource{},
}

// SourceFor returns the loader for format.
func SourceFor(format Format) (Source, error) {
	for _, s := range sources {
		if s.Format() == format {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// Detect reads the file signature, using the extension only to tell the
// zip based formats apart and to recognise text files. It returns "" when
// neither settles the question.
func Detect(path string) (Format, error) {
	probed, err := xlrd.InspectFormat(path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to inspect spreadsheet: %w", err)
	}

	ext := formatFromExtension(path)
	switch probed {
	case "xls":
		return FormatXLS, nil
	case "xlsx":
		return FormatXLSX, nil
	case "xlsb":
		return FormatXLSB, nil
	case "ods":
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, xlrd.FileFormatDescriptions[probed])
	case "zip":
		if ext == FormatXLSX || ext == FormatXLSB {
			return ext, nil
		}
		return "", nil
	default:
		if ext == FormatCSV {
			return FormatCSV, nil
		}
		return "", nil
	}
}

func formatFromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	case ".xlsb":
		return FormatXLSB
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	default:
		return ""
	}
}

// Open loads every worksheet of the file at path. When Detect cannot name
// the format each source is tried in turn and the first that succeeds
// wins.
func Open(path string) (*Workbook, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}

	if format != "" {
		src, err := SourceFor(format)
		if err != nil {
			return nil, err
		}
		return src.Load(path)
	}

	errs := []error{fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))}
	for _, src := range sources {
		wb, err := src.Load(path)
		if err == nil {
			return wb, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", src.Format(), err))
	}
	return nil, errors.Join(errs...)
}
