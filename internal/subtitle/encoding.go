package subtitle

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// output text encoding
type Encoding string

const (
	// UTF-8 with a byte order mark, what most ASS players and Aegisub expect
	EncodingUTF8BOM Encoding = "utf-8-bom"
	EncodingUTF8    Encoding = "utf-8"
	EncodingUTF16LE Encoding = "utf-16le"
)

// ParseEncoding maps user input onto an Encoding. Empty means utf-8-bom.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "-")) {
	case "", "utf-8-bom", "utf-8-sig", "utf8-bom":
		return EncodingUTF8BOM, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "utf-16le", "utf-16", "utf16le":
		return EncodingUTF16LE, nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", s)
	}
}

func (e Encoding) encoding() (encoding.Encoding, error) {
	switch e {
	case EncodingUTF8BOM, "":
		return unicode.UTF8BOM, nil
	case EncodingUTF8:
		return unicode.UTF8, nil
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", e)
	}
}

// NewEncodingWriter wraps w so that UTF-8 written to it reaches w in enc.
// Close flushes the encoder but does not close w.
func NewEncodingWriter(w io.Writer, enc Encoding) (io.WriteCloser, error) {
	e, err := enc.encoding()
	if err != nil {
		return nil, err
	}
	return transform.NewWriter(w, e.NewEncoder()), nil
}

// NewDecodingReader strips a UTF-8 BOM or decodes UTF-16 with a BOM,
// passing plain UTF-8 through.
func NewDecodingReader(r io.Reader) io.Reader {
	fallback := unicode.UTF8BOM.NewDecoder()
	return transform.NewReader(r, unicode.BOMOverride(fallback))
}
