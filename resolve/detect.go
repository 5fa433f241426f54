package resolve

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func (e srcEncoding) String() string {
	switch e {
	case encUnknown:
		return "unknown"
	case encUTF8:
		return "utf-8"
	case encUTF16BigEndian:
		return "utf-16be"
	case encUTF16LittleEndian:
		return "utf-16le"
	case encUTF32BigEndian:
		return "utf-32be"
	case encUTF32LittleEndian:
		return "utf-32le"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// enough to see BOM and identify binary formats
const headerSize = 262

func isUTF8BOM3(buf []byte) bool {
	return buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF looks for byte order mark. UTF-32 marks are checked first since
// UTF-32LE mark starts with UTF-16LE one.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case len(buf) >= 4 && isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case len(buf) >= 4 && isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case len(buf) >= 3 && isUTF8BOM3(buf):
		return encUTF8
	case len(buf) >= 2 && isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case len(buf) >= 2 && isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

// selectReader wraps r with decoder removing BOM and converting to UTF-8.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	}
	// this should never happen
	panic(fmt.Sprintf("unexpected source encoding %d", enc))
}

func readHeader(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return head[:n], nil
}

// isArchiveFile checks content, not extension.
func isArchiveFile(path string) (bool, error) {
	head, err := readHeader(path)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// isStylesheet checks name extension and makes sure content is not one of
// known binary formats.
func isStylesheet(name string, head []byte, exts []string) (bool, srcEncoding) {
	ext := filepath.Ext(name)
	if !slices.ContainsFunc(exts, func(e string) bool { return strings.EqualFold(e, ext) }) {
		return false, encUnknown
	}
	enc := detectUTF(head)
	if enc == encUnknown {
		if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
			return false, encUnknown
		}
	}
	return true, enc
}

func isStylesheetFile(path string, exts []string) (bool, srcEncoding, error) {
	head, err := readHeader(path)
	if err != nil {
		return false, encUnknown, err
	}
	ok, enc := isStylesheet(path, head, exts)
	return ok, enc, nil
}

// charsetRule returns label from "@charset "...";" which, when present, must
// be the very first thing in the stylesheet.
func charsetRule(data []byte) string {
	const prefix = `@charset "`
	if !bytes.HasPrefix(data, []byte(prefix)) {
		return ""
	}
	rest := data[len(prefix):]
	end := bytes.Index(rest, []byte(`";`))
	if end < 0 || end > 64 {
		return ""
	}
	return string(rest[:end])
}

// decodeStylesheet converts stylesheet to UTF-8. Encoding is taken from BOM,
// then from @charset rule, then fallback is used (when not nil). Returns name
// of detected encoding.
func decodeStylesheet(r io.Reader, enc srcEncoding, fallback encoding.Encoding) ([]byte, string, error) {
	data, err := io.ReadAll(selectReader(r, enc))
	if err != nil {
		return nil, "", err
	}
	if enc != encUnknown {
		return data, enc.String(), nil
	}

	var e encoding.Encoding
	name := "utf-8"
	if label := charsetRule(data); label != "" {
		if e, name = charset.Lookup(label); e == nil {
			return nil, "", fmt.Errorf("unknown @charset %q", label)
		}
	} else if fallback != nil {
		e = fallback
		if name, err = ianaindex.IANA.Name(fallback); err != nil {
			name = "code page"
		}
	}
	if e == nil || e == encoding.Nop || name == "utf-8" {
		return data, name, nil
	}
	out, err := e.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", fmt.Errorf("unable to decode stylesheet from %s: %w", name, err)
	}
	return out, name, nil
}
