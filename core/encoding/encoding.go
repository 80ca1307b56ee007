// Package encoding converts table files between their on-disk text encoding
// and UTF-8.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/FocuswithJustin/schemeta/core/errors"
)

// DefaultEncoding is used when no label is given.
const DefaultEncoding = "utf-8"

// utf8BOM is the byte order mark some spreadsheet tools prepend to UTF-8 files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Lookup resolves an encoding label such as "utf-8", "shift_jis",
// "windows-1252" or "latin1". WHATWG labels are tried first, then IANA names.
func Lookup(label string) (encoding.Encoding, error) {
	name := normalize(label)
	if name == "utf-8" || name == "utf-8-sig" {
		return unicode.UTF8, nil
	}
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, errors.NewEncoding(label, "unknown encoding", err)
	}
	if enc == nil {
		return nil, errors.NewEncoding(label, "encoding is not supported", nil)
	}
	return enc, nil
}

// IsUTF8 reports whether label names UTF-8 (with or without BOM).
func IsUTF8(label string) bool {
	name := normalize(label)
	return name == "utf-8" || name == "utf-8-sig"
}

// Decode converts data in the named encoding to UTF-8. A leading UTF-8 BOM
// is dropped. Bytes that are invalid in the named encoding are an error
// rather than silently replaced with U+FFFD.
func Decode(data []byte, label string) ([]byte, error) {
	if IsUTF8(label) {
		data = StripBOM(data)
		if !utf8.Valid(data) {
			return nil, errors.NewEncoding(label, "input is not valid UTF-8", nil)
		}
		return data, nil
	}

	enc, err := Lookup(label)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, errors.NewEncoding(label, "decode failed", err)
	}
	// The decoder substitutes U+FFFD for invalid input. Keep it only when
	// the source really encoded U+FFFD.
	if bytes.ContainsRune(out, utf8.RuneError) {
		back, err := enc.NewEncoder().Bytes(out)
		if err != nil || !bytes.Equal(back, data) {
			return nil, errors.NewEncoding(label, "input is not valid "+label, nil)
		}
	}
	return StripBOM(out), nil
}

// Encode converts UTF-8 text to the named encoding. Characters the target
// encoding cannot represent are an error. The "utf-8-sig" label writes a BOM.
func Encode(text []byte, label string) ([]byte, error) {
	if IsUTF8(label) {
		if !utf8.Valid(text) {
			return nil, errors.NewEncoding(label, "output is not valid UTF-8", nil)
		}
		if normalize(label) == "utf-8-sig" {
			return append(append([]byte{}, utf8BOM...), text...), nil
		}
		return text, nil
	}

	enc, err := Lookup(label)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes(text)
	if err != nil {
		return nil, errors.NewEncoding(label, "encode failed", err)
	}
	return out, nil
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// normalize lowercases a label and accepts the underscore spellings
// common in other tools ("utf_8", "utf8", "utf_8_sig").
func normalize(label string) string {
	name := strings.ToLower(strings.TrimSpace(label))
	if name == "" {
		return DefaultEncoding
	}
	switch strings.ReplaceAll(name, "_", "-") {
	case "utf-8", "utf8":
		return "utf-8"
	case "utf-8-sig", "utf8-sig":
		return "utf-8-sig"
	}
	return name
}
