// Package fname decodes ZIP entry names stored in legacy OS code pages and
// checks UTF-8 names for non-canonical Unicode normalization. Detection is
// archive-wide: a legacy archive was written under a single OS code page, so
// one encoding must decode every name, never one guess per entry.
package fname

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// Decoder converts raw name bytes to UTF-8.
//
// Decode is strict: it fails on any byte sequence that is not well formed
// for the encoding. DecodeLossy substitutes U+FFFD instead and is meant for
// display only.
type Decoder interface {
	Decode(b []byte) (string, error)
	DecodeLossy(b []byte) string
	Name() string
}

type asciiDecoder struct{}

// ASCII returns a decoder accepting only 7-bit bytes. UTF-8 is a superset of
// ASCII, so an all-ASCII archive needs no re-encoding at all.
func ASCII() Decoder {
	return asciiDecoder{}
}

func (asciiDecoder) Decode(b []byte) (string, error) {
	for i, c := range b {
		if c >= 0x80 {
			return "", fmt.Errorf("non-ASCII byte 0x%02x at offset %d", c, i)
		}
	}
	return string(b), nil
}

func (asciiDecoder) DecodeLossy(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c >= 0x80 {
			sb.WriteRune(utf8.RuneError)
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func (asciiDecoder) Name() string { return "ASCII" }

type utf8Decoder struct{}

// UTF8 returns a decoder validating UTF-8 and composing the result to
// canonical form, which folds HFS+-style decomposed names back to NFC.
func UTF8() Decoder {
	return utf8Decoder{}
}

func (utf8Decoder) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("invalid UTF-8 sequence")
	}
	return Compose(string(b)), nil
}

func (utf8Decoder) DecodeLossy(b []byte) string {
	return Compose(strings.ToValidUTF8(string(b), string(utf8.RuneError)))
}

func (utf8Decoder) Name() string { return "UTF-8" }

// legacyDecoder wraps a golang.org/x/text encoding. Those decoders never
// fail; they substitute U+FFFD for ill-formed input, so strictness is
// recovered by rejecting output containing a replacement rune. None of the
// supported legacy encodings can represent U+FFFD itself.
type legacyDecoder struct {
	enc  encoding.Encoding
	name string
}

func newLegacy(name string, enc encoding.Encoding) Decoder {
	return &legacyDecoder{enc: enc, name: name}
}

func (d *legacyDecoder) Decode(b []byte) (string, error) {
	decoded, err := d.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode as %s: %w", d.name, err)
	}
	s := string(decoded)
	if strings.ContainsRune(s, utf8.RuneError) {
		return "", fmt.Errorf("ill-formed %s sequence", d.name)
	}
	return s, nil
}

func (d *legacyDecoder) DecodeLossy(b []byte) string {
	decoded, err := d.enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(utf8.RuneError)
	}
	return string(decoded)
}

func (d *legacyDecoder) Name() string { return d.name }

// CanDecode reports whether d decodes every input without error.
func CanDecode(d Decoder, inputs [][]byte) bool {
	for _, in := range inputs {
		if _, err := d.Decode(in); err != nil {
			return false
		}
	}
	return true
}
