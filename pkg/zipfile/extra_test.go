package zipfile

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestUnicodePathName(t *testing.T) {
	raw := []byte{0x93, 0xfa, 0x96, 0x7b, 0x2e, 0x74, 0x78, 0x74}

	t.Run("Consistent", func(t *testing.T) {
		extra := unicodePathField(raw, "日本.txt")
		name, ok := UnicodePathName(extra, raw)
		if !ok {
			t.Fatal("consistent field not recognized")
		}
		if string(name) != "日本.txt" {
			t.Errorf("name: got %q, want %q", name, "日本.txt")
		}
	})

	t.Run("CRCMismatch", func(t *testing.T) {
		// A renamed entry whose field was not updated must be ignored.
		extra := unicodePathField([]byte("other-name"), "日本.txt")
		if _, ok := UnicodePathName(extra, raw); ok {
			t.Error("stale field treated as authoritative")
		}
	})

	t.Run("WrongVersion", func(t *testing.T) {
		extra := unicodePathField(raw, "日本.txt")
		extra[4] = 2
		if _, ok := UnicodePathName(extra, raw); ok {
			t.Error("unknown version accepted")
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		extra := unicodePathField(raw, "日本.txt")
		if _, ok := UnicodePathName(extra[:6], raw); ok {
			t.Error("truncated field accepted")
		}
	})

	t.Run("AmongOtherFields", func(t *testing.T) {
		timestamp := []byte{0x55, 0x54, 0x05, 0x00, 0x03, 1, 2, 3, 4}
		extra := append(append([]byte{}, timestamp...), unicodePathField(raw, "日本.txt")...)
		name, ok := UnicodePathName(extra, raw)
		if !ok || string(name) != "日本.txt" {
			t.Errorf("field not found after another block: %q, %v", name, ok)
		}
	})
}

func TestStripUnicodePath(t *testing.T) {
	raw := []byte("legacy")
	timestamp := []byte{0x55, 0x54, 0x05, 0x00, 0x03, 1, 2, 3, 4}

	t.Run("RemovesField", func(t *testing.T) {
		extra := append(append([]byte{}, unicodePathField(raw, "name")...), timestamp...)
		got := StripUnicodePath(extra)
		if !bytes.Equal(got, timestamp) {
			t.Errorf("strip: got % x, want % x", got, timestamp)
		}
	})

	t.Run("OnlyField", func(t *testing.T) {
		if got := StripUnicodePath(unicodePathField(raw, "name")); got != nil {
			t.Errorf("expected nil, got % x", got)
		}
	})

	t.Run("NoField", func(t *testing.T) {
		if got := StripUnicodePath(timestamp); !bytes.Equal(got, timestamp) {
			t.Errorf("unrelated field touched: % x", got)
		}
	})

	t.Run("MalformedTailKept", func(t *testing.T) {
		bad := make([]byte, 4)
		binary.LittleEndian.PutUint16(bad[0:2], 0x1234)
		binary.LittleEndian.PutUint16(bad[2:4], 100) // runs past the buffer
		extra := append(append([]byte{}, timestamp...), bad...)
		if got := StripUnicodePath(extra); !bytes.Equal(got, extra) {
			t.Errorf("malformed tail not preserved: % x", got)
		}
	})
}
