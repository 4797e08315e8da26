package repair

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/zipmend/zipmend/pkg/zipfile"
)

// Shift_JIS bytes of 日本.txt; also well formed under GBK and Big5.
var sjisNihon = []byte{0x93, 0xfa, 0x96, 0x7b, '.', 't', 'x', 't'}

// Shift_JIS bytes of ｱ.txt; the bare 0xb1 lead rules every other
// candidate out, pinning detection to Shift_JIS.
var sjisKana = []byte{0xb1, '.', 't', 'x', 't'}

type entrySpec struct {
	name    []byte
	flags   uint16
	extra   []byte
	comment []byte
	payload []byte
}

// buildArchive assembles a stored-method ZIP from entry specs and parses it
// back, so planner and apply tests start from the same state the tool sees.
func buildArchive(t *testing.T, entries ...entrySpec) *zipfile.Archive {
	t.Helper()

	var buf bytes.Buffer
	cds := make([]zipfile.CentralHeader, 0, len(entries))
	for _, e := range entries {
		offset := uint32(buf.Len())
		sum := crc32.ChecksumIEEE(e.payload)
		lh := zipfile.LocalHeader{
			VersionNeeded:    20,
			Flags:            e.flags,
			CRC32:            sum,
			CompressedSize:   uint32(len(e.payload)),
			UncompressedSize: uint32(len(e.payload)),
			Name:             e.name,
			Extra:            e.extra,
		}
		b, err := lh.MarshalBinary()
		if err != nil {
			t.Fatalf("marshal local header: %v", err)
		}
		buf.Write(b)
		buf.Write(e.payload)
		cds = append(cds, zipfile.CentralHeader{
			VersionMadeBy:     20,
			VersionNeeded:     20,
			Flags:             e.flags,
			CRC32:             sum,
			CompressedSize:    uint32(len(e.payload)),
			UncompressedSize:  uint32(len(e.payload)),
			LocalHeaderOffset: offset,
			Name:              e.name,
			Extra:             e.extra,
			Comment:           e.comment,
		})
	}

	cdOffset := uint32(buf.Len())
	for i := range cds {
		b, err := cds[i].MarshalBinary()
		if err != nil {
			t.Fatalf("marshal central header: %v", err)
		}
		buf.Write(b)
	}
	eocd := zipfile.EOCD{
		CDCountOnDisk: uint16(len(cds)),
		CDCount:       uint16(len(cds)),
		CDSize:        uint32(buf.Len()) - cdOffset,
		CDOffset:      cdOffset,
	}
	b, err := eocd.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal eocd: %v", err)
	}
	buf.Write(b)

	return parseArchive(t, buf.Bytes())
}

func parseArchive(t *testing.T, data []byte) *zipfile.Archive {
	t.Helper()
	a, err := zipfile.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse archive: %v", err)
	}
	return a
}

// unicodePathField builds an Info-ZIP Unicode Path extra field carrying
// utf8Name for an entry whose stored name is rawName.
func unicodePathField(rawName, utf8Name []byte) []byte {
	body := make([]byte, 5+len(utf8Name))
	body[0] = 1
	binary.LittleEndian.PutUint32(body[1:5], crc32.ChecksumIEEE(rawName))
	copy(body[5:], utf8Name)

	field := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint16(field[0:2], zipfile.UnicodePathID)
	binary.LittleEndian.PutUint16(field[2:4], uint16(len(body)))
	copy(field[4:], body)
	return field
}

func applyPlan(t *testing.T, a *zipfile.Archive, plan *Plan) []byte {
	t.Helper()
	var out bytes.Buffer
	if err := Apply(a, plan, &out); err != nil {
		t.Fatalf("apply: %v", err)
	}
	return out.Bytes()
}
