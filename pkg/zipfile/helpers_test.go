package zipfile

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"
)

// testEntry describes one stored (method 0) entry for fixture archives.
type testEntry struct {
	name       []byte
	flags      uint16
	method     uint16
	payload    []byte
	extra      []byte
	comment    []byte
	descriptor bool
}

// buildZip lays out a complete single-volume archive from specs, with an
// optional leading prefix and archive comment.
func buildZip(t *testing.T, prefix []byte, comment []byte, entries []testEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(prefix)

	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		offsets[i] = uint32(buf.Len())
		flags := e.flags
		if e.descriptor {
			flags |= FlagDataDescriptor
		}
		lh := LocalHeader{
			VersionNeeded:    20,
			Flags:            flags,
			Method:           e.method,
			CRC32:            crc32.ChecksumIEEE(e.payload),
			CompressedSize:   uint32(len(e.payload)),
			UncompressedSize: uint32(len(e.payload)),
			Name:             e.name,
			Extra:            e.extra,
		}
		data, err := lh.MarshalBinary()
		if err != nil {
			t.Fatalf("marshal local header: %v", err)
		}
		buf.Write(data)
		buf.Write(e.payload)
		if e.descriptor {
			d := Descriptor{
				HasSignature:     true,
				CRC32:            lh.CRC32,
				CompressedSize:   lh.CompressedSize,
				UncompressedSize: lh.UncompressedSize,
			}
			data, err := d.MarshalBinary()
			if err != nil {
				t.Fatalf("marshal descriptor: %v", err)
			}
			buf.Write(data)
		}
	}

	cdOffset := uint32(buf.Len())
	for i, e := range entries {
		flags := e.flags
		if e.descriptor {
			flags |= FlagDataDescriptor
		}
		cd := CentralHeader{
			VersionMadeBy:     20,
			VersionNeeded:     20,
			Flags:             flags,
			Method:            e.method,
			CRC32:             crc32.ChecksumIEEE(e.payload),
			CompressedSize:    uint32(len(e.payload)),
			UncompressedSize:  uint32(len(e.payload)),
			LocalHeaderOffset: offsets[i],
			Name:              e.name,
			Extra:             e.extra,
			Comment:           e.comment,
		}
		data, err := cd.MarshalBinary()
		if err != nil {
			t.Fatalf("marshal central header: %v", err)
		}
		buf.Write(data)
	}

	eocd := EOCD{
		CDCountOnDisk: uint16(len(entries)),
		CDCount:       uint16(len(entries)),
		CDSize:        uint32(buf.Len()) - cdOffset,
		CDOffset:      cdOffset,
		Comment:       comment,
	}
	data, err := eocd.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal eocd: %v", err)
	}
	buf.Write(data)
	return buf.Bytes()
}

func parseZip(t *testing.T, data []byte) *Archive {
	t.Helper()
	a, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return a
}

// unicodePathField builds a consistent Info-ZIP Unicode Path extra block for
// rawName carrying utf8Name.
func unicodePathField(rawName []byte, utf8Name string) []byte {
	buf := make([]byte, 4+5+len(utf8Name))
	binary.LittleEndian.PutUint16(buf[0:2], UnicodePathID)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(5+len(utf8Name)))
	buf[4] = 1
	binary.LittleEndian.PutUint32(buf[5:9], crc32.ChecksumIEEE(rawName))
	copy(buf[9:], utf8Name)
	return buf
}
