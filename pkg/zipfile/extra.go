package zipfile

import (
	"encoding/binary"
	"hash/crc32"
)

// UnicodePathID is the Info-ZIP Unicode Path extra field tag ("up").
// The field carries a UTF-8 version of the entry name plus a CRC32 of the
// legacy name it supersedes (APPNOTE 4.6.9).
const UnicodePathID = 0x7075

// forEachExtra walks the id/size/data blocks of an extra field. A malformed
// tail (declared size running past the buffer) stops the walk. Returning
// false from fn stops it early.
func forEachExtra(extra []byte, fn func(id uint16, data []byte) bool) {
	for len(extra) >= 4 {
		id := binary.LittleEndian.Uint16(extra[0:2])
		size := int(binary.LittleEndian.Uint16(extra[2:4]))
		if 4+size > len(extra) {
			return
		}
		if !fn(id, extra[4:4+size]) {
			return
		}
		extra = extra[4+size:]
	}
}

// UnicodePathName returns the UTF-8 name carried by a Unicode Path extra
// field, if the field is present and internally consistent: version 1 and a
// NameCRC32 matching rawName. An inconsistent field means the name was
// changed after the field was written, so it is treated as absent.
func UnicodePathName(extra, rawName []byte) ([]byte, bool) {
	var name []byte
	forEachExtra(extra, func(id uint16, data []byte) bool {
		if id != UnicodePathID {
			return true
		}
		if len(data) < 5 || data[0] != 1 {
			return true
		}
		if binary.LittleEndian.Uint32(data[1:5]) != crc32.ChecksumIEEE(rawName) {
			return true
		}
		name = data[5:]
		return false
	})
	return name, name != nil
}

// StripUnicodePath returns extra with every Unicode Path block removed.
// Once flag bit 11 is set the field is redundant. A malformed tail is kept
// verbatim.
func StripUnicodePath(extra []byte) []byte {
	out := make([]byte, 0, len(extra))
	rest := extra
	for len(rest) >= 4 {
		size := int(binary.LittleEndian.Uint16(rest[2:4]))
		if 4+size > len(rest) {
			break
		}
		if binary.LittleEndian.Uint16(rest[0:2]) != UnicodePathID {
			out = append(out, rest[:4+size]...)
		}
		rest = rest[4+size:]
	}
	out = append(out, rest...)
	if len(out) == 0 {
		return nil
	}
	return out
}
