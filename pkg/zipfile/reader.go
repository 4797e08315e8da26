package zipfile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxEOCDSearch bounds the backward signature scan: the record itself plus
// the largest possible trailing comment.
const maxEOCDSearch = EOCDSize + 0xffff

// Archive is the parsed central directory of a ZIP file. Entries are kept in
// central-directory order and are read-only; rewriting happens through
// Rebuild, which never mutates the source. Local file headers are resolved
// lazily by their recorded offsets.
type Archive struct {
	src  io.ReadSeeker
	size int64

	EOCD    EOCD
	Entries []CentralHeader

	// eocdOffset is the absolute position of the EOCD signature, used to
	// verify that the central directory runs exactly up to the record.
	eocdOffset int64
}

// LocalRecord is a resolved local file header plus the position of the
// compressed payload that follows it in the source stream.
type LocalRecord struct {
	Header        LocalHeader
	PayloadOffset int64
	Descriptor    *Descriptor
}

// Parse reads the central directory of the archive in src. It fails with
// *FormatError on malformed or truncated structure and with
// *UnsupportedError on zip64, split or encrypted archives.
func Parse(src io.ReadSeeker) (*Archive, error) {
	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek end: %w", err)
	}

	a := &Archive{src: src, size: size}
	if err := a.findEOCD(); err != nil {
		return nil, err
	}
	if err := a.checkUnsupported(); err != nil {
		return nil, err
	}
	if err := a.readCentralDirectory(); err != nil {
		return nil, err
	}
	return a, nil
}

// findEOCD scans backward from the end of the stream for the EOCD signature.
// A candidate counts only if its declared comment length reaches exactly to
// the end of the stream, which skips signature bytes that happen to occur
// inside the comment or payload data.
func (a *Archive) findEOCD() error {
	n := a.size
	if n > maxEOCDSearch {
		n = maxEOCDSearch
	}
	if n < EOCDSize {
		return &FormatError{Reason: "file too small to contain an end of central directory record"}
	}

	tail := make([]byte, n)
	start := a.size - n
	if _, err := a.src.Seek(start, io.SeekStart); err != nil {
		return fmt.Errorf("seek eocd area: %w", err)
	}
	if _, err := io.ReadFull(a.src, tail); err != nil {
		return fmt.Errorf("read eocd area: %w", err)
	}

	for i := len(tail) - EOCDSize; i >= 0; i-- {
		if binary.LittleEndian.Uint32(tail[i:i+4]) != EOCDSignature {
			continue
		}
		commentLen := int(binary.LittleEndian.Uint16(tail[i+20 : i+22]))
		if i+EOCDSize+commentLen != len(tail) {
			continue
		}
		a.EOCD.DecodeFrom(tail[i:])
		a.EOCD.Comment = append([]byte(nil), tail[i+EOCDSize:]...)
		a.eocdOffset = start + int64(i)
		return nil
	}
	return &FormatError{Reason: "end of central directory signature not found"}
}

func (a *Archive) checkUnsupported() error {
	if a.EOCD.IsZip64() {
		return &UnsupportedError{Reason: "zip64 archives are not supported"}
	}
	if a.EOCD.IsSplit() {
		return &UnsupportedError{Reason: "split (multi-volume) archives are not supported"}
	}
	if int64(a.EOCD.CDOffset)+int64(a.EOCD.CDSize) > a.eocdOffset {
		return &FormatError{Reason: fmt.Sprintf(
			"central directory (offset %d, size %d) overlaps the end of central directory record at %d",
			a.EOCD.CDOffset, a.EOCD.CDSize, a.eocdOffset)}
	}
	return nil
}

func (a *Archive) readCentralDirectory() error {
	pos, err := a.src.Seek(int64(a.EOCD.CDOffset), io.SeekStart)
	if err != nil {
		return fmt.Errorf("seek central directory: %w", err)
	}

	a.Entries = make([]CentralHeader, 0, a.EOCD.CDCount)
	for i := 0; i < int(a.EOCD.CDCount); i++ {
		var fixed [CentralHeaderSize]byte
		if _, err := io.ReadFull(a.src, fixed[:]); err != nil {
			return &FormatError{Reason: fmt.Sprintf("central directory entry %d truncated at position %d", i, pos)}
		}
		if binary.LittleEndian.Uint32(fixed[0:4]) != CentralHeaderSignature {
			return &FormatError{Reason: fmt.Sprintf("central directory signature not found at position %d", pos)}
		}

		var h CentralHeader
		nameLen, extraLen, commentLen := h.decodeFixed(fixed[:])
		tail := make([]byte, nameLen+extraLen+commentLen)
		if _, err := io.ReadFull(a.src, tail); err != nil {
			return &FormatError{Reason: fmt.Sprintf("central directory entry %d truncated at position %d", i, pos)}
		}
		h.Name = tail[:nameLen]
		h.Extra = tail[nameLen : nameLen+extraLen]
		h.Comment = tail[nameLen+extraLen:]

		if h.DiskStart != 0 {
			return &UnsupportedError{Reason: "split (multi-volume) archives are not supported"}
		}
		if h.IsEncrypted() {
			return &UnsupportedError{Reason: fmt.Sprintf("entry %d is encrypted", i)}
		}

		a.Entries = append(a.Entries, h)
		pos += int64(h.Size())
	}

	if pos != a.eocdOffset {
		return &UnsupportedError{Reason: fmt.Sprintf(
			"%d bytes of extra data between the central directory and the end of central directory record",
			a.eocdOffset-pos)}
	}
	return nil
}

// Local resolves the local file header of entry i from its recorded offset.
// The payload itself is not read; LocalRecord records where it starts so a
// rewrite can copy it verbatim.
func (a *Archive) Local(i int) (*LocalRecord, error) {
	cd := &a.Entries[i]
	offset := int64(cd.LocalHeaderOffset)
	if _, err := a.src.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek local header: %w", err)
	}

	var fixed [LocalHeaderSize]byte
	if _, err := io.ReadFull(a.src, fixed[:]); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("local file header truncated at position %d", offset)}
	}
	if binary.LittleEndian.Uint32(fixed[0:4]) != LocalHeaderSignature {
		return nil, &FormatError{Reason: fmt.Sprintf("local file header signature not found at position %d", offset)}
	}

	rec := &LocalRecord{}
	nameLen, extraLen := rec.Header.decodeFixed(fixed[:])
	tail := make([]byte, nameLen+extraLen)
	if _, err := io.ReadFull(a.src, tail); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("local file header truncated at position %d", offset)}
	}
	rec.Header.Name = tail[:nameLen]
	rec.Header.Extra = tail[nameLen:]
	rec.PayloadOffset = offset + int64(LocalHeaderSize+nameLen+extraLen)

	if rec.PayloadOffset+int64(cd.CompressedSize) > a.size {
		return nil, &FormatError{Reason: fmt.Sprintf(
			"payload of entry %d (offset %d, size %d) runs past the end of the file",
			i, rec.PayloadOffset, cd.CompressedSize)}
	}

	if rec.Header.Flags&FlagDataDescriptor != 0 {
		desc, err := a.readDescriptor(rec.PayloadOffset + int64(cd.CompressedSize))
		if err != nil {
			return nil, err
		}
		rec.Descriptor = desc
	}
	return rec, nil
}

// readDescriptor reads the data descriptor at offset, accepting both the
// bare 12-byte form and the form with a leading signature.
func (a *Archive) readDescriptor(offset int64) (*Descriptor, error) {
	if _, err := a.src.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek data descriptor: %w", err)
	}
	var buf [DescriptorSize + 4]byte
	if _, err := io.ReadFull(a.src, buf[:DescriptorSize]); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("data descriptor truncated at position %d", offset)}
	}

	d := &Descriptor{}
	b := buf[:DescriptorSize]
	if binary.LittleEndian.Uint32(b[0:4]) == DescriptorSignature {
		if _, err := io.ReadFull(a.src, buf[DescriptorSize:]); err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("data descriptor truncated at position %d", offset)}
		}
		d.HasSignature = true
		b = buf[4:]
	}
	d.CRC32 = binary.LittleEndian.Uint32(b[0:4])
	d.CompressedSize = binary.LittleEndian.Uint32(b[4:8])
	d.UncompressedSize = binary.LittleEndian.Uint32(b[8:12])
	return d, nil
}

// prefixLen returns the length of any self-extractor stub or other data
// preceding the first local file header. Such a prefix is preserved verbatim
// on rewrite.
func (a *Archive) prefixLen() int64 {
	if len(a.Entries) == 0 {
		return 0
	}
	min := int64(a.Entries[0].LocalHeaderOffset)
	for i := 1; i < len(a.Entries); i++ {
		if off := int64(a.Entries[i].LocalHeaderOffset); off < min {
			min = off
		}
	}
	return min
}
