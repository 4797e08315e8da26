// Package zipfile provides a structural reader and writer for the ZIP
// container format. It parses the end-of-central-directory record, central
// directory headers and local file headers, and can re-emit an archive with
// rewritten metadata while copying compressed payload bytes verbatim.
package zipfile

import (
	"encoding/binary"
	"fmt"
)

// Record signatures, little-endian "PK.." magic values.
const (
	LocalHeaderSignature   uint32 = 0x04034b50
	CentralHeaderSignature uint32 = 0x02014b50
	EOCDSignature          uint32 = 0x06054b50
	DescriptorSignature    uint32 = 0x08074b50
)

// General purpose flag bits.
const (
	FlagEncrypted      uint16 = 1 << 0
	FlagDataDescriptor uint16 = 1 << 3
	FlagUTF8           uint16 = 1 << 11
)

// Fixed binary sizes, signature included.
const (
	LocalHeaderSize   = 30
	CentralHeaderSize = 46
	EOCDSize          = 22
	DescriptorSize    = 12
)

// EOCD is the end-of-central-directory record. The trailing archive comment
// of variable length is the reason the record must be located by a backward
// signature scan.
type EOCD struct {
	DiskNumber    uint16
	CDStartDisk   uint16
	CDCountOnDisk uint16
	CDCount       uint16
	CDSize        uint32
	CDOffset      uint32
	Comment       []byte
}

// Size returns the encoded size of the record including the comment.
func (e *EOCD) Size() int {
	return EOCDSize + len(e.Comment)
}

// DecodeFrom reads the record from buf, which must start at the signature.
// Does not validate - the caller checks the comment length against the
// remaining stream.
func (e *EOCD) DecodeFrom(buf []byte) {
	e.DiskNumber = binary.LittleEndian.Uint16(buf[4:6])
	e.CDStartDisk = binary.LittleEndian.Uint16(buf[6:8])
	e.CDCountOnDisk = binary.LittleEndian.Uint16(buf[8:10])
	e.CDCount = binary.LittleEndian.Uint16(buf[10:12])
	e.CDSize = binary.LittleEndian.Uint32(buf[12:16])
	e.CDOffset = binary.LittleEndian.Uint32(buf[16:20])
}

// EncodeTo writes the record to buf. The buffer must be at least Size() bytes.
func (e *EOCD) EncodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], EOCDSignature)
	binary.LittleEndian.PutUint16(buf[4:6], e.DiskNumber)
	binary.LittleEndian.PutUint16(buf[6:8], e.CDStartDisk)
	binary.LittleEndian.PutUint16(buf[8:10], e.CDCountOnDisk)
	binary.LittleEndian.PutUint16(buf[10:12], e.CDCount)
	binary.LittleEndian.PutUint32(buf[12:16], e.CDSize)
	binary.LittleEndian.PutUint32(buf[16:20], e.CDOffset)
	binary.LittleEndian.PutUint16(buf[20:22], uint16(len(e.Comment)))
	copy(buf[EOCDSize:], e.Comment)
}

// MarshalBinary encodes the record to binary format.
func (e *EOCD) MarshalBinary() ([]byte, error) {
	if len(e.Comment) > 0xffff {
		return nil, fmt.Errorf("archive comment too long: %d bytes", len(e.Comment))
	}
	buf := make([]byte, e.Size())
	e.EncodeTo(buf)
	return buf, nil
}

// IsSplit reports whether the record belongs to a multi-volume archive.
func (e *EOCD) IsSplit() bool {
	return e.DiskNumber != 0 || e.CDStartDisk != 0 || e.CDCount != e.CDCountOnDisk
}

// IsZip64 reports whether any field carries the zip64 overflow marker.
func (e *EOCD) IsZip64() bool {
	return e.CDOffset == 0xffffffff ||
		e.CDSize == 0xffffffff ||
		e.CDCount == 0xffff ||
		e.CDCountOnDisk == 0xffff ||
		e.DiskNumber == 0xffff ||
		e.CDStartDisk == 0xffff
}

// CentralHeader is one central directory entry. Name, Extra and Comment hold
// the variable-length tails; the corresponding length fields are derived from
// the slices on encode so the two can never disagree.
type CentralHeader struct {
	VersionMadeBy     uint16
	VersionNeeded     uint16
	Flags             uint16
	Method            uint16
	ModTime           uint16
	ModDate           uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	DiskStart         uint16
	InternalAttrs     uint16
	ExternalAttrs     uint32
	LocalHeaderOffset uint32

	Name    []byte
	Extra   []byte
	Comment []byte
}

// Size returns the encoded size of the header.
func (h *CentralHeader) Size() int {
	return CentralHeaderSize + len(h.Name) + len(h.Extra) + len(h.Comment)
}

// IsUTF8 reports whether general purpose flag bit 11 is set, marking the
// name and comment as UTF-8 encoded.
func (h *CentralHeader) IsUTF8() bool {
	return h.Flags&FlagUTF8 != 0
}

// IsEncrypted reports whether the entry payload is encrypted.
func (h *CentralHeader) IsEncrypted() bool {
	return h.Flags&FlagEncrypted != 0
}

// HasDataDescriptor reports whether a data descriptor follows the payload.
func (h *CentralHeader) HasDataDescriptor() bool {
	return h.Flags&FlagDataDescriptor != 0
}

// SetUTF8Flag sets general purpose flag bit 11.
func (h *CentralHeader) SetUTF8Flag() {
	h.Flags |= FlagUTF8
}

// SetName replaces the entry name.
func (h *CentralHeader) SetName(name []byte) {
	h.Name = name
}

// SetComment replaces the entry comment.
func (h *CentralHeader) SetComment(comment []byte) {
	h.Comment = comment
}

// Validate checks the variable-length tails against their 16-bit length
// fields in the encoded form.
func (h *CentralHeader) Validate() error {
	if len(h.Name) > 0xffff {
		return fmt.Errorf("entry name too long: %d bytes", len(h.Name))
	}
	if len(h.Extra) > 0xffff {
		return fmt.Errorf("extra field too long: %d bytes", len(h.Extra))
	}
	if len(h.Comment) > 0xffff {
		return fmt.Errorf("entry comment too long: %d bytes", len(h.Comment))
	}
	return nil
}

// EncodeTo writes the header to buf. The buffer must be at least Size() bytes.
func (h *CentralHeader) EncodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], CentralHeaderSignature)
	binary.LittleEndian.PutUint16(buf[4:6], h.VersionMadeBy)
	binary.LittleEndian.PutUint16(buf[6:8], h.VersionNeeded)
	binary.LittleEndian.PutUint16(buf[8:10], h.Flags)
	binary.LittleEndian.PutUint16(buf[10:12], h.Method)
	binary.LittleEndian.PutUint16(buf[12:14], h.ModTime)
	binary.LittleEndian.PutUint16(buf[14:16], h.ModDate)
	binary.LittleEndian.PutUint32(buf[16:20], h.CRC32)
	binary.LittleEndian.PutUint32(buf[20:24], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[24:28], h.UncompressedSize)
	binary.LittleEndian.PutUint16(buf[28:30], uint16(len(h.Name)))
	binary.LittleEndian.PutUint16(buf[30:32], uint16(len(h.Extra)))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(len(h.Comment)))
	binary.LittleEndian.PutUint16(buf[34:36], h.DiskStart)
	binary.LittleEndian.PutUint16(buf[36:38], h.InternalAttrs)
	binary.LittleEndian.PutUint32(buf[38:42], h.ExternalAttrs)
	binary.LittleEndian.PutUint32(buf[42:46], h.LocalHeaderOffset)
	n := copy(buf[CentralHeaderSize:], h.Name)
	n += copy(buf[CentralHeaderSize+n:], h.Extra)
	copy(buf[CentralHeaderSize+n:], h.Comment)
}

// MarshalBinary encodes the header to binary format.
func (h *CentralHeader) MarshalBinary() ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, h.Size())
	h.EncodeTo(buf)
	return buf, nil
}

// decodeFixed reads the fixed portion from buf, which must start at the
// signature, and returns the three tail lengths.
func (h *CentralHeader) decodeFixed(buf []byte) (nameLen, extraLen, commentLen int) {
	h.VersionMadeBy = binary.LittleEndian.Uint16(buf[4:6])
	h.VersionNeeded = binary.LittleEndian.Uint16(buf[6:8])
	h.Flags = binary.LittleEndian.Uint16(buf[8:10])
	h.Method = binary.LittleEndian.Uint16(buf[10:12])
	h.ModTime = binary.LittleEndian.Uint16(buf[12:14])
	h.ModDate = binary.LittleEndian.Uint16(buf[14:16])
	h.CRC32 = binary.LittleEndian.Uint32(buf[16:20])
	h.CompressedSize = binary.LittleEndian.Uint32(buf[20:24])
	h.UncompressedSize = binary.LittleEndian.Uint32(buf[24:28])
	nameLen = int(binary.LittleEndian.Uint16(buf[28:30]))
	extraLen = int(binary.LittleEndian.Uint16(buf[30:32]))
	commentLen = int(binary.LittleEndian.Uint16(buf[32:34]))
	h.DiskStart = binary.LittleEndian.Uint16(buf[34:36])
	h.InternalAttrs = binary.LittleEndian.Uint16(buf[36:38])
	h.ExternalAttrs = binary.LittleEndian.Uint32(buf[38:42])
	h.LocalHeaderOffset = binary.LittleEndian.Uint32(buf[42:46])
	return nameLen, extraLen, commentLen
}

// LocalHeader is the per-entry header immediately preceding the compressed
// payload.
type LocalHeader struct {
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32

	Name  []byte
	Extra []byte
}

// Size returns the encoded size of the header.
func (h *LocalHeader) Size() int {
	return LocalHeaderSize + len(h.Name) + len(h.Extra)
}

// SetUTF8Flag sets general purpose flag bit 11.
func (h *LocalHeader) SetUTF8Flag() {
	h.Flags |= FlagUTF8
}

// EncodeTo writes the header to buf. The buffer must be at least Size() bytes.
func (h *LocalHeader) EncodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], LocalHeaderSignature)
	binary.LittleEndian.PutUint16(buf[4:6], h.VersionNeeded)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint16(buf[8:10], h.Method)
	binary.LittleEndian.PutUint16(buf[10:12], h.ModTime)
	binary.LittleEndian.PutUint16(buf[12:14], h.ModDate)
	binary.LittleEndian.PutUint32(buf[14:18], h.CRC32)
	binary.LittleEndian.PutUint32(buf[18:22], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[22:26], h.UncompressedSize)
	binary.LittleEndian.PutUint16(buf[26:28], uint16(len(h.Name)))
	binary.LittleEndian.PutUint16(buf[28:30], uint16(len(h.Extra)))
	n := copy(buf[LocalHeaderSize:], h.Name)
	copy(buf[LocalHeaderSize+n:], h.Extra)
}

// MarshalBinary encodes the header to binary format.
func (h *LocalHeader) MarshalBinary() ([]byte, error) {
	if len(h.Name) > 0xffff {
		return nil, fmt.Errorf("entry name too long: %d bytes", len(h.Name))
	}
	if len(h.Extra) > 0xffff {
		return nil, fmt.Errorf("extra field too long: %d bytes", len(h.Extra))
	}
	buf := make([]byte, h.Size())
	h.EncodeTo(buf)
	return buf, nil
}

// decodeFixed reads the fixed portion from buf, which must start at the
// signature, and returns the two tail lengths.
func (h *LocalHeader) decodeFixed(buf []byte) (nameLen, extraLen int) {
	h.VersionNeeded = binary.LittleEndian.Uint16(buf[4:6])
	h.Flags = binary.LittleEndian.Uint16(buf[6:8])
	h.Method = binary.LittleEndian.Uint16(buf[8:10])
	h.ModTime = binary.LittleEndian.Uint16(buf[10:12])
	h.ModDate = binary.LittleEndian.Uint16(buf[12:14])
	h.CRC32 = binary.LittleEndian.Uint32(buf[14:18])
	h.CompressedSize = binary.LittleEndian.Uint32(buf[18:22])
	h.UncompressedSize = binary.LittleEndian.Uint32(buf[22:26])
	nameLen = int(binary.LittleEndian.Uint16(buf[26:28]))
	extraLen = int(binary.LittleEndian.Uint16(buf[28:30]))
	return nameLen, extraLen
}

// Descriptor is the data descriptor following the payload of entries with
// flag bit 3 set. The leading signature is optional in the wild; when the
// source carried one it is reproduced on rewrite.
type Descriptor struct {
	HasSignature     bool
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
}

// Size returns the encoded size of the descriptor.
func (d *Descriptor) Size() int {
	if d.HasSignature {
		return DescriptorSize + 4
	}
	return DescriptorSize
}

// EncodeTo writes the descriptor to buf. The buffer must be at least Size()
// bytes.
func (d *Descriptor) EncodeTo(buf []byte) {
	if d.HasSignature {
		binary.LittleEndian.PutUint32(buf[0:4], DescriptorSignature)
		buf = buf[4:]
	}
	binary.LittleEndian.PutUint32(buf[0:4], d.CRC32)
	binary.LittleEndian.PutUint32(buf[4:8], d.CompressedSize)
	binary.LittleEndian.PutUint32(buf[8:12], d.UncompressedSize)
}

// MarshalBinary encodes the descriptor to binary format.
func (d *Descriptor) MarshalBinary() ([]byte, error) {
	buf := make([]byte, d.Size())
	d.EncodeTo(buf)
	return buf, nil
}
