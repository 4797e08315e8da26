package zipfile

import (
	"fmt"
	"io"
)

// RebuildOption configures a Rebuild call.
type RebuildOption func(*rebuildConfig)

type rebuildConfig struct {
	stripUnicodePath bool
}

// WithStripUnicodePath removes Info-ZIP Unicode Path extra fields from the
// local headers of entries whose central directory flag bit 11 is set. The
// caller is expected to have stripped the central directory copies itself.
func WithStripUnicodePath() RebuildOption {
	return func(c *rebuildConfig) {
		c.stripUnicodePath = true
	}
}

// Rebuild writes a new archive to dst: the local file headers and payloads
// of every entry in central-directory order, then the central directory and
// a fresh EOCD record. entries provides the desired central directory state,
// one header per source entry; names, flag bit 11 and extra fields are taken
// from it, while payload bytes are copied verbatim from the source by their
// original byte ranges. Local header offsets, the central directory size and
// its offset are recomputed from the actual output positions.
//
// The source Archive is not mutated, so a failed rewrite leaves it reusable.
func Rebuild(dst io.Writer, a *Archive, entries []CentralHeader, opts ...RebuildOption) error {
	if len(entries) != len(a.Entries) {
		return fmt.Errorf("entry count mismatch: %d headers for %d entries", len(entries), len(a.Entries))
	}

	var cfg rebuildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	// Any leading self-extractor stub stays in place.
	pos := a.prefixLen()
	if pos > 0 {
		if _, err := a.src.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("seek prefix: %w", err)
		}
		if _, err := io.CopyN(dst, a.src, pos); err != nil {
			return fmt.Errorf("copy prefix: %w", err)
		}
	}

	out := make([]CentralHeader, len(entries))
	for i := range entries {
		rec, err := a.Local(i)
		if err != nil {
			return err
		}

		lh := rec.Header
		lh.Name = entries[i].Name
		if entries[i].Flags&FlagUTF8 != 0 {
			lh.SetUTF8Flag()
			if cfg.stripUnicodePath {
				lh.Extra = StripUnicodePath(lh.Extra)
			}
		}

		buf, err := lh.MarshalBinary()
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if _, err := dst.Write(buf); err != nil {
			return fmt.Errorf("write local header: %w", err)
		}

		if _, err := a.src.Seek(rec.PayloadOffset, io.SeekStart); err != nil {
			return fmt.Errorf("seek payload: %w", err)
		}
		if _, err := io.CopyN(dst, a.src, int64(a.Entries[i].CompressedSize)); err != nil {
			return fmt.Errorf("copy payload of entry %d: %w", i, err)
		}

		out[i] = entries[i]
		out[i].LocalHeaderOffset = uint32(pos)
		if pos > 0xffffffff {
			return &UnsupportedError{Reason: "rewritten archive would exceed 4 GiB and require zip64"}
		}
		pos += int64(lh.Size()) + int64(a.Entries[i].CompressedSize)

		if rec.Descriptor != nil {
			buf, err := rec.Descriptor.MarshalBinary()
			if err != nil {
				return err
			}
			if _, err := dst.Write(buf); err != nil {
				return fmt.Errorf("write data descriptor: %w", err)
			}
			pos += int64(rec.Descriptor.Size())
		}
	}

	cdOffset := pos
	if cdOffset > 0xffffffff {
		return &UnsupportedError{Reason: "rewritten archive would exceed 4 GiB and require zip64"}
	}
	var cdSize int64
	for i := range out {
		buf, err := out[i].MarshalBinary()
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if _, err := dst.Write(buf); err != nil {
			return fmt.Errorf("write central directory: %w", err)
		}
		cdSize += int64(len(buf))
	}

	eocd := a.EOCD
	eocd.CDCount = uint16(len(out))
	eocd.CDCountOnDisk = uint16(len(out))
	eocd.CDSize = uint32(cdSize)
	eocd.CDOffset = uint32(cdOffset)
	buf, err := eocd.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := dst.Write(buf); err != nil {
		return fmt.Errorf("write end of central directory: %w", err)
	}
	return nil
}
