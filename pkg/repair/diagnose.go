package repair

import (
	"unicode/utf8"

	"github.com/zipmend/zipmend/pkg/fname"
	"github.com/zipmend/zipmend/pkg/zipfile"
)

// Diagnosis summarizes why an archive does or does not travel well across
// platforms.
type Diagnosis struct {
	// ImplicitNonASCII: names without flag bit 11 that are not plain
	// ASCII, so receivers must guess the encoding.
	ImplicitNonASCII bool
	// IrregularUTF8: explicit UTF-8 names stored in a non-NFC form, as
	// written by e.g. the macOS Finder.
	IrregularUTF8 bool
}

// Diagnose inspects the central directory names only; payloads are not
// touched.
func Diagnose(a *zipfile.Archive) Diagnosis {
	var d Diagnosis
	ascii := fname.ASCII()
	for i := range a.Entries {
		cd := &a.Entries[i]
		if cd.IsUTF8() {
			if utf8.Valid(cd.Name) && fname.NeedsCompose(string(cd.Name)) {
				d.IrregularUTF8 = true
			}
			continue
		}
		if _, err := ascii.Decode(cd.Name); err != nil {
			d.ImplicitNonASCII = true
		}
	}
	return d
}

// Universal reports whether practically every unzip implementation will
// show these names correctly as-is.
func (d Diagnosis) Universal() bool {
	return !d.ImplicitNonASCII && !d.IrregularUTF8
}

// Message returns the primary status line for check mode.
func (d Diagnosis) Message() string {
	switch {
	case d.ImplicitNonASCII && d.IrregularUTF8:
		return "Some file names use irregular unicode normalization and others are encoded implicitly in a multibyte encoding."
	case d.ImplicitNonASCII:
		return "Some file names are encoded implicitly in a multibyte encoding."
	case d.IrregularUTF8:
		return "Some file names use irregular unicode normalization."
	}
	return "All file names are encoded in ASCII or explicitly in UTF-8."
}

// Note returns the follow-up line shown with Message.
func (d Diagnosis) Note() string {
	if d.Universal() {
		return "Almost all devices can decode the file names correctly."
	}
	return "Repair this archive, or receivers may not see the correct file names."
}
