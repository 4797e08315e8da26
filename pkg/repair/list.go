package repair

import (
	"unicode/utf8"

	"github.com/zipmend/zipmend/pkg/fname"
	"github.com/zipmend/zipmend/pkg/zipfile"
)

// NameKind classifies how an entry name is stored.
type NameKind int

const (
	// NameRegularUTF8: explicit UTF-8 in canonical NFC form.
	NameRegularUTF8 NameKind = iota
	// NameIrregularUTF8: explicit UTF-8 in a decomposed form.
	NameIrregularUTF8
	// NameASCII: implicit but plain ASCII, safe everywhere.
	NameASCII
	// NameGuessed: implicit non-ASCII, shown through a legacy decoder.
	NameGuessed
)

// NameEntry is one listing line: the name as currently decodable plus how
// it was stored. Encoding names the decoder used for NameGuessed entries.
type NameEntry struct {
	Name     string
	Kind     NameKind
	Encoding string
}

// ListNames decodes every entry name for display. legacy is used for
// implicit non-ASCII names and may come from detection, a hint, or an
// ambiguous archive's display pick; decoding is lossy here since listing
// must never fail.
func ListNames(a *zipfile.Archive, legacy fname.Decoder) []NameEntry {
	ascii := fname.ASCII()
	list := make([]NameEntry, 0, len(a.Entries))
	for i := range a.Entries {
		cd := &a.Entries[i]

		if up, ok := zipfile.UnicodePathName(cd.Extra, cd.Name); ok && utf8.Valid(up) {
			list = append(list, NameEntry{Name: string(up), Kind: NameRegularUTF8})
			continue
		}
		if cd.IsUTF8() && utf8.Valid(cd.Name) {
			name := string(cd.Name)
			kind := NameRegularUTF8
			if fname.NeedsCompose(name) {
				kind = NameIrregularUTF8
			}
			list = append(list, NameEntry{Name: fname.Compose(name), Kind: kind})
			continue
		}
		if name, err := ascii.Decode(cd.Name); err == nil {
			list = append(list, NameEntry{Name: name, Kind: NameASCII})
			continue
		}
		list = append(list, NameEntry{
			Name:     legacy.DecodeLossy(cd.Name),
			Kind:     NameGuessed,
			Encoding: legacy.Name(),
		})
	}
	return list
}
