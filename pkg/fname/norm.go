package fname

import "golang.org/x/text/unicode/norm"

// Compose returns s in canonical composed form (NFC).
func Compose(s string) string {
	return norm.NFC.String(s)
}

// NeedsCompose reports whether s is stored in a non-canonical form, such as
// the HFS+-style decomposition some macOS archivers write. The test is the
// compose-then-compare round trip: any name whose NFC form differs from the
// stored text needs correction, whichever decomposed variant produced it.
func NeedsCompose(s string) bool {
	return norm.NFC.String(s) != s
}
