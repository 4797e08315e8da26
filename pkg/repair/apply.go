package repair

import (
	"fmt"
	"io"

	"github.com/zipmend/zipmend/pkg/zipfile"
)

// Apply rebuilds the archive to dst according to plan. Entry payloads are
// copied verbatim; only names, comments, flag bit 11, the related length
// fields and the recomputed offsets change. Unrecoverable entries are
// written through untouched so no data is ever dropped.
//
// The caller decides whether applying is appropriate: an ambiguous or
// unsupported plan still applies mechanically (everything passes through),
// so surfacing those verdicts instead of writing is the caller's job.
func Apply(a *zipfile.Archive, plan *Plan, dst io.Writer) error {
	if len(plan.Entries) != len(a.Entries) {
		return fmt.Errorf("plan covers %d entries, archive has %d", len(plan.Entries), len(a.Entries))
	}

	entries := make([]zipfile.CentralHeader, len(a.Entries))
	for i := range a.Entries {
		cd := a.Entries[i]
		ep := &plan.Entries[i]

		switch ep.Decision {
		case DecisionUnrecoverable:
			// Pass through: original name bytes, flag unset.
		case DecisionReencode:
			cd.SetName([]byte(ep.Name))
			cd.SetComment([]byte(ep.Comment))
			cd.SetUTF8Flag()
		case DecisionRenormalize:
			cd.SetName([]byte(ep.Name))
			// Flag bit 11 is already set on these entries.
		case DecisionClean:
			// A clean entry only changes when a Unicode Path extra field
			// carries a name superseding the stored bytes.
			if ep.Name != "" && ep.Name != string(cd.Name) {
				cd.SetName([]byte(ep.Name))
				cd.SetUTF8Flag()
			}
		}
		if cd.IsUTF8() {
			cd.Extra = zipfile.StripUnicodePath(cd.Extra)
		}
		entries[i] = cd
	}

	return zipfile.Rebuild(dst, a, entries, zipfile.WithStripUnicodePath())
}
