package repair

import (
	"fmt"
	"unicode/utf8"

	"github.com/zipmend/zipmend/pkg/fname"
	"github.com/zipmend/zipmend/pkg/zipfile"
)

// Options configures plan building.
type Options struct {
	// Hint is the preferred legacy encoding, typically from the locale.
	Hint fname.Decoder
	// PreferUTF8 ranks a viable UTF-8 reading above the hint.
	PreferUTF8 bool
	// Forced bypasses detection entirely; entries whose names do not
	// decode under it become unrecoverable.
	Forced fname.Decoder
}

// BuildPlan derives the repair plan for a parsed archive. It is a pure
// function of the archive's central directory; nothing is read from entry
// payloads and nothing is mutated.
//
// Per-entry precedence: a consistent Unicode Path extra field wins, then an
// explicit valid UTF-8 name (clean or renormalize), then the archive-wide
// legacy encoding chosen by detection or forced by the caller.
func BuildPlan(a *zipfile.Archive, opts Options) *Plan {
	plan := &Plan{Entries: make([]EntryPlan, len(a.Entries))}

	// Entries the legacy encoding has to account for: flag unset, or flag
	// set but lying about UTF-8. Comments are encoded the same way as
	// names, so they constrain detection too.
	var inputs [][]byte
	legacy := make([]bool, len(a.Entries))
	for i := range a.Entries {
		cd := &a.Entries[i]
		if up, ok := zipfile.UnicodePathName(cd.Extra, cd.Name); ok && utf8.Valid(up) {
			plan.Entries[i] = EntryPlan{Decision: DecisionClean, Name: string(up)}
			continue
		}
		if cd.IsUTF8() && utf8.Valid(cd.Name) {
			name := string(cd.Name)
			if fname.NeedsCompose(name) {
				plan.Entries[i] = EntryPlan{Decision: DecisionRenormalize, Name: fname.Compose(name)}
			} else {
				plan.Entries[i] = EntryPlan{Decision: DecisionClean}
			}
			continue
		}
		legacy[i] = true
		inputs = append(inputs, cd.Name)
		if len(cd.Comment) > 0 {
			inputs = append(inputs, cd.Comment)
		}
	}

	if len(inputs) == 0 {
		plan.Verdict = verdictFromEntries(plan.Entries)
		return plan
	}

	if opts.Forced != nil {
		plan.Encoding = opts.Forced
		reencodeAll(a, plan, legacy, opts.Forced)
		plan.Verdict = verdictFromEntries(plan.Entries)
		return plan
	}

	res := fname.Detect(inputs, fname.Options{Hint: opts.Hint, PreferUTF8: opts.PreferUTF8})
	plan.Viable = res.Viable
	switch res.Status {
	case fname.StatusASCII:
		// Trivially viable under every candidate: the names are already
		// correct as stored, with nothing to rewrite.
		for i := range plan.Entries {
			if legacy[i] {
				plan.Entries[i] = EntryPlan{Decision: DecisionClean}
			}
		}
	case fname.StatusDecoded:
		plan.Encoding = res.Decoder
		reencodeAll(a, plan, legacy, res.Decoder)
	case fname.StatusAmbiguous:
		plan.Verdict = VerdictAmbiguous
		markUnrecoverable(plan, legacy, "multiple viable encodings, none preferred")
		return plan
	case fname.StatusNone:
		plan.Verdict = VerdictUnsupported
		markUnrecoverable(plan, legacy, "no known encoding decodes every entry name")
		return plan
	}

	plan.Verdict = verdictFromEntries(plan.Entries)
	return plan
}

func reencodeAll(a *zipfile.Archive, plan *Plan, legacy []bool, dec fname.Decoder) {
	for i := range a.Entries {
		if !legacy[i] {
			continue
		}
		cd := &a.Entries[i]
		name, err := dec.Decode(cd.Name)
		if err != nil {
			plan.Entries[i] = EntryPlan{
				Decision: DecisionUnrecoverable,
				Reason:   fmt.Sprintf("name does not decode as %s: %v", dec.Name(), err),
			}
			continue
		}
		plan.Entries[i] = EntryPlan{
			Decision: DecisionReencode,
			Name:     name,
			Comment:  dec.DecodeLossy(cd.Comment),
		}
	}
}

func markUnrecoverable(plan *Plan, legacy []bool, reason string) {
	for i := range plan.Entries {
		if legacy[i] {
			plan.Entries[i] = EntryPlan{Decision: DecisionUnrecoverable, Reason: reason}
		}
	}
}

func verdictFromEntries(entries []EntryPlan) Verdict {
	repaired := false
	unrecoverable := false
	for i := range entries {
		switch entries[i].Decision {
		case DecisionReencode, DecisionRenormalize:
			repaired = true
		case DecisionUnrecoverable:
			unrecoverable = true
		}
	}
	switch {
	case repaired:
		return VerdictRepaired
	case unrecoverable:
		return VerdictUnsupported
	default:
		return VerdictAlreadyValid
	}
}
