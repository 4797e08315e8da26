// Package repair decides, per entry and per archive, how ZIP entry names
// are brought to explicit UTF-8, and applies the decision by rebuilding the
// archive stream.
package repair

import "github.com/zipmend/zipmend/pkg/fname"

// Decision is the per-entry repair action.
type Decision int

const (
	// DecisionClean leaves the entry as it is; the name is already usable
	// everywhere (explicit NFC UTF-8, plain ASCII, or superseded by a
	// consistent Unicode Path extra field).
	DecisionClean Decision = iota
	// DecisionReencode re-decodes the name from the chosen legacy encoding
	// and stores it as UTF-8.
	DecisionReencode
	// DecisionRenormalize rewrites an explicit UTF-8 name from a
	// decomposed form to canonical NFC.
	DecisionRenormalize
	// DecisionUnrecoverable passes the entry through unchanged; no chosen
	// encoding decodes its name.
	DecisionUnrecoverable
)

func (d Decision) String() string {
	switch d {
	case DecisionClean:
		return "clean"
	case DecisionReencode:
		return "reencode"
	case DecisionRenormalize:
		return "renormalize"
	case DecisionUnrecoverable:
		return "unrecoverable"
	}
	return "unknown"
}

// Verdict is the archive-wide outcome.
type Verdict int

const (
	// VerdictAlreadyValid means every entry is clean; nothing to rewrite.
	VerdictAlreadyValid Verdict = iota
	// VerdictRepaired means at least one entry gets rewritten; entries
	// that stay unrecoverable pass through unchanged (partial repair).
	VerdictRepaired
	// VerdictAmbiguous means several encodings decode every name and the
	// hint resolves none; repairing would be a silent guess.
	VerdictAmbiguous
	// VerdictUnsupported means no known encoding decodes every name.
	VerdictUnsupported
)

func (v Verdict) String() string {
	switch v {
	case VerdictAlreadyValid:
		return "already valid"
	case VerdictRepaired:
		return "repaired"
	case VerdictAmbiguous:
		return "ambiguous"
	case VerdictUnsupported:
		return "unsupported"
	}
	return "unknown"
}

// EntryPlan is the decision for one entry. Name and Comment hold the
// replacement UTF-8 text; an empty Name means the stored bytes stay.
type EntryPlan struct {
	Decision Decision
	Name     string
	Comment  string
	Reason   string
}

// Plan is the archive-wide repair plan: one EntryPlan per entry in
// central-directory order, the chosen legacy encoding if any, and the
// overall verdict.
type Plan struct {
	Verdict  Verdict
	Encoding fname.Decoder
	Viable   []fname.Decoder
	Entries  []EntryPlan
}

// UnrecoverableCount returns the number of entries that pass through
// unchanged.
func (p *Plan) UnrecoverableCount() int {
	n := 0
	for i := range p.Entries {
		if p.Entries[i].Decision == DecisionUnrecoverable {
			n++
		}
	}
	return n
}
