package fname

import (
	"strings"

	"github.com/saintfish/chardet"
)

// Status is the outcome of archive-wide encoding detection.
type Status int

const (
	// StatusASCII means every input is plain ASCII; no re-encoding needed.
	StatusASCII Status = iota
	// StatusDecoded means exactly one encoding was selected.
	StatusDecoded
	// StatusAmbiguous means several candidates decode everything and the
	// hint resolves none of them. Result.Viable lists them.
	StatusAmbiguous
	// StatusNone means no candidate decodes every input.
	StatusNone
)

// Result reports the detection outcome. Decoder is non-nil only for
// StatusASCII and StatusDecoded.
type Result struct {
	Status  Status
	Decoder Decoder
	Viable  []Decoder
}

// Options configures Detect.
type Options struct {
	// Hint is the externally supplied preferred encoding, typically from
	// locale inspection. It breaks ties between viable strict candidates.
	// A hint outside the strict set (a full-coverage single-byte code
	// page, which decodes any byte sequence) is consulted only when no
	// strict candidate is viable, so the locale default cannot shadow a
	// real multibyte match.
	Hint Decoder
	// PreferUTF8 ranks the UTF-8 candidate above the hint when both are
	// viable.
	PreferUTF8 bool
}

// Detect infers the single legacy encoding that decodes every input, which
// for an archive is every flag-unset entry name plus entry comments. A
// candidate is viable only if it decodes all inputs without an ill-formed
// sequence; per-entry guessing would happily mix encodings and produce
// plausible-looking garbage.
func Detect(inputs [][]byte, opts Options) Result {
	if CanDecode(ASCII(), inputs) {
		return Result{Status: StatusASCII, Decoder: ASCII()}
	}

	candidates := []Decoder{UTF8()}
	candidates = append(candidates, strictCandidates...)

	var viable []Decoder
	for _, d := range candidates {
		if CanDecode(d, inputs) {
			viable = append(viable, d)
		}
	}

	switch len(viable) {
	case 0:
		if h := opts.Hint; h != nil && !containsDecoder(candidates, h) && CanDecode(h, inputs) {
			return Result{Status: StatusDecoded, Decoder: h, Viable: []Decoder{h}}
		}
		return Result{Status: StatusNone}
	case 1:
		return Result{Status: StatusDecoded, Decoder: viable[0], Viable: viable}
	}
	if opts.PreferUTF8 && containsDecoder(viable, UTF8()) {
		return Result{Status: StatusDecoded, Decoder: UTF8(), Viable: viable}
	}
	if opts.Hint != nil && containsDecoder(viable, opts.Hint) {
		return Result{Status: StatusDecoded, Decoder: opts.Hint, Viable: viable}
	}
	return Result{Status: StatusAmbiguous, Viable: viable}
}

func containsDecoder(list []Decoder, d Decoder) bool {
	for _, c := range list {
		if c.Name() == d.Name() {
			return true
		}
	}
	return false
}

// PickDisplay chooses which of several viable candidates to use for
// listing an ambiguous archive. A statistical charset detector ranks the
// concatenated name bytes; its verdict decides display only, never the
// repair itself. Falls back to the first viable candidate.
func PickDisplay(viable []Decoder, sample []byte) Decoder {
	if len(viable) == 0 {
		return nil
	}
	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err == nil {
		want := normalizeCharsetName(res.Charset)
		for _, d := range viable {
			if normalizeCharsetName(d.Name()) == want {
				return d
			}
		}
	}
	return viable[0]
}

func normalizeCharsetName(name string) string {
	s := strings.ToLower(name)
	s = strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	// chardet reports GB-18030 for both GBK and GB18030 text.
	if s == "gb18030" || s == "gb2312" {
		s = "gbk"
	}
	return s
}
