package fname

import "testing"

var (
	// Valid Shift_JIS only: 0xb1 is a bare half-width katakana byte that
	// every other candidate rejects.
	sjisOnly = [][]byte{{0xb1, '.', 't', 'x', 't'}}
	// Valid under both Shift_JIS and GBK (and more), so detection cannot
	// settle without a hint.
	ambiguous = [][]byte{{0x8e, 0x41, '.', 't', 'x', 't'}}
	// No candidate accepts a 0xff lead byte.
	undecodable = [][]byte{{0xff, 0xfe, 0xff}}
)

func TestDetect(t *testing.T) {
	t.Run("ASCII", func(t *testing.T) {
		res := Detect([][]byte{[]byte("a.txt"), []byte("b/c.txt")}, Options{})
		if res.Status != StatusASCII {
			t.Fatalf("status = %v", res.Status)
		}
	})

	t.Run("SingleViable", func(t *testing.T) {
		res := Detect(sjisOnly, Options{})
		if res.Status != StatusDecoded {
			t.Fatalf("status = %v", res.Status)
		}
		if res.Decoder.Name() != "Shift_JIS" {
			t.Errorf("decoder = %s", res.Decoder.Name())
		}
	})

	t.Run("SingleViableIgnoresUnrelatedHint", func(t *testing.T) {
		// A full-coverage code page hint decodes anything; it must not
		// shadow the one strict candidate that fits.
		res := Detect(sjisOnly, Options{Hint: CP437})
		if res.Status != StatusDecoded || res.Decoder.Name() != "Shift_JIS" {
			t.Fatalf("got %v / %v", res.Status, res.Decoder)
		}
	})

	t.Run("Ambiguous", func(t *testing.T) {
		res := Detect(ambiguous, Options{})
		if res.Status != StatusAmbiguous {
			t.Fatalf("status = %v", res.Status)
		}
		if len(res.Viable) < 2 {
			t.Fatalf("viable = %v", res.Viable)
		}
		if !containsDecoder(res.Viable, ShiftJIS) || !containsDecoder(res.Viable, GBK) {
			t.Errorf("viable set %v missing Shift_JIS or GBK", res.Viable)
		}
	})

	t.Run("HintResolvesAmbiguity", func(t *testing.T) {
		res := Detect(ambiguous, Options{Hint: ShiftJIS})
		if res.Status != StatusDecoded || res.Decoder.Name() != "Shift_JIS" {
			t.Fatalf("got %v / %v", res.Status, res.Decoder)
		}
	})

	t.Run("PreferUTF8", func(t *testing.T) {
		// These UTF-8 bytes also parse cleanly as Shift_JIS and GBK; the
		// preference settles on the UTF-8 reading, and without it the
		// hint wins as usual.
		inputs := [][]byte{[]byte("なまえa.zip")}
		res := Detect(inputs, Options{Hint: ShiftJIS, PreferUTF8: true})
		if res.Status != StatusDecoded || res.Decoder.Name() != "UTF-8" {
			t.Fatalf("got %v / %v", res.Status, res.Decoder)
		}
		res = Detect(inputs, Options{Hint: ShiftJIS})
		if res.Status != StatusDecoded || res.Decoder.Name() != "Shift_JIS" {
			t.Fatalf("got %v / %v", res.Status, res.Decoder)
		}
	})

	t.Run("None", func(t *testing.T) {
		res := Detect(undecodable, Options{})
		if res.Status != StatusNone {
			t.Fatalf("status = %v", res.Status)
		}
	})

	t.Run("HintRescuesCodePage", func(t *testing.T) {
		// Nothing strict decodes this, but the locale-derived code page
		// does, so the archive is still repairable.
		res := Detect(undecodable, Options{Hint: CP866})
		if res.Status != StatusDecoded || res.Decoder.Name() != "CP866" {
			t.Fatalf("got %v / %v", res.Status, res.Decoder)
		}
	})

	t.Run("MixedInputsMustAllDecode", func(t *testing.T) {
		// One name per encoding; no single candidate covers both.
		inputs := [][]byte{sjisOnly[0], undecodable[0]}
		if res := Detect(inputs, Options{}); res.Status != StatusNone {
			t.Fatalf("status = %v", res.Status)
		}
	})
}

func TestPickDisplay(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if d := PickDisplay(nil, nil); d != nil {
			t.Fatalf("got %v", d)
		}
	})

	t.Run("ReturnsViable", func(t *testing.T) {
		viable := []Decoder{ShiftJIS, GBK}
		d := PickDisplay(viable, []byte{0x8e, 0x41, '.', 't', 'x', 't'})
		if d == nil || !containsDecoder(viable, d) {
			t.Fatalf("got %v, want one of the viable candidates", d)
		}
	})
}
