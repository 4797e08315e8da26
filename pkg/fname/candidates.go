package fname

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// The closed set of legacy encodings this tool knows how to repair from.
// CJK double-byte encodings reject many byte sequences, which is what makes
// archive-wide detection work; full-coverage single-byte code pages decode
// anything and therefore only ever enter detection through a hint or a
// forced override.
var (
	ShiftJIS = newLegacy("Shift_JIS", japanese.ShiftJIS)
	EUCJP    = newLegacy("EUC-JP", japanese.EUCJP)
	GBK      = newLegacy("GBK", simplifiedchinese.GBK)
	GB18030  = newLegacy("GB18030", simplifiedchinese.GB18030)
	Big5     = newLegacy("Big5", traditionalchinese.Big5)
	EUCKR    = newLegacy("EUC-KR", korean.EUCKR)

	CP437       = newLegacy("CP437", charmap.CodePage437)
	CP850       = newLegacy("CP850", charmap.CodePage850)
	CP852       = newLegacy("CP852", charmap.CodePage852)
	CP866       = newLegacy("CP866", charmap.CodePage866)
	Windows874  = newLegacy("windows-874", charmap.Windows874)
	Windows1250 = newLegacy("windows-1250", charmap.Windows1250)
	Windows1251 = newLegacy("windows-1251", charmap.Windows1251)
	Windows1252 = newLegacy("windows-1252", charmap.Windows1252)
	Windows1254 = newLegacy("windows-1254", charmap.Windows1254)
	Windows1256 = newLegacy("windows-1256", charmap.Windows1256)
)

// strictCandidates is the fixed detection order, used for reporting;
// selection itself is by viability, not position.
var strictCandidates = []Decoder{ShiftJIS, EUCJP, GBK, Big5, EUCKR}

var byAlias = map[string]Decoder{
	"utf8":        UTF8(),
	"ascii":       ASCII(),
	"usascii":     ASCII(),
	"sjis":        ShiftJIS,
	"shiftjis":    ShiftJIS,
	"mskanji":     ShiftJIS,
	"windows31j":  ShiftJIS,
	"eucjp":       EUCJP,
	"gbk":         GBK,
	"gb2312":      GBK,
	"gb18030":     GB18030,
	"big5":        Big5,
	"euckr":       EUCKR,
	"uhc":         EUCKR,
	"oemus":       CP437,
	"pc8":         CP437,
	"doslatinus":  CP437,
	"windows874":  Windows874,
	"tis620":      Windows874,
	"windows1250": Windows1250,
	"windows1251": Windows1251,
	"windows1252": Windows1252,
	"latin1":      Windows1252,
	"iso88591":    Windows1252,
	"windows1254": Windows1254,
	"windows1256": Windows1256,
}

var byCodePage = map[int]Decoder{
	437:  CP437,
	850:  CP850,
	852:  CP852,
	866:  CP866,
	874:  Windows874,
	932:  ShiftJIS,
	936:  GBK,
	949:  EUCKR,
	950:  Big5,
	1250: Windows1250,
	1251: Windows1251,
	1252: Windows1252,
	1254: Windows1254,
	1256: Windows1256,
}

var codePageLabel = regexp.MustCompile(`(?i)^(?:cp|oem ?|ibm|windows-?|ms)?([0-9]{3,5})$`)

// ByName resolves a user-supplied encoding label ("sjis", "cp437",
// "windows-1252", IANA names, ...) to a decoder.
func ByName(label string) (Decoder, error) {
	key := strings.ToLower(label)
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if d, ok := byAlias[key]; ok {
		return d, nil
	}
	if m := codePageLabel.FindStringSubmatch(strings.TrimSpace(label)); m != nil {
		var cp int
		fmt.Sscanf(m[1], "%d", &cp)
		if d, ok := byCodePage[cp]; ok {
			return d, nil
		}
	}
	if enc, err := ianaindex.IANA.Encoding(label); err == nil && enc != nil {
		name, err := ianaindex.IANA.Name(enc)
		if err != nil {
			name = label
		}
		if d := fromEncoding(name, enc); d != nil {
			return d, nil
		}
	}
	return nil, fmt.Errorf("unknown encoding name: %s", label)
}

// fromEncoding reuses a canonical decoder when the IANA lookup lands on an
// encoding already in the closed set, so Name() strings stay stable.
func fromEncoding(name string, enc encoding.Encoding) Decoder {
	for _, d := range append(append([]Decoder{}, strictCandidates...),
		GB18030, CP437, CP850, CP852, CP866, Windows874,
		Windows1250, Windows1251, Windows1252, Windows1254, Windows1256) {
		ld, ok := d.(*legacyDecoder)
		if ok && ld.enc == enc {
			return d
		}
	}
	return newLegacy(name, enc)
}

// LocaleHint maps a POSIX locale name like "ja_JP.UTF-8" to the OEM code
// page a Windows machine with that locale would have used for ZIP entry
// names. Locales with no known legacy code page (including "C" and plain
// English) yield nil, leaving detection without a hint.
func LocaleHint(locale string) Decoder {
	lang := strings.ToLower(locale)
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	lang = strings.ReplaceAll(lang, "-", "_")
	region := ""
	if i := strings.IndexByte(lang, '_'); i >= 0 {
		region = lang[i+1:]
		lang = lang[:i]
	}

	switch lang {
	case "ja":
		return ShiftJIS
	case "ko":
		return EUCKR
	case "zh":
		switch region {
		case "tw", "hk", "mo", "hant":
			return Big5
		}
		return GBK
	case "th":
		return Windows874
	case "ru", "uk", "bg", "be":
		return CP866
	case "tr":
		return Windows1254
	case "ar":
		return Windows1256
	case "pl", "cs", "sk", "hu", "hr", "sl", "ro":
		return Windows1250
	}
	return nil
}
