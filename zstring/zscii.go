package zstring

import "github.com/avocet-labs/ifvm/zmem"

// DefaultUnicodeTranslationTable maps the extended ZSCII codes 155..223 to
// Unicode, per Z-machine Standard v1.1 Appendix B; codes 224..251 have no
// default mapping. Stories may override it via the header extension table
// (§4.B).
var DefaultUnicodeTranslationTable = map[uint8]rune{
	155: 'ä', 156: 'ö', 157: 'ü', 158: 'Ä', 159: 'Ö', 160: 'Ü', 161: 'ß',
	162: '»', 163: '«', 164: 'ë', 165: 'ï', 166: 'ÿ', 167: 'Ë', 168: 'Ï',
	169: 'á', 170: 'é', 171: 'í', 172: 'ó', 173: 'ú', 174: 'ý', 175: 'Á',
	176: 'É', 177: 'Í', 178: 'Ó', 179: 'Ú', 180: 'Ý', 181: 'à', 182: 'è',
	183: 'ì', 184: 'ò', 185: 'ù', 186: 'À', 187: 'È', 188: 'Ì', 189: 'Ò',
	190: 'Ù', 191: 'â', 192: 'ê', 193: 'î', 194: 'ô', 195: 'û', 196: 'Â',
	197: 'Ê', 198: 'Î', 199: 'Ô', 200: 'Û', 201: 'å', 202: 'Å', 203: 'ø',
	204: 'Ø', 205: 'ã', 206: 'ñ', 207: 'õ', 208: 'Ã', 209: 'Ñ', 210: 'Õ',
	211: 'æ', 212: 'Æ', 213: 'ç', 214: 'Ç', 215: 'þ', 216: 'ð', 217: 'Þ',
	218: 'Ð', 219: '£', 220: 'œ', 221: 'Œ', 222: '¡', 223: '¿',
}

func unicodeTable(mem *zmem.Image) map[uint8]rune {
	base := mem.UnicodeTableBase()
	if base == 0 {
		return DefaultUnicodeTranslationTable
	}

	n := mem.ReadByte(uint32(base))
	table := make(map[uint8]rune, n)
	for i := 0; i < int(n); i++ {
		table[155+uint8(i)] = rune(mem.ReadWord(uint32(base) + 1 + uint32(i)*2))
	}
	return table
}

// ZsciiToUnicode converts one ZSCII code to a Unicode rune for output,
// per §4.B.
func ZsciiToUnicode(mem *zmem.Image, code uint8) rune {
	switch {
	case code == 0:
		return 0
	case code == 13:
		return '\n'
	case code >= 32 && code <= 126:
		return rune(code)
	case code >= 155 && code <= 251:
		if r, ok := unicodeTable(mem)[code]; ok {
			return r
		}
		return '?'
	default:
		return '?'
	}
}

// UnicodeToZscii converts a Unicode rune typed by the player (or encoded by
// the story) to a ZSCII code, or reports that the rune has no ZSCII
// representation.
func UnicodeToZscii(mem *zmem.Image, r rune) (uint8, bool) {
	switch {
	case r == '\n' || r == '\r':
		return 13, true
	case r >= 32 && r <= 126:
		return uint8(r), true
	}
	for code, u := range unicodeTable(mem) {
		if u == r {
			return code, true
		}
	}
	return 0, false
}
