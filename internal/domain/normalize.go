package domain

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeWord prepares a word for storage keys and comparison:
//   - trims and lowercases
//   - decomposes to NFD and strips combining marks ("Müller" → "muller")
//   - removes every non-alphanumeric rune
//
// The result depends only on the input and the function is idempotent,
// so it is safe to apply to already-normalized values.
func NormalizeWord(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}

	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(stripper, text); err == nil {
		text = stripped
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePartOfSpeech collapses free-text part-of-speech labels into a
// storage-stable token. Any label mentioning "noun" (gendered variants
// included, e.g. "masculine noun") collapses to "noun". An empty label
// yields "pending": the part of speech is simply not known yet.
func NormalizePartOfSpeech(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return "pending"
	}
	if strings.Contains(label, "noun") {
		return "noun"
	}
	return label
}

// languageCodes maps language names, locale tags, and native aliases to
// short codes. Lookups are case-insensitive.
var languageCodes = map[string]string{
	"auto": "auto",

	"en": "en", "english": "en", "en-us": "en", "en-gb": "en",
	"de": "de", "german": "de", "deutsch": "de", "de-de": "de",
	"es": "es", "spanish": "es", "español": "es", "espanol": "es",
	"fr": "fr", "french": "fr", "français": "fr", "francais": "fr",
	"it": "it", "italian": "it", "italiano": "it",
	"pt": "pt", "portuguese": "pt", "português": "pt", "portugues": "pt", "pt-br": "pt",
	"ru": "ru", "russian": "ru",
	"ja": "ja", "japanese": "ja", "jp": "ja",
	"zh": "zh", "chinese": "zh", "mandarin": "zh", "zh-cn": "zh",
	"ko": "ko", "korean": "ko",
	"nl": "nl", "dutch": "nl",
	"pl": "pl", "polish": "pl",
	"sv": "sv", "swedish": "sv",
	"tr": "tr", "turkish": "tr",
	"uk": "uk", "ukrainian": "uk",
	"ar": "ar", "arabic": "ar",
	"hi": "hi", "hindi": "hi",
}

// LanguageCode resolves a language name, locale tag, or alias to a short
// code. The literal "auto" maps to itself. Unrecognized input degrades to
// its own lowercased two-character prefix rather than failing; empty input
// degrades to "auto".
func LanguageCode(input string) string {
	key := strings.ToLower(strings.TrimSpace(input))
	if key == "" {
		return "auto"
	}
	if code, ok := languageCodes[key]; ok {
		return code
	}
	// Locale tags like "en_AU" or "de-AT" resolve via their base language.
	if i := strings.IndexAny(key, "-_"); i > 0 {
		if code, ok := languageCodes[key[:i]]; ok {
			return code
		}
	}
	r := []rune(key)
	if len(r) > 2 {
		r = r[:2]
	}
	return string(r)
}

// BuildAddress deterministically reconstructs the storage address of a word
// result from request identifiers. It always produces a value, degrading
// gracefully on malformed input. The part-of-speech suffix is only added
// when a label is present.
func BuildAddress(sourceWord, sourceLang, targetLang, pos string) StorageAddress {
	pk := "SRC#" + LanguageCode(sourceLang) + "#" + NormalizeWord(sourceWord)
	sk := "TGT#" + LanguageCode(targetLang)
	if strings.TrimSpace(pos) != "" {
		sk += "#POS#" + NormalizePartOfSpeech(pos)
	}
	return StorageAddress{PK: pk, SK: sk}
}

// WordRoute builds the canonical navigation route for a word page:
// /words/{sourceLang}/{targetLang}/{pos}/{word}. An unknown part of speech
// renders as "pending", matching NormalizePartOfSpeech.
func WordRoute(sourceLang, targetLang, pos, word string) string {
	return "/words/" + LanguageCode(sourceLang) +
		"/" + LanguageCode(targetLang) +
		"/" + NormalizePartOfSpeech(pos) +
		"/" + url.PathEscape(NormalizeWord(word))
}

// RouteForAddress derives the navigation route from an explicit storage
// address, parsing the opaque tokens only as far as routing needs:
// pk "SRC#{lang}#{word}", sk "TGT#{lang}[#POS#{pos}]". Tokens that do not
// match that shape fall back to the provided request identifiers.
func RouteForAddress(addr StorageAddress, fallbackWord, fallbackSrc, fallbackTgt string) string {
	srcLang, word := fallbackSrc, fallbackWord
	if parts := strings.Split(addr.PK, "#"); len(parts) == 3 && parts[0] == "SRC" {
		srcLang, word = parts[1], parts[2]
	}
	tgtLang, pos := fallbackTgt, ""
	if parts := strings.Split(addr.SK, "#"); len(parts) >= 2 && parts[0] == "TGT" {
		tgtLang = parts[1]
		if len(parts) == 4 && parts[2] == "POS" {
			pos = parts[3]
		}
	}
	return WordRoute(srcLang, tgtLang, pos, word)
}
