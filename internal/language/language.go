package language

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a working language of a patent job. Name is what goes into
// prompts ("Dutch"), Code is the ISO 639-1 base used for TM and TMX matching.
type Language struct {
	Code string
	Name string
}

// Languages lists the languages offered by the CLI, keyed by base code.
var Languages = map[string]Language{
	"ar": {Code: "ar", Name: "Arabic"},
	"bg": {Code: "bg", Name: "Bulgarian"},
	"cs": {Code: "cs", Name: "Czech"},
	"da": {Code: "da", Name: "Danish"},
	"de": {Code: "de", Name: "German"},
	"el": {Code: "el", Name: "Greek"},
	"en": {Code: "en", Name: "English"},
	"es": {Code: "es", Name: "Spanish"},
	"et": {Code: "et", Name: "Estonian"},
	"fi": {Code: "fi", Name: "Finnish"},
	"fr": {Code: "fr", Name: "French"},
	"hr": {Code: "hr", Name: "Croatian"},
	"hu": {Code: "hu", Name: "Hungarian"},
	"it": {Code: "it", Name: "Italian"},
	"ja": {Code: "ja", Name: "Japanese"},
	"ko": {Code: "ko", Name: "Korean"},
	"lt": {Code: "lt", Name: "Lithuanian"},
	"lv": {Code: "lv", Name: "Latvian"},
	"nl": {Code: "nl", Name: "Dutch"},
	"no": {Code: "no", Name: "Norwegian"},
	"pl": {Code: "pl", Name: "Polish"},
	"pt": {Code: "pt", Name: "Portuguese"},
	"ro": {Code: "ro", Name: "Romanian"},
	"ru": {Code: "ru", Name: "Russian"},
	"sk": {Code: "sk", Name: "Slovak"},
	"sl": {Code: "sl", Name: "Slovenian"},
	"sv": {Code: "sv", Name: "Swedish"},
	"tr": {Code: "tr", Name: "Turkish"},
	"uk": {Code: "uk", Name: "Ukrainian"},
	"zh": {Code: "zh", Name: "Chinese"},
}

var namer = display.English.Languages()

// Resolve accepts an English language name ("Dutch"), a code ("nl") or a
// BCP 47 tag ("nl-BE", "pt_BR") and returns the matching Language.
// Tags outside the table are accepted when x/text knows them.
func Resolve(input string) (Language, bool) {
	needle := strings.TrimSpace(input)
	if needle == "" {
		return Language{}, false
	}
	for _, lang := range Languages {
		if strings.EqualFold(lang.Name, needle) {
			return lang, true
		}
	}
	code := BaseCode(needle)
	if lang, ok := Languages[code]; ok {
		return lang, true
	}
	tag, err := language.Parse(strings.ReplaceAll(needle, "_", "-"))
	if err != nil {
		return Language{}, false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return Language{}, false
	}
	name := namer.Name(base)
	if name == "" {
		return Language{}, false
	}
	return Language{Code: base.String(), Name: name}, true
}

// Lookup is Resolve with a fallback for names it does not know: the trimmed
// input is kept as the prompt name and the code comes from SimpleCode.
// The bool reports whether the language was recognised. Empty input yields
// the zero Language.
func Lookup(input string) (Language, bool) {
	if lang, ok := Resolve(input); ok {
		return lang, true
	}
	name := strings.TrimSpace(input)
	if name == "" {
		return Language{}, false
	}
	return Language{Code: SimpleCode(name), Name: name}, false
}

// Same reports whether two languages name the same language. Recognised
// languages compare by code; otherwise the names must match, so an unknown
// "Frisian" does not collide with "French" on their shared fallback code.
func Same(a, b Language, bothKnown bool) bool {
	if bothKnown {
		return a.Code == b.Code
	}
	return strings.EqualFold(a.Name, b.Name)
}

// BaseCode reduces a tag such as "en-US" or "pt_BR" to its lowercased
// primary subtag. It does no validation.
func BaseCode(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// SimpleCode maps a language name or tag to the two-letter code used in TM
// and TMX files. Unknown names fall back to their first two letters.
func SimpleCode(nameOrCode string) string {
	needle := strings.TrimSpace(nameOrCode)
	if needle == "" {
		return ""
	}
	if lang, ok := Resolve(needle); ok {
		return lang.Code
	}
	base := BaseCode(needle)
	if len(base) == 2 {
		return base
	}
	lower := strings.ToLower(needle)
	if len(lower) > 2 {
		return lower[:2]
	}
	return lower
}

// Supported returns the table sorted by name.
func Supported() []Language {
	out := make([]Language, 0, len(Languages))
	for _, lang := range Languages {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
