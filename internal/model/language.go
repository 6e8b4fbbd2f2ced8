package model

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Languages is the closed set of languages a user can pick as source or target.
var Languages = []string{"English", "Arabic", "French", "Spanish", "German"}

var languageTags = map[string]language.Tag{
	"english": language.English,
	"arabic":  language.Arabic,
	"french":  language.French,
	"spanish": language.Spanish,
	"german":  language.German,
}

// LanguageTag maps a language name to its BCP 47 tag. Unknown names fall back
// to English and report ok=false.
func LanguageTag(name string) (language.Tag, bool) {
	tag, ok := languageTags[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return language.English, false
	}
	return tag, true
}

// IsSupportedLanguage reports whether name belongs to Languages.
func IsSupportedLanguage(name string) bool {
	_, ok := LanguageTag(name)
	return ok
}

// LanguageInfo describes one selectable language.
type LanguageInfo struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	NativeName string `json:"native_name"`
}

// LanguageList returns the selectable languages with their codes and endonyms.
func LanguageList() []LanguageInfo {
	out := make([]LanguageInfo, 0, len(Languages))
	for _, name := range Languages {
		tag, _ := LanguageTag(name)
		out = append(out, LanguageInfo{
			Name:       name,
			Code:       tag.String(),
			NativeName: display.Self.Name(tag),
		})
	}
	return out
}
