// Package language lists the languages lessons can be generated for.
package language

import (
	"sort"
	"strings"
)

var names = map[string]string{
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"pt": "Portuguese",
	"zh": "Chinese",
}

// Normalize lowercases and trims a language code.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func Supported(code string) bool {
	_, ok := names[Normalize(code)]
	return ok
}

// Name returns the English name of code, or code itself when unknown.
func Name(code string) string {
	if n, ok := names[Normalize(code)]; ok {
		return n
	}
	return code
}

// Codes returns every supported code in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(names))
	for c := range names {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
