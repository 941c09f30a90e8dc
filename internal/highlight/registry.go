package highlight

import (
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// The functions in this file expose Chroma's registries as the enumerations
// backing the snippet `language` and `style` fields. Validation in the
// service layer goes through these lookups rather than a hardcoded list, so
// the supported set is exactly whatever the highlighting library ships —
// upgrade Chroma and the API's accepted values grow with it.

// Languages returns the sorted names of all registered lexers, including
// aliases ("py" as well as "python").
func Languages() []string {
	return lexers.Names(true)
}

// Styles returns the sorted names of all registered highlight styles.
func Styles() []string {
	return styles.Names()
}

// SupportedLanguage reports whether name resolves to a registered lexer.
func SupportedLanguage(name string) bool {
	return lexers.Get(name) != nil
}

// SupportedStyle reports whether name is a registered style.
//
// Deliberately NOT styles.Get — that returns a fallback style for unknown
// names instead of failing, which is the opposite of what validation needs.
func SupportedStyle(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}
