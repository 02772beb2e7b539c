package identity

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize returns the culture-invariant upper-case form used for unique
// lookups of role names, user names and e-mails.
func Normalize(s string) string {
	return cases.Upper(language.Und).String(s)
}
