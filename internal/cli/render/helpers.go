package render

import (
	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	sectionStyle   = color.New(color.Bold, color.FgHiWhite)
	addressStyle   = color.New(color.FgWhite)
	changedStyle   = color.New(color.FgYellow)
	okStyle        = color.New(color.FgGreen)
	badStyle       = color.New(color.FgRed)
	secondaryStyle = color.New(color.Faint)

	titleCaser = cases.Title(language.English)
)

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return okStyle.Sprintf("✅ %s", message)
}

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return changedStyle.Sprintf("⚠️  %s", message)
}

// SectionTitle renders a bold title-cased section heading
func SectionTitle(name string) string {
	return sectionStyle.Sprint(titleCaser.String(name))
}
