package core

import "strings"

// ParseLabel maps raw model output to a classification label. The output is
// trimmed and lower-cased first. An exact "spam" answer wins; otherwise any
// "not-spam" occurrences are removed before scanning for a remaining "spam"
// token, so that "not-spam" is never misread as spam. Anything unrecognized
// defaults to not-spam.
func ParseLabel(output string) string {
	out := strings.ToLower(strings.TrimSpace(output))
	if out == LabelSpam {
		return LabelSpam
	}

	stripped := strings.ReplaceAll(out, LabelNotSpam, "")
	if strings.Contains(stripped, LabelSpam) {
		return LabelSpam
	}
	return LabelNotSpam
}
