package discord

import (
	"net/url"
	"regexp"
	"strings"
)

var urlRegex = regexp.MustCompile(`https?://[^\s\[\]()<>]+`)

// WrapURLsNoEmbed wraps URLs in angle brackets to prevent Discord embeds.
// URLs that are already wrapped are left alone.
func WrapURLsNoEmbed(text string) string {
	matches := urlRegex.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && text[start-1] == '<' && end < len(text) && text[end] == '>' {
			continue
		}
		raw := text[start:end]
		trimmed := strings.TrimRight(raw, ".,;:!?")
		b.WriteString(text[last:start])
		b.WriteString("<" + trimmed + ">")
		b.WriteString(raw[len(trimmed):])
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// SpreadsheetURL is the browser link of a spreadsheet.
func SpreadsheetURL(spreadsheetID string) string {
	return "https://docs.google.com/spreadsheets/d/" + url.PathEscape(spreadsheetID) + "/edit"
}
