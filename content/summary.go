package content

import "strings"

// splitSummary removes every "<p>delimiter</p>" from html and returns the
// byte offset of the first one, or -1 when absent.
func splitSummary(html, delimiter string) (string, int) {
	if delimiter == "" {
		return html, -1
	}
	marker := "<p>" + delimiter + "</p>"
	pos := strings.Index(html, marker)
	if pos < 0 {
		return html, -1
	}
	return strings.ReplaceAll(html, marker, ""), pos
}
