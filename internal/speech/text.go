package speech

import (
	"regexp"
	"strings"
)

// Discord renders mentions, emoji and channel references as <...> tags;
// none of them read well aloud.
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// SpokenLine builds the text handed to the synthesizer: "NAME says TEXT"
// with markup stripped. A line containing a link is replaced wholesale by
// "NAME sent a link" so URLs are never read out.
func SpokenLine(name, message string) string {
	clean := strings.TrimSpace(tagPattern.ReplaceAllString(message, ""))
	line := name + " says " + clean
	if strings.Contains(strings.ToLower(line), "http") {
		return name + " sent a link"
	}
	return line
}
