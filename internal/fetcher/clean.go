package fetcher

import (
	"regexp"
	"strings"
)

var (
	titlePattern   = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	newlinePattern = regexp.MustCompile(`\n+`)
	scriptPattern  = regexp.MustCompile(`(?is)<script.*?</script>`)
	stylePattern   = regexp.MustCompile(`(?is)<style.*?</style>`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// CleanHTML returns the document title and its visible text with whitespace collapsed.
func CleanHTML(html string) (title, text string) {
	if m := titlePattern.FindStringSubmatch(html); m != nil {
		title = strings.TrimSpace(m[1])
	}
	raw := newlinePattern.ReplaceAllString(html, " ")
	raw = scriptPattern.ReplaceAllString(raw, " ")
	raw = stylePattern.ReplaceAllString(raw, " ")
	raw = tagPattern.ReplaceAllString(raw, " ")
	raw = strings.ReplaceAll(raw, "&nbsp;", " ")
	text = strings.TrimSpace(spacePattern.ReplaceAllString(raw, " "))
	return title, text
}
