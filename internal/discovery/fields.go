package discovery

import (
	"regexp"
	"strings"
)

// Each field is derived by an ordered matcher table: matchers are tried
// in priority order and the first hit wins. The page layout is not ours,
// so every matcher is best-effort and absence is always valid.

// fieldMatcher pairs a pattern with a transform applied to its submatches.
type fieldMatcher struct {
	pattern   *regexp.Regexp
	transform func(m []string) string
}

// applyMatchers runs the table against text, returning the first
// transformed match or "".
func applyMatchers(matchers []fieldMatcher, text string) string {
	for _, fm := range matchers {
		if m := fm.pattern.FindStringSubmatch(text); m != nil {
			if v := fm.transform(m); v != "" {
				return v
			}
		}
	}
	return ""
}

func group(i int) func(m []string) string {
	return func(m []string) string { return strings.TrimSpace(m[i]) }
}

func prefixed(prefix string, i int) func(m []string) string {
	return func(m []string) string {
		v := strings.TrimSpace(m[i])
		if v == "" {
			return ""
		}
		return prefix + v
	}
}

func suffixed(suffix string, i int) func(m []string) string {
	return func(m []string) string {
		v := strings.TrimSpace(m[i])
		if v == "" {
			return ""
		}
		return v + suffix
	}
}

// nameMatchers find a labeled phrase immediately preceding one of the
// page's per-token markers. The raw capture still needs cleanName.
var nameMatchers = []fieldMatcher{
	{regexp.MustCompile(`([A-Za-z0-9\s]{2,50})GMGN`), group(1)},
	{regexp.MustCompile(`([A-Za-z0-9\s]{2,50})Tax:`), group(1)},
	{regexp.MustCompile(`([A-Za-z0-9\s]{2,50})@`), group(1)},
}

var symbolMatchers = []fieldMatcher{
	{regexp.MustCompile(`\$([A-Z0-9]{1,10})\b`), prefixed("$", 1)},
}

var creatorMatchers = []fieldMatcher{
	{regexp.MustCompile(`@(\w+)`), prefixed("@", 1)},
}

var followersMatchers = []fieldMatcher{
	{regexp.MustCompile(`(?i)Followers?[:\s]*([\d][\d,\.]*)`), group(1)},
}

var tokensCreatedMatchers = []fieldMatcher{
	{regexp.MustCompile(`(?i)Tokens created[:\s]*(\d+)`), group(1)},
}

var taxMatchers = []fieldMatcher{
	{regexp.MustCompile(`(?i)Tax[:\s]*(\d+(?:\.\d+)?)%`), suffixed("%", 1)},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)%`), suffixed("%", 1)},
}

var liquidityMatchers = []fieldMatcher{
	{regexp.MustCompile(`\$(\d[\d,\.]*[KMB]?)`), prefixed("$", 1)},
}

// tweetMatchers run against raw HTML, not flattened text: the URL lives
// in an href attribute.
var tweetMatchers = []fieldMatcher{
	{regexp.MustCompile(`https?://(?:twitter\.com|x\.com)/\w+/status/\d+`), group(0)},
}

// Page chrome that leaks into the text window around a token entry.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Filters?`),
	regexp.MustCompile(`(?i)Token feed`),
	regexp.MustCompile(`(?i)Connected`),
	regexp.MustCompile(`(?i)Add\?`),
}

// Badge markers copied verbatim from the page when present.
var tagMarkers = []string{"GMGN", "Ban deployer", "OP Followers"}

var tagAAAPattern = regexp.MustCompile(`AAA\d`)

// cleanName strips UI noise from a raw name capture and, when several
// words remain, keeps the last one: the page appends the newest label at
// the end of accumulated chrome.
func cleanName(raw string) string {
	for _, p := range noisePatterns {
		raw = p.ReplaceAllString(raw, "")
	}
	raw = strings.TrimSpace(raw)

	var words []string
	for _, w := range strings.Fields(raw) {
		if len(w) > 1 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

// extractTags collects known badge markers found in the window.
func extractTags(text string) string {
	var tags []string
	for _, marker := range tagMarkers {
		if strings.Contains(text, marker) {
			tags = append(tags, marker)
		}
	}
	if m := tagAAAPattern.FindString(text); m != "" {
		tags = append(tags, m)
	}
	return strings.Join(tags, ", ")
}
