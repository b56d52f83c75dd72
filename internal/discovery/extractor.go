// Package discovery turns raw page snapshots into token records and
// decides which records are novel. The tracked page is a third-party
// frontend whose markup changes without notice, so extraction is a
// layered best-effort heuristic rather than a strict parser.
package discovery

import (
	"regexp"
	"strings"
	"time"

	"base-token-tracker/internal/domain"
)

// Extraction window sizes around an address occurrence, in bytes of the
// flattened page text. The trailing window catches symbol/tax fields the
// page renders after the address.
const (
	windowBefore = 400
	windowAfter  = 200

	// htmlWindowMargin is wider because attribute markup inflates offsets.
	htmlWindowMargin = 1000
)

// fallbackName is used when a symbol was found but no name could be recovered.
const fallbackName = "Token"

var addressPattern = regexp.MustCompile(`0x[0-9a-fA-F]{40}`)

// Extractor derives candidate token records from page snapshots.
// It is stateless across calls; every call scans the snapshot fresh.
type Extractor struct {
	now func() int64 // Unix ms clock, replaceable in tests
}

// NewExtractor creates an extractor using the wall clock.
func NewExtractor() *Extractor {
	return &Extractor{
		now: func() int64 { return time.Now().UnixMilli() },
	}
}

// Extract scans the snapshot text for contract addresses and derives one
// candidate per distinct address. Contracts are canonical lowercase and
// pairwise distinct within a single call, in first-seen order. A candidate
// is emitted only when at least one of name/symbol resolved; enrichment
// fields are never required.
func (e *Extractor) Extract(text, html string) []*domain.TokenRecord {
	var records []*domain.TokenRecord

	seen := make(map[string]bool)
	var lastTS int64

	for _, loc := range addressPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		// A longer hex run is not an address.
		if end < len(text) && isHexDigit(text[end]) {
			continue
		}

		contract := domain.NormalizeContract(text[start:end])
		if seen[contract] {
			continue
		}
		seen[contract] = true

		before := text[max(0, start-windowBefore):start]
		after := text[end:min(len(text), end+windowAfter)]
		window := before + text[start:end] + after

		rec := &domain.TokenRecord{
			Contract:      contract,
			Name:          deriveName(before),
			Symbol:        applyMatchers(symbolMatchers, window),
			Creator:       applyMatchers(creatorMatchers, window),
			Followers:     applyMatchers(followersMatchers, window),
			TokensCreated: applyMatchers(tokensCreatedMatchers, window),
			Tax:           applyMatchers(taxMatchers, window),
			Liquidity:     applyMatchers(liquidityMatchers, window),
			Tags:          extractTags(window),
			TweetURL:      applyMatchers(tweetMatchers, htmlWindow(html, text[start:end])),
		}

		rec.Name = stripSymbolSuffix(rec.Name, rec.Symbol)

		// Pure noise: an address with neither a name nor a symbol.
		if rec.Name == "" && rec.Symbol == "" {
			continue
		}
		if rec.Name == "" {
			rec.Name = fallbackName
		}

		ts := e.now()
		if ts < lastTS {
			ts = lastTS
		}
		lastTS = ts
		rec.Timestamp = ts

		records = append(records, rec)
	}

	return records
}

// deriveName runs the labeled-marker table over the text preceding the
// address and falls back to the last clean line of the window.
func deriveName(before string) string {
	if raw := applyMatchers(nameMatchers, before); raw != "" {
		if name := cleanName(raw); name != "" {
			return name
		}
	}
	return lastCleanLine(before)
}

// lastCleanLine scans the window bottom-up for a short line that is not
// an address, a mention, a number, or known page chrome.
func lastCleanLine(window string) string {
	lines := strings.Split(window, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if len(line) < 3 || len(line) > 40 {
			continue
		}
		if strings.Contains(line, "0x") || strings.Contains(line, "@") {
			continue
		}
		if strings.Contains(line, "GM") || strings.Contains(line, "Tax") ||
			strings.Contains(line, "Filter") || strings.Contains(line, "Token") {
			continue
		}
		if line[0] >= '0' && line[0] <= '9' {
			continue
		}
		return line
	}
	return ""
}

// stripSymbolSuffix removes a duplicated ticker from the tail of the name,
// e.g. name "PepePEPE" with symbol "$PEPE" becomes "Pepe".
func stripSymbolSuffix(name, symbol string) string {
	if name == "" || symbol == "" {
		return name
	}
	ticker := strings.TrimPrefix(symbol, "$")
	upper := strings.ToUpper(name)
	if len(name) > len(ticker) && strings.HasSuffix(upper, ticker) {
		return strings.TrimSpace(name[:len(name)-len(ticker)])
	}
	return name
}

// htmlWindow slices the raw HTML around the address occurrence. The tweet
// URL lives in an href attribute, which the flattened text never carries.
func htmlWindow(html, address string) string {
	idx := strings.Index(html, address)
	if idx < 0 {
		return ""
	}
	return html[max(0, idx-htmlWindowMargin):min(len(html), idx+len(address)+htmlWindowMargin)]
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
