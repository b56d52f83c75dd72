package domain

import (
	"errors"
	"regexp"
	"strings"
)

// TokenRecord represents one token discovered on the tracked page.
// JSON field names match the relay wire format consumed by subscribers.
type TokenRecord struct {
	Contract      string `json:"contract"`                // canonical lowercase 0x + 40 hex digits
	Name          string `json:"name"`                    // best-effort label, may be a placeholder
	Symbol        string `json:"symbol,omitempty"`        // $TICKER, may be empty
	Creator       string `json:"creator,omitempty"`       // @handle
	Followers     string `json:"followers,omitempty"`     // creator follower count as displayed
	TokensCreated string `json:"tokensCreated,omitempty"` // tokens previously created by the deployer
	Tax           string `json:"tax,omitempty"`           // e.g. "5%"
	Liquidity     string `json:"liquidity,omitempty"`     // e.g. "$12.5K"
	Tags          string `json:"tags,omitempty"`          // comma-separated page badges
	TweetURL      string `json:"tweetUrl,omitempty"`      // associated social post URL
	Timestamp     int64  `json:"timestamp"`               // capture time, Unix ms
}

// ErrMissingContract is returned when a record has no contract address.
var ErrMissingContract = errors.New("missing contract address")

// ErrInvalidContract is returned when the contract address is malformed.
var ErrInvalidContract = errors.New("invalid contract address")

var contractPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidContract reports whether s is exactly 0x followed by 40 hex digits.
func ValidContract(s string) bool {
	return contractPattern.MatchString(s)
}

// NormalizeContract returns the canonical lowercase form of an address.
func NormalizeContract(s string) string {
	return strings.ToLower(s)
}

// Validate checks the record invariants. Only the contract is mandatory;
// every enrichment field may be absent.
func (r *TokenRecord) Validate() error {
	if r.Contract == "" {
		return ErrMissingContract
	}
	if !ValidContract(r.Contract) {
		return ErrInvalidContract
	}
	return nil
}
