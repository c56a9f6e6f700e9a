// Package canonical derives comparable keys from raw item URLs and titles.
// Keys are the basis for duplicate detection within a run and against
// signatures from earlier reports.
package canonical

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Key identifies an event. Two items with the same URLKey are the same
// event; Fingerprint feeds the near-match title comparison.
type Key struct {
	URLKey      string
	Fingerprint string
}

// trackingParams are analytics query parameters stripped during URL
// normalization. Prefix match for utm_*, exact match otherwise.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"igshid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref":     true,
	"ref_src": true,
	"cmpid":   true,
	"ocid":    true,
	"twclid":  true,
	"spm":     true,
	"sk":      true,
}

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// Canonicalize builds the Key for an item. It never fails: unparseable
// input falls back to the lower-cased literal string.
func Canonicalize(rawURL, title string) Key {
	return Key{
		URLKey:      NormalizeURL(rawURL),
		Fingerprint: FingerprintTitle(title),
	}
}

// NormalizeURL reduces a URL to a comparison key: lower-cased host
// without default ports, path without trailing slash, tracking
// parameters removed, scheme dropped. The original URL is untouched;
// only the key is scheme-less. Idempotent.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		// Malformed input: the lower-cased literal is the key.
		return strings.ToLower(raw)
	}

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}

	path := strings.ToLower(strings.TrimSuffix(u.EscapedPath(), "/"))

	query := ""
	if u.RawQuery != "" {
		kept := url.Values{}
		for name, vals := range u.Query() {
			lower := strings.ToLower(name)
			if strings.HasPrefix(lower, "utm_") || trackingParams[lower] {
				continue
			}
			for _, v := range vals {
				kept.Add(name, v)
			}
		}
		if len(kept) > 0 {
			query = "?" + encodeSorted(kept)
		}
	}

	return host + path + query
}

// FingerprintTitle reduces a title to a token fingerprint: lower-cased,
// embedded URLs and punctuation stripped, whitespace collapsed.
// Idempotent.
func FingerprintTitle(title string) string {
	lowered := strings.ToLower(title)
	lowered = urlPattern.ReplaceAllString(lowered, " ")
	lowered = nonWordPattern.ReplaceAllString(lowered, " ")
	return strings.Join(strings.Fields(lowered), " ")
}

// Tokens splits a fingerprint into its token set form.
func Tokens(fingerprint string) []string {
	if fingerprint == "" {
		return nil
	}
	return strings.Fields(fingerprint)
}

// TokenSet returns the fingerprint tokens as a set.
func TokenSet(fingerprint string) map[string]bool {
	tokens := Tokens(fingerprint)
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

// Jaccard computes the token-set overlap ratio of two fingerprints.
// Returns 0 when either side is empty.
func Jaccard(a, b string) float64 {
	setA := TokenSet(a)
	setB := TokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func encodeSorted(values url.Values) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		for _, v := range values[name] {
			parts = append(parts, url.QueryEscape(name)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}
