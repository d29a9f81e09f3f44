// Package text finds links in free text so they can be run through the embed decision.
package text

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	urlRegex = regexp.MustCompile(`https?://\S+`)

	trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "si"}
)

type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

// ExtractURLs returns every http(s) URL in text, in order of appearance.
// Trailing sentence punctuation and tracking parameters are removed.
func (s *Scanner) ExtractURLs(text string) []string {
	text = norm.NFKC.String(text)

	var urls []string
	for _, match := range urlRegex.FindAllString(text, -1) {
		if cleaned := s.cleanURL(match); cleaned != "" {
			urls = append(urls, cleaned)
		}
	}
	return urls
}

func (s *Scanner) cleanURL(rawURL string) string {
	rawURL = strings.TrimRight(rawURL, ".,!?;:)>\"'")

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	if u.RawQuery != "" {
		q := u.Query()
		for _, param := range trackingParams {
			q.Del(param)
		}
		u.RawQuery = q.Encode()
	}

	return u.String()
}
