package utils

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	specialRe     = regexp.MustCompile(`[^\w\s@.,;:()\-/]`)
	emailRe       = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	urlRe         = regexp.MustCompile(`https?://[^\s<>"]+`)
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\d{3}[-.\s]?\d{4}`),
	}
)

// CleanText collapses whitespace and strips characters outside basic
// punctuation, returning trimmed text suitable for analysis input
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = whitespaceRe.ReplaceAllString(text, " ")
	text = specialRe.ReplaceAllString(text, "")

	return strings.TrimSpace(text)
}

// ContentHash returns the md5 hex digest of the trimmed text. Used as a
// stable identity for raw job-posting content, not as a security primitive.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// ExtractEmail returns the first email address found in text, or ""
func ExtractEmail(text string) string {
	return emailRe.FindString(text)
}

// ExtractPhone returns the first phone number found in text, or ""
func ExtractPhone(text string) string {
	for _, re := range phonePatterns {
		if match := re.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

// ExtractURLs returns all URLs found in text
func ExtractURLs(text string) []string {
	return urlRe.FindAllString(text, -1)
}

// Truncate shortens s to max runes, appending an ellipsis when cut
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
