package dialog

import (
	"regexp"
	"strings"
)

var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i:my name is|i'm|i am|this is|it's|it is)\s+([A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*){0,2})`),
		regexp.MustCompile(`(?i:name is|called)\s+([A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*){0,2})`),
	}
	wordRe  = regexp.MustCompile(`^[a-zA-Z'-]+$`)
	digitRe = regexp.MustCompile(`\D`)
	zipRe   = regexp.MustCompile(`\b\d{5}\b`)
)

// ExtractName pulls a legal name out of a transcript fragment. Prefers
// self-introduction patterns; otherwise accepts a short all-alphabetic fragment
// as the name itself.
func ExtractName(text string) (string, bool) {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), ".,!?"))
	words := strings.Fields(trimmed)
	if len(words) == 0 || len(words) > 3 {
		return "", false
	}
	for _, w := range words {
		if !wordRe.MatchString(w) {
			return "", false
		}
	}
	return strings.Join(words, " "), true
}

// ExtractPhone normalizes a spoken phone number to a 10-digit string.
// A leading country code 1 is stripped.
func ExtractPhone(text string) (string, bool) {
	digits := digitRe.ReplaceAllString(text, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", false
	}
	return digits, true
}

// ExtractZip finds a 5-digit zip code in the fragment.
func ExtractZip(text string) (string, bool) {
	if m := zipRe.FindString(text); m != "" {
		return m, true
	}
	// Callers often read digits with pauses; retry on the digit run.
	digits := digitRe.ReplaceAllString(text, "")
	if len(digits) == 5 {
		return digits, true
	}
	return "", false
}

// ClassifyConsent buckets a consent answer.
type Consent int

const (
	ConsentUnclear Consent = iota
	ConsentYes
	ConsentNo
)

var (
	yesTokens = map[string]bool{"yes": true, "yeah": true, "yep": true, "sure": true, "okay": true, "ok": true, "proceed": true, "absolutely": true, "fine": true, "correct": true}
	noTokens  = map[string]bool{"no": true, "nope": true, "stop": true, "decline": true, "never": true}

	yesPhrases = []string{"go ahead", "of course", "sounds good"}
	noPhrases  = []string{"not interested", "don't", "do not", "rather not", "not now"}
)

func ClassifyConsent(text string) Consent {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, p := range noPhrases {
		if strings.Contains(t, p) {
			return ConsentNo
		}
	}
	for _, p := range yesPhrases {
		if strings.Contains(t, p) {
			return ConsentYes
		}
	}
	for _, w := range strings.Fields(strings.Map(stripPunct, t)) {
		if noTokens[w] {
			return ConsentNo
		}
		if yesTokens[w] {
			return ConsentYes
		}
	}
	return ConsentUnclear
}

func stripPunct(r rune) rune {
	switch r {
	case '.', ',', '!', '?':
		return ' '
	}
	return r
}
