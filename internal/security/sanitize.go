// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sanitize.go - Input sanitization and heuristic screening predicates.
//
// The injection and PII detectors are independent predicate functions so
// stronger detectors can be substituted without touching the pipeline.
package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// SANITIZATION
// =============================================================================

// Sanitize trims whitespace, NFC-normalizes, and strips control characters
// (non-printable bytes) from the input. An empty result means the input
// should be rejected.
func Sanitize(text string) string {
	text = norm.NFC.String(strings.TrimSpace(text))

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// =============================================================================
// PROMPT INJECTION
// =============================================================================

// InjectionPhrases is the known-override phrase list, matched
// case-insensitively. Illustrative defaults, not a compatibility contract.
var InjectionPhrases = []string{
	"ignore all previous",
	"disregard previous",
	"ignore instructions",
	"follow these new instructions",
}

// DetectInjection reports whether text matches a known override phrase,
// returning a descriptive reason on match.
func DetectInjection(text string) (bool, string) {
	lower := strings.ToLower(text)
	for _, phrase := range InjectionPhrases {
		if strings.Contains(lower, phrase) {
			return true, fmt.Sprintf("prompt injection pattern detected: %q", phrase)
		}
	}
	return false, ""
}

// =============================================================================
// PII DETECTION
// =============================================================================

var (
	emailPattern = regexp.MustCompile(`[\w.\-]+@[\w.\-]+`)
	phonePattern = regexp.MustCompile(`\b\+?\d[\d\-\s]{7,}\d\b`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	cardPattern  = regexp.MustCompile(`\b\d{4}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{4}\b`)
)

// DetectPII scans text for email addresses, phone-like digit runs,
// SSN-like patterns, and payment-card-like groupings. Matches are reported
// as "category:redacted-sample" entries so raw PII never reaches logs.
func DetectPII(text string) (bool, []string) {
	var found []string

	for _, m := range emailPattern.FindAllString(text, -1) {
		found = append(found, "email:"+redact(m))
	}
	for _, m := range phonePattern.FindAllString(text, -1) {
		found = append(found, "phone:"+redact(m))
	}
	for _, m := range ssnPattern.FindAllString(text, -1) {
		found = append(found, "ssn:"+redact(m))
	}
	for _, m := range cardPattern.FindAllString(text, -1) {
		found = append(found, "cc:"+redact(m))
	}

	return len(found) > 0, found
}

// redact keeps the first two characters of a match and masks the rest.
func redact(s string) string {
	if len(s) <= 2 {
		return "**"
	}
	masked := len(s) - 2
	if masked > 8 {
		masked = 8
	}
	return s[:2] + strings.Repeat("*", masked)
}
