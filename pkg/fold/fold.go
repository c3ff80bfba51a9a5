// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package fold normalizes free text for case- and accent-insensitive matching.
//
// # Usage
//
// Library search compares a user query against titles and authors in many
// languages ("García Márquez" must match "garcia marquez").
package fold

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// String folds s into its comparison form.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD (decomposes accented chars: é → e + combining acute).
// 2. Removes combining marks (accents).
// 3. Applies Unicode case folding.
// 4. Collapses runs of whitespace into a single space and trims.
func String(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	result = cases.Fold().String(result)
	return strings.Join(strings.Fields(result), " ")
}

// Contains reports whether the folded haystack contains the folded needle.
// An empty needle matches everything.
func Contains(haystack, needle string) bool {
	folded := String(needle)
	if folded == "" {
		return true
	}
	return strings.Contains(String(haystack), folded)
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
