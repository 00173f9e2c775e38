package utils

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// NormalizeReference upper-cases and trims a reference number.
func NormalizeReference(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

// NormalizeReferences normalizes every reference, dropping blanks and duplicates.
func NormalizeReferences(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if n := NormalizeReference(ref); n != "" {
			out = append(out, n)
		}
	}
	return UniqueStrings(out)
}

// UniqueStrings returns the distinct values of in, sorted.
func UniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// StoreTime truncates t to the millisecond precision the document store keeps, in UTC,
// so a redelivered timestamp compares equal to the stored one.
func StoreTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ParseArrival parses a crossing arrival time in ARRIVAL_LAYOUT.
func ParseArrival(value string) (time.Time, error) {
	t, err := time.Parse(ARRIVAL_LAYOUT, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid arrival time %q: %w", value, err)
	}
	return t, nil
}
