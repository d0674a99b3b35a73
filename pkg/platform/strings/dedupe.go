// Package strings provides string list helpers for configuration and query
// parameters.
package strings

import (
	"strings"
)

// SplitList splits every value on commas, trims whitespace and drops empty
// and repeated items. First-seen order is kept.
//
//	SplitList("b1:9092, b2:9092,", "b1:9092")
//	// []string{"b1:9092", "b2:9092"}
func SplitList(values ...string) []string {
	var (
		result []string
		seen   = make(map[string]struct{})
	)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			result = append(result, part)
		}
	}
	return result
}
