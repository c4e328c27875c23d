package topics

import (
	"sort"
	"strings"
)

// vocabulary maps canonical topic tags to the keywords that imply them.
// Matching is plain substring matching over the lowercased text, so a
// message like "I can't sleep at night" tags insomnia without the word
// ever appearing.
var vocabulary = map[string][]string{
	"anxiety":         {"anxiety", "anxious", "panic", "worry", "worried", "nervous", "phobia", "social fear"},
	"depression":      {"depression", "depressed", "sadness", "hopeless", "low mood", "unmotivated"},
	"stress":          {"stress", "stressed", "overwhelm", "burnout", "pressure", "tension"},
	"procrastination": {"procrastination", "procrastinate", "putting off", "avoidance", "can't start"},
	"insomnia":        {"insomnia", "sleep", "sleepless", "can't sleep", "awake at night"},
	"anger":           {"anger", "angry", "rage", "irritable", "frustration"},
	"self-esteem":     {"self-esteem", "self esteem", "self-worth", "confidence", "not good enough"},
}

// Extract pulls coarse subject tags out of free text. Pure and
// deterministic; returns nil when nothing is recognized. The result is
// sorted so callers can compare outputs directly.
func Extract(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var tags []string
	for tag, keywords := range vocabulary {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// Union merges two tag sets, deduplicated and sorted.
func Union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, tag := range a {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	for _, tag := range b {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}

// Overlaps reports whether the two tag sets share at least one tag.
func Overlaps(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, tag := range a {
		set[tag] = true
	}
	for _, tag := range b {
		if set[tag] {
			return true
		}
	}
	return false
}
