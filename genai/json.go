package genai

import "strings"

// ExtractJSON returns the JSON object substring of s, spanning the
// first '{' through the last '}'. Models routinely wrap structured
// answers in prose or markdown fences; callers strip that here before
// unmarshalling. The second return is false when no object is present.
func ExtractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
