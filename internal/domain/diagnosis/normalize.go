package diagnosis

import "strings"

// StripCodeFence removes a single wrapping markdown code fence from s.
// A leading fence may carry a language tag ("```json"); a trailing fence is
// a bare "```". Surrounding whitespace is trimmed. Text without a fence is
// returned trimmed but otherwise untouched, so unfenced replies survive the
// round trip byte for byte.
func StripCodeFence(s string) string {
	cleaned := strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(cleaned, "```json"):
		cleaned = cleaned[len("```json"):]
	case strings.HasPrefix(cleaned, "```"):
		cleaned = cleaned[len("```"):]
		// Drop an unrecognized language tag occupying the fence line.
		if idx := strings.IndexByte(cleaned, '\n'); idx > 0 && isLanguageTag(cleaned[:idx]) {
			cleaned = cleaned[idx+1:]
		}
	}

	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "```")

	return strings.TrimSpace(cleaned)
}

func isLanguageTag(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
