package openaicompat

import (
	"regexp"
	"unicode/utf8"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// Context compaction for the chat capability: at most the last 12 messages,
// each sanitized and truncated, capped at 12000 characters total. The
// bound lives here, at the capability boundary; session storage itself is
// append-only.
const (
	maxContextMessages = 12
	maxContextChars    = 12000
	maxMessageChars    = 2000
)

var (
	markdownImageRE = regexp.MustCompile(`!\[[^\]]*\]\(data:image/[^;]+;base64,[^)]+\)`)
	base64RunRE     = regexp.MustCompile(`[A-Za-z0-9/+]{800,}={0,2}`)
)

// sanitizeForModel redacts inline image data URLs and long base64 runs, and
// truncates oversized messages. Limits count runes, not bytes; Thai text
// must not be cut mid-rune.
func sanitizeForModel(text string) string {
	if text == "" {
		return ""
	}
	text = markdownImageRE.ReplaceAllString(text, "[image omitted]")
	text = base64RunRE.ReplaceAllString(text, "[omitted]")
	if utf8.RuneCountInString(text) > maxMessageChars {
		text = truncateRunes(text, maxMessageChars) + " …"
	}
	return text
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	for i := range s {
		if limit == 0 {
			return s[:i]
		}
		limit--
	}
	return s
}

func compactHistory(history []domain.Message) []chatMessage {
	start := 0
	if len(history) > maxContextMessages {
		start = len(history) - maxContextMessages
	}

	out := make([]chatMessage, 0, len(history)-start)
	total := 0
	for _, msg := range history[start:] {
		text := sanitizeForModel(msg.Text)
		if text == "" {
			continue
		}
		size := utf8.RuneCountInString(text)
		if total+size > maxContextChars {
			keep := maxContextChars - total
			if keep <= 0 {
				break
			}
			text = truncateRunes(text, keep)
			size = keep
		}
		if msg.Role == domain.RoleUser {
			out = append(out, userMessage(text))
		} else {
			out = append(out, assistantMessage(text))
		}
		total += size
		if total >= maxContextChars {
			break
		}
	}
	return out
}
