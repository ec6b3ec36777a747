package chat

import (
	"regexp"
	"strings"
)

// ContactInfo holds contact details mined from conversation text. Fields fill
// in monotonically as the conversation progresses; a populated field keeps the
// first match found on every re-extraction (sticky first match).
type ContactInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Complete reports whether both reachable channels are captured.
func (c ContactInfo) Complete() bool {
	return c.Email != "" && c.Phone != ""
}

// HasReachableChannel reports whether the lead can be contacted at all.
func (c ContactInfo) HasReachableChannel() bool {
	return c.Email != "" || c.Phone != ""
}

var (
	emailRE = regexp.MustCompile(`[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	phoneRE = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)
	digitRE = regexp.MustCompile(`\D`)
)

// Name matching only fires on explicit self-introduction phrasing, where the
// candidate is one or two capitalized words.
const nameWordPattern = `[A-Z][a-zA-Z'\-]+(?:\s+[A-Z][a-zA-Z'\-]+)?`

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:my name is)\s+(` + nameWordPattern + `)`),
	regexp.MustCompile(`(?i:\bi'?m)\s+(` + nameWordPattern + `)(?:\s|,|\.|!|$)`),
	regexp.MustCompile(`(?i:\bthis is)\s+(` + nameWordPattern + `)`),
	regexp.MustCompile(`(?i:\bcall me)\s+(` + nameWordPattern + `)`),
	regexp.MustCompile(`(?m)^\s*(` + nameWordPattern + `)\s+(?i:here)\b`),
}

// commonWords are capitalized tokens that show up after introduction phrasing
// but are never names ("I'm Interested", "This is Great").
var commonWords = map[string]bool{
	"interested": true, "looking": true, "wondering": true, "calling": true,
	"writing": true, "asking": true, "checking": true, "hoping": true,
	"great": true, "good": true, "fine": true, "sure": true, "sorry": true,
	"just": true, "here": true, "new": true, "back": true, "ready": true,
	"not": true, "so": true, "very": true, "really": true, "the": true,
}

// ExtractContact mines name, email, and phone out of the conversation's user
// turns. It is a pure function of the transcript: re-running it over the same
// messages yields the same result. First match wins per field, even when a
// later message contains a different candidate.
func ExtractContact(messages []Message) ContactInfo {
	var userText strings.Builder
	for _, msg := range messages {
		if msg.Role != ChatRoleUser {
			continue
		}
		userText.WriteString(msg.Content)
		userText.WriteString("\n")
	}
	original := userText.String()
	lowered := strings.ToLower(original)

	info := ContactInfo{}

	if m := emailRE.FindString(lowered); m != "" {
		info.Email = m
	}
	if m := phoneRE.FindString(original); m != "" {
		info.Phone = normalizePhone(m)
	}
	info.Name = findName(original)

	return info
}

// normalizePhone reduces a matched phone candidate to bare digits, dropping a
// leading US country code so ten-digit numbers compare equal regardless of
// formatting.
func normalizePhone(raw string) string {
	digits := digitRE.ReplaceAllString(raw, "")
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		return digits[1:]
	}
	return digits
}

// findName scans introduction patterns in priority order and stops at the
// first hit.
func findName(text string) string {
	for _, pattern := range namePatterns {
		match := pattern.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		candidate := cleanNameCandidate(match[1])
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func cleanNameCandidate(raw string) string {
	words := strings.Fields(strings.TrimSpace(raw))
	kept := make([]string, 0, 2)
	for _, word := range words {
		word = strings.Trim(word, ".,!?'\"-")
		if word == "" || commonWords[strings.ToLower(word)] {
			break
		}
		kept = append(kept, word)
		if len(kept) == 2 {
			break
		}
	}
	return strings.Join(kept, " ")
}
