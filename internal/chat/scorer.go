package chat

import (
	"fmt"
	"regexp"
	"strings"
)

// LeadTier classifies a lead's urgency and readiness to buy.
type LeadTier string

const (
	LeadTierCold LeadTier = "cold"
	LeadTierWarm LeadTier = "warm"
	LeadTierHot  LeadTier = "hot"
)

// ScoreResult is the scorer's verdict for one transcript.
type ScoreResult struct {
	Tier             LeadTier `json:"leadScore"`
	RequiresFollowUp bool     `json:"requiresFollowUp"`
	Notes            string   `json:"notes,omitempty"`
}

// Indicator vocabulary. Critical phrases signal a boat that is down right
// now; hot phrases signal scheduling or pricing intent; warm phrases signal
// exploratory or future planning. Confirmation tokens are matched as whole
// words so "okay" in "karaoke" does not count.
var (
	criticalIndicators = []string{
		"won't start", "wont start", "not starting", "doesn't start",
		"broke down", "broken down", "breakdown", "breaking down",
		"emergency", "stranded", "dead in the water", "taking on water",
		"overheating", "stalling", "stalled", "smoke", "won't turn over",
	}

	hotIndicators = []string{
		"schedule", "appointment", "book", "quote", "estimate",
		"how much", "price", "pricing", "cost",
		"asap", "as soon as possible", "right away", "today", "tomorrow",
		"this week", "this weekend", "come in", "drop off", "bring my boat",
		"bring it in", "available", "availability", "open slot",
	}

	warmIndicators = []string{
		"thinking about", "considering", "looking into", "curious",
		"interested in", "planning", "down the road", "eventually",
		"someday", "next season", "next year", "in the spring",
		"at some point", "maybe", "might want", "wondering",
	}

	confirmationRE = regexp.MustCompile(`\b(yes|yeah|yep|yup|sure|ok|okay|definitely|absolutely|sounds good)\b`)
)

// ScoreLead classifies the full transcript into a tier and decides whether a
// human should follow up. It is a pure function of the messages and the
// extracted contact info; prior scores never feed back into the result, so
// re-scoring an identical transcript always yields the same verdict.
//
// Priority is deliberate: urgency language dominates casual browsing
// language, and an explicit "yes" after exploratory talk counts as a closing
// signal worth immediate follow-up.
func ScoreLead(messages []Message, contact ContactInfo) ScoreResult {
	var text strings.Builder
	for _, msg := range messages {
		if msg.Role != ChatRoleUser {
			continue
		}
		text.WriteString(strings.ToLower(msg.Content))
		text.WriteString("\n")
	}
	lowered := text.String()

	criticalHits := countIndicators(lowered, criticalIndicators)
	hotHits := countIndicators(lowered, hotIndicators)
	warmHits := countIndicators(lowered, warmIndicators)
	confirmed := confirmationRE.MatchString(lowered)

	switch {
	case criticalHits > 0:
		return ScoreResult{
			Tier:             LeadTierHot,
			RequiresFollowUp: true,
			Notes:            buildNotes("URGENT: boat is down, customer needs service now", contact),
		}
	case hotHits > 0:
		return ScoreResult{
			Tier:             LeadTierHot,
			RequiresFollowUp: true,
			Notes:            buildNotes("Ready to schedule or asking about pricing", contact),
		}
	case confirmed && warmHits > 0:
		return ScoreResult{
			Tier:             LeadTierHot,
			RequiresFollowUp: true,
			Notes:            buildNotes("Confirmed interest after exploratory conversation", contact),
		}
	case warmHits > 0:
		return ScoreResult{
			Tier:             LeadTierWarm,
			RequiresFollowUp: contact.HasReachableChannel(),
			Notes:            buildNotes("Exploring services, no urgency yet", contact),
		}
	default:
		return ScoreResult{
			Tier:             LeadTierCold,
			RequiresFollowUp: false,
			Notes:            buildNotes("General inquiry", contact),
		}
	}
}

func countIndicators(text string, indicators []string) int {
	total := 0
	for _, phrase := range indicators {
		total += strings.Count(text, phrase)
	}
	return total
}

// buildNotes appends what we know about reaching the lead. Contact presence
// only shows up here; it never changes the tier except as the warm-case
// follow-up gate in ScoreLead.
func buildNotes(summary string, contact ContactInfo) string {
	parts := []string{summary}
	if contact.Name != "" {
		parts = append(parts, fmt.Sprintf("name: %s", contact.Name))
	}
	switch {
	case contact.Complete():
		parts = append(parts, "reachable by phone and email")
	case contact.Phone != "":
		parts = append(parts, "reachable by phone")
	case contact.Email != "":
		parts = append(parts, "reachable by email")
	default:
		parts = append(parts, "no contact info captured")
	}
	return strings.Join(parts, "; ")
}
