package chat

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// Shaper post-processes raw model replies before they reach the caller.
// The variance pass is cosmetic and random; the contact-prompt pass and the
// repeat guard are deterministic functions of conversation state.
type Shaper struct {
	rng *rand.Rand
}

// NewShaper builds a shaper around the given random source. Pass nil for a
// time-seeded source; tests inject a fixed-seed rand.Rand to pin down which
// variance branch fires.
func NewShaper(rng *rand.Rand) *Shaper {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Shaper{rng: rng}
}

// ShapeState carries everything the deterministic passes need. Contact and
// Score are recomputed over the post-reply transcript, including the
// just-generated assistant turn, so the injection reflects the freshest
// state. PrevContact is the extraction result before this turn's user
// message landed.
type ShapeState struct {
	Contact     ContactInfo
	PrevContact ContactInfo
	Score       ScoreResult
	LastUserMsg string
	UserTurns   int

	// PriorReplies holds every assistant turn already sent in this session,
	// used by the repeat guard.
	PriorReplies []string
}

var (
	openerPhrases = []string{
		"Great question!",
		"Happy to help with that.",
		"Thanks for reaching out!",
	}
	closerPhrases = []string{
		"Let me know if there's anything else I can help with.",
		"Feel free to ask if anything else comes up.",
	}
	empathyPhrases = []string{
		"I know boat trouble is never fun.",
		"We'll get you back on the water.",
	}

	differentiators = []string{
		"Is there anything else about your boat I can help with?",
		"Happy to go into more detail on any of that.",
		"Just say the word if you'd like specifics.",
	}

	bareConfirmationRE = regexp.MustCompile(`^(yes|yeah|yep|yup|sure|ok|okay|definitely|absolutely|sounds good)[.!\s]*$`)
	normalizeRE        = regexp.MustCompile(`[^a-z0-9]+`)
)

// Shape runs both passes in order and then the repeat guard.
func (s *Shaper) Shape(raw string, st ShapeState) string {
	text := s.applyVariance(raw)
	text = applyContactPrompt(text, st)
	return guardRepeat(text, st.PriorReplies)
}

// applyVariance prepends or appends a short human phrase with low
// probability. Most replies pass through untouched.
func (s *Shaper) applyVariance(text string) string {
	roll := s.rng.Float64()
	switch {
	case roll < 0.60:
		return text
	case roll < 0.75:
		return openerPhrases[s.rng.Intn(len(openerPhrases))] + " " + text
	case roll < 0.90:
		return text + " " + closerPhrases[s.rng.Intn(len(closerPhrases))]
	default:
		return empathyPhrases[s.rng.Intn(len(empathyPhrases))] + " " + text
	}
}

// applyContactPrompt injects or overrides contact-collection language based
// on the freshest extraction and score. Exactly one branch fires per turn.
func applyContactPrompt(text string, st ShapeState) string {
	switch {
	case st.Contact.Complete() && !st.PrevContact.Complete():
		// This turn supplied the last missing field.
		window := "soon"
		if st.Score.Tier == LeadTierHot {
			window = "within a couple hours"
		}
		name := st.Contact.Name
		if name != "" {
			return fmt.Sprintf("%s Perfect, thanks %s! Someone from our team will reach out %s.", text, name, window)
		}
		return fmt.Sprintf("%s Perfect, thanks! Someone from our team will reach out %s.", text, window)

	case isBareConfirmation(st.LastUserMsg) && st.Contact.Name != "" && !st.Contact.Complete():
		// Drop the model's reply and ask directly for the next missing field.
		if st.Contact.Phone == "" {
			return fmt.Sprintf("Great, %s! What's the best phone number to reach you at?", st.Contact.Name)
		}
		return fmt.Sprintf("Great, %s! And what's the best email address for you?", st.Contact.Name)

	case st.Score.Tier != LeadTierCold && st.Contact.Name != "" && st.UserTurns >= 3 && !st.Contact.Complete():
		if st.Contact.Phone == "" {
			return fmt.Sprintf("%s By the way %s, what's the best phone number to reach you at so we can follow up?", text, st.Contact.Name)
		}
		return fmt.Sprintf("%s By the way %s, what's the best email address for you so we can follow up?", text, st.Contact.Name)

	default:
		return text
	}
}

// guardRepeat ensures the shaped reply never duplicates a prior assistant
// turn under normalized comparison. Collisions pick up a differentiator
// clause; if every pool option also collides, a generic last-resort clause
// is appended unconditionally.
func guardRepeat(text string, prior []string) string {
	seen := make(map[string]bool, len(prior))
	for _, p := range prior {
		seen[normalizeReply(p)] = true
	}
	if !seen[normalizeReply(text)] {
		return text
	}

	for _, d := range differentiators {
		candidate := text + " " + d
		if !seen[normalizeReply(candidate)] {
			return candidate
		}
	}
	return text + " Anything else on your mind?"
}

func isBareConfirmation(msg string) bool {
	return bareConfirmationRE.MatchString(strings.ToLower(strings.TrimSpace(msg)))
}

func normalizeReply(text string) string {
	return strings.Trim(normalizeRE.ReplaceAllString(strings.ToLower(text), " "), " ")
}
