package chat

import (
	"fmt"
	"strings"

	"github.com/jdfmarine/leadengine/internal/catalog"
)

// Persona lets the widget tune how the assistant introduces itself.
// All fields are optional.
type Persona struct {
	FirstName string `json:"firstName,omitempty"`
	Role      string `json:"role,omitempty"`
	Tagline   string `json:"tagline,omitempty"`
}

// BuildSystemPrompt renders the synthetic system turn for a conversation.
// The prompt is rebuilt per request and is never persisted to history.
func BuildSystemPrompt(biz catalog.Business, persona Persona) string {
	role := persona.Role
	if role == "" {
		role = "knowledgeable and friendly customer service assistant"
	}

	var b strings.Builder
	if persona.FirstName != "" {
		fmt.Fprintf(&b, "You are %s, a %s for %s, a high-performance marine service shop located in %s.\n", persona.FirstName, role, biz.Name, biz.Location)
	} else {
		fmt.Fprintf(&b, "You are a %s for %s, a high-performance marine service shop located in %s.\n", role, biz.Name, biz.Location)
	}
	if persona.Tagline != "" {
		fmt.Fprintf(&b, "Your motto: %s\n", persona.Tagline)
	}

	fmt.Fprintf(&b, `
Company Information:
- 30+ years of expert experience in marine mechanical and service industry
- Specialize in high-performance marine service
- Focus on MerCruiser and Mercury Racing products, as well as Yamaha and Kawasaki Jet Skis
- Phone: %s
- Email: %s
- Instagram: %s

Services offered:
%s

Your role:
- Answer questions about services professionally and enthusiastically
- Help customers understand what service they might need
- Provide helpful information about marine maintenance
- Encourage customers to call or email for quotes and appointments
- Be conversational but professional
- Keep responses concise and helpful`,
		biz.Phone, biz.Email, biz.Instagram, catalog.ServiceList())

	return b.String()
}
