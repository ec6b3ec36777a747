package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSendGridSenderRequiresAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{FromEmail: "noreply@example.com"}, nil)
	assert.Nil(t, sender)
}

func TestNewSendGridSenderDefaults(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "SG.test", FromEmail: "noreply@example.com"}, nil)
	assert.NotNil(t, sender)
	assert.Equal(t, "JDF Lead Engine", sender.fromName)
}

func TestNewSESSenderRequiresClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}

func TestStubEmailSenderAlwaysSucceeds(t *testing.T) {
	sender := NewStubEmailSender(nil)
	err := sender.Send(context.Background(), EmailMessage{To: "owner@example.com", Subject: "test"})
	assert.NoError(t, err)
}
