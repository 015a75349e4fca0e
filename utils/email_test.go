package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailMessageHeaders(t *testing.T) {
	msg := string(emailMessage("Miglee", "noreply@miglee.app", []string{"a@example.com", "b@example.com"}, "You were invited", "See you there"))

	assert.Contains(t, msg, "From: Miglee <noreply@miglee.app>\r\n")
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: You were invited\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nSee you there"))
}
