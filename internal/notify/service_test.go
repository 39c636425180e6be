// Copyright (c) 2026 Vacaplan. All rights reserved.

package notify_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacaplan/vacaplan/internal/notify"
)

// captureSender records delivered messages and signals each delivery.
type captureSender struct {
	mutex     sync.Mutex
	messages  []notify.Message
	delivered chan struct{}
}

func newCaptureSender() *captureSender {
	return &captureSender{delivered: make(chan struct{}, 8)}
}

func (sender *captureSender) Send(_ context.Context, message notify.Message) error {
	sender.mutex.Lock()
	sender.messages = append(sender.messages, message)
	sender.mutex.Unlock()
	sender.delivered <- struct{}{}
	return nil
}

func (sender *captureSender) wait(t *testing.T) notify.Message {
	t.Helper()
	select {
	case <-sender.delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	return sender.messages[len(sender.messages)-1]
}

func newService(sender notify.Sender) *notify.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return notify.NewService(sender, "https://app.example", logger)
}

/*
TestSendInvite verifies the invite mail carries the accept link built
from the raw token.
*/
func TestSendInvite(t *testing.T) {
	sender := newCaptureSender()
	service := newService(sender)

	service.SendInvite("new.hire@co.example", "Acme GmbH", "raw-invite-token")

	message := sender.wait(t)
	assert.Equal(t, "new.hire@co.example", message.To)
	assert.Contains(t, message.Subject, "Acme GmbH")
	assert.Contains(t, message.Body, "https://app.example/invite/raw-invite-token")
}

/*
TestSendPasswordReset verifies the reset mail and its expiry notice.
*/
func TestSendPasswordReset(t *testing.T) {
	sender := newCaptureSender()
	service := newService(sender)

	service.SendPasswordReset("alice@co.example", "raw-reset-token")

	message := sender.wait(t)
	require.Equal(t, "alice@co.example", message.To)
	assert.Contains(t, message.Body, "https://app.example/reset-password/raw-reset-token")
	assert.Contains(t, message.Body, "1 hour")
}
