// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package notify delivers transactional email for account flows.

Invites and password resets carry single-use links; everything else the
system says out loud happens over the API. Delivery is best-effort and
asynchronous: a mail failure is logged and never fails the request that
triggered it, because the underlying tokens remain valid and resendable.

# Core Responsibility

  - Composition: Renders the small fixed set of [Template] bodies.
  - Delivery: [Sender] implementations for SMTP and development logging.
*/
package notify

import "context"

// # Templates

// Template selects the subject and body of an outbound message.
type Template string

const (
	TemplateInvite          Template = "invite"
	TemplatePasswordReset   Template = "password_reset"
	TemplatePasswordChanged Template = "password_changed"
	TemplateAccountLocked   Template = "account_locked"
)

// # Message

// Message is one outbound email, already rendered.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a rendered message.
type Sender interface {

	/*
		Send delivers one message.

		Parameters:
		  - context: context.Context bounding the delivery attempt
		  - message: Message

		Returns:
		  - error: Transport or protocol failures
	*/
	Send(context context.Context, message Message) error
}
