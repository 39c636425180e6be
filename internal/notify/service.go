// Copyright (c) 2026 Vacaplan. All rights reserved.

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// # Service Layer

// Service renders and dispatches account mail.
//
// Dispatch is fire-and-forget: the message is rendered synchronously and
// delivered on a fresh goroutine with its own timeout, detached from the
// request context that triggered it.
type Service struct {
	sender  Sender
	baseURL string
	logger  *slog.Logger
}

// NewService constructs a notification [Service].
func NewService(sender Sender, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		sender:  sender,
		baseURL: baseURL,
		logger:  logger,
	}
}

// # Account Flows

/*
SendInvite dispatches an invitation mail carrying the single-use accept
link.

Parameters:
  - email: string (Recipient)
  - companyName: string
  - token: string (Raw invite token, only ever sent here)
*/
func (service *Service) SendInvite(email, companyName, token string) {
	service.dispatch(Message{
		To:      email,
		Subject: fmt.Sprintf("You have been invited to %s on Vacaplan", companyName),
		Body: fmt.Sprintf(
			"Hello,\n\nYou have been invited to join %s on Vacaplan.\n\n"+
				"Accept the invitation within 7 days:\n%s/invite/%s\n\n"+
				"If you were not expecting this, you can ignore this email.\n",
			companyName, service.baseURL, token,
		),
	})
}

/*
SendPasswordReset dispatches the reset mail carrying the single-use
reset link.

Parameters:
  - email: string (Recipient)
  - token: string (Raw reset token, only ever sent here)
*/
func (service *Service) SendPasswordReset(email, token string) {
	service.dispatch(Message{
		To:      email,
		Subject: "Reset your Vacaplan password",
		Body: fmt.Sprintf(
			"Hello,\n\nA password reset was requested for this address.\n\n"+
				"Reset your password within 1 hour:\n%s/reset-password/%s\n\n"+
				"If you did not request this, no action is needed.\n",
			service.baseURL, token,
		),
	})
}

// SendPasswordChanged notifies the account owner after a successful
// password change or reset.
func (service *Service) SendPasswordChanged(email string) {
	service.dispatch(Message{
		To:      email,
		Subject: "Your Vacaplan password was changed",
		Body: "Hello,\n\nYour password was just changed. All other sessions have been signed out.\n\n" +
			"If this was not you, reset your password immediately.\n",
	})
}

// SendAccountLocked notifies the account owner that repeated failed
// logins locked the account.
func (service *Service) SendAccountLocked(email string) {
	service.dispatch(Message{
		To:      email,
		Subject: "Your Vacaplan account is temporarily locked",
		Body: "Hello,\n\nToo many failed sign-in attempts locked your account for 15 minutes.\n\n" +
			"If this was not you, consider resetting your password.\n",
	})
}

// dispatch delivers on a detached goroutine. Failures are logged, never
// surfaced: the tokens behind these links stay valid and resendable.
func (service *Service) dispatch(message Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := service.sender.Send(ctx, message); err != nil {
			service.logger.Error("email_delivery_failed",
				slog.String("subject", message.Subject),
				slog.String("error", err.Error()),
			)
		}
	}()
}
