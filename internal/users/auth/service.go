// Copyright (c) 2026 Vacaplan. All rights reserved.

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/notify"
	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/clock"
	"github.com/vacaplan/vacaplan/internal/platform/constants"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
	"github.com/vacaplan/vacaplan/internal/platform/validate"
	"github.com/vacaplan/vacaplan/internal/ratelimit"
	"github.com/vacaplan/vacaplan/internal/users/account"
	"github.com/vacaplan/vacaplan/pkg/uuidv7"
)

// TokenProvider mints signed access tokens. Satisfied by
// [sec.TokenService]; tests substitute a stub.
type TokenProvider interface {
	GenerateAccessToken(userID, companyID string, role sec.UserRole) (string, error)
}

// LockoutGate is the slice of the rate limiter the session flows need:
// the per-endpoint budgets and the lockout latch.
type LockoutGate interface {
	CheckAndRecord(ctx context.Context, category ratelimit.Category, key string) (ratelimit.Decision, error)
	CheckLockout(ctx context.Context, email string) (bool, time.Duration, error)
	RecordLoginFailure(ctx context.Context, email string) (bool, error)
	RecordLoginSuccess(ctx context.Context, email string) error
	ClearLockout(ctx context.Context, email string) error
}

var _ LockoutGate = (*ratelimit.RateGate)(nil)

// # Service Layer

// Service orchestrates the session lifecycle and password flows.
type Service struct {
	repo       Repository
	accounts   account.Repository
	tokens     TokenProvider
	hasher     *sec.PasswordHasher
	gate       LockoutGate
	recorder   *audit.Recorder
	notifier   *notify.Service
	clock      clock.Clock
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
}

// NewService constructs an auth [Service].
func NewService(
	repo Repository,
	accounts account.Repository,
	tokens TokenProvider,
	hasher *sec.PasswordHasher,
	gate LockoutGate,
	recorder *audit.Recorder,
	notifier *notify.Service,
	clk clock.Clock,
	accessTTL, refreshTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		accounts:   accounts,
		tokens:     tokens,
		hasher:     hasher,
		gate:       gate,
		recorder:   recorder,
		notifier:   notifier,
		clock:      clk,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// checkBudget consumes one unit of an endpoint budget. A failing
// limiter counts as a denial, never as an allowance.
func (service *Service) checkBudget(context context.Context, category ratelimit.Category, key string) error {
	decision, err := service.gate.CheckAndRecord(context, category, key)
	if err != nil {
		return apperr.Internal(err)
	}
	if !decision.Allowed {
		return apperr.RateLimited(int(decision.RetryAfter.Seconds()) + 1)
	}
	return nil
}

// # Login

// LoginInput carries the login credentials.
type LoginInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

/*
Login verifies credentials and opens a session.

Description: The lockout latch is checked before any credential work, so
a locked account rejects even a correct password. Unknown emails burn
the same hashing cost as real ones and return the same error as a wrong
password. Hashes stored under weaker parameters are transparently
upgraded on success.

Parameters:
  - context: context.Context
  - input: LoginInput
  - meta: RequestMeta (Client IP and user agent)

Returns:
  - *Session: Access token, refresh token, and the account
  - error: INVALID_CREDENTIAL, LOGIN_LOCKED, RATE_LIMITED, or
    infrastructure failures
*/
func (service *Service) Login(context context.Context, input LoginInput, meta RequestMeta) (*Session, error) {
	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	locked, remaining, err := service.gate.CheckLockout(context, input.Email)
	if err != nil {
		// A failing limiter never silently allows traffic.
		return nil, apperr.Internal(err)
	}
	if locked {
		return nil, apperr.LoginLocked(int(remaining.Seconds()) + 1)
	}

	// The latch wins over the window budget, so a locked account always
	// answers 423 regardless of how fast the attempts arrive.
	if err := service.checkBudget(context, ratelimit.CategoryLogin, meta.IP+"|"+input.Email); err != nil {
		return nil, err
	}

	user, err := service.accounts.FindByEmail(context, input.Email)
	if err != nil {
		// Burn the hashing cost so timing does not reveal account
		// existence. The attempt still counts toward the latch.
		service.hasher.DummyVerify()
		if _, recordErr := service.gate.RecordLoginFailure(context, input.Email); recordErr != nil {
			service.logger.Error("lockout_count_failed", slog.String("error", recordErr.Error()))
		}
		return nil, apperr.InvalidCredential()
	}

	match, needsRehash, err := service.hasher.Verify(user.PasswordHash, input.Password)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, service.handleFailedLogin(context, user, meta)
	}

	if needsRehash {
		if upgraded, err := service.hasher.Hash(input.Password); err == nil {
			if err := service.accounts.UpdatePassword(context, user.ID, upgraded); err != nil {
				service.logger.Warn("password_rehash_failed",
					slog.String("user_id", user.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if err := service.gate.RecordLoginSuccess(context, input.Email); err != nil {
		service.logger.Warn("lockout_reset_failed", slog.String("error", err.Error()))
	}
	if err := service.accounts.TouchLastLogin(context, user.ID); err != nil {
		service.logger.Warn("last_login_stamp_failed", slog.String("error", err.Error()))
	}

	session, err := service.issueSession(context, user, input.RememberMe, meta)
	if err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  user.CompanyID,
		ActorID:    &user.ID,
		Action:     audit.ActionLoginSucceeded,
		EntityType: string(authz.ResourceUser),
		EntityID:   &user.ID,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})

	return session, nil
}

// handleFailedLogin counts the failure, arms the latch when the budget
// is spent, and always returns INVALID_CREDENTIAL.
func (service *Service) handleFailedLogin(context context.Context, user *account.User, meta RequestMeta) error {
	armed, err := service.gate.RecordLoginFailure(context, user.Email)
	if err != nil {
		service.logger.Error("lockout_count_failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  user.CompanyID,
		Action:     audit.ActionLoginFailed,
		EntityType: string(authz.ResourceUser),
		EntityID:   &user.ID,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})

	if armed {
		_ = service.recorder.Record(context, &audit.Event{
			CompanyID:  user.CompanyID,
			Action:     audit.ActionLoginLocked,
			EntityType: string(authz.ResourceUser),
			EntityID:   &user.ID,
			IP:         meta.IP,
		})
		service.notifier.SendAccountLocked(user.Email)
	}

	return apperr.InvalidCredential()
}

// # Refresh & Logout

/*
Refresh exchanges a live refresh token for a fresh session pair.

Description: Rotation is strict: the presented token is revoked and a
successor issued in one transaction. Presenting an already revoked token
is treated as theft evidence; every session of the account is ended and
the caller receives REFRESH_REPLAY_DETECTED.

Parameters:
  - context: context.Context
  - rawToken: string (The opaque refresh token from the cookie)
  - meta: RequestMeta

Returns:
  - *Session: Fresh pair
  - error: UNAUTHORIZED for unknown or expired tokens,
    REFRESH_REPLAY_DETECTED for revoked ones, RATE_LIMITED when the
    account exchanges tokens faster than its budget
*/
func (service *Service) Refresh(context context.Context, rawToken string, meta RequestMeta) (*Session, error) {
	if rawToken == "" {
		return nil, apperr.Unauthorized("Refresh token required")
	}

	record, err := service.repo.FindRefreshByHash(context, sec.HashOpaqueToken(rawToken))
	if err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	if record.RevokedAt != nil {
		return nil, service.handleReplay(context, record, meta)
	}
	if !record.Live(service.clock.Now()) {
		return nil, apperr.Unauthorized("Refresh token expired")
	}

	// Budget by account, not by client address: a denied exchange leaves
	// the presented token live for a later retry.
	if err := service.checkBudget(context, ratelimit.CategoryRefresh, record.UserID); err != nil {
		return nil, err
	}

	user, err := service.accounts.FindByID(context, record.UserID)
	if err != nil || !user.IsActive {
		return nil, apperr.Unauthorized("Account is not active")
	}

	raw, hash, err := sec.NewOpaqueToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	next := &RefreshTokenRecord{
		ID:           uuidv7.New(),
		UserID:       user.ID,
		TokenHash:    hash,
		ExpiresAt:    service.clock.Now().Add(service.refreshLifetime(record.IsRememberMe)),
		UserAgent:    meta.UserAgent,
		IP:           meta.IP,
		IsRememberMe: record.IsRememberMe,
	}
	if err := service.repo.Rotate(context, record.ID, next); err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	accessToken, err := service.tokens.GenerateAccessToken(user.ID, user.CompanyID, user.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  user.CompanyID,
		ActorID:    &user.ID,
		Action:     audit.ActionTokenRefreshed,
		EntityType: string(authz.ResourceUser),
		EntityID:   &user.ID,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: raw,
		ExpiresIn:    int(service.accessTTL.Seconds()),
		RememberMe:   record.IsRememberMe,
		User:         user,
	}, nil
}

// handleReplay ends every session of the account and reports the reuse.
func (service *Service) handleReplay(context context.Context, record *RefreshTokenRecord, meta RequestMeta) error {
	if err := service.repo.RevokeAllForUser(context, record.UserID); err != nil {
		service.logger.Error("replay_revocation_failed",
			slog.String("user_id", record.UserID),
			slog.String("error", err.Error()),
		)
	}

	companyID := ""
	if user, err := service.accounts.FindByID(context, record.UserID); err == nil {
		companyID = user.CompanyID
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  companyID,
		Action:     audit.ActionTokenReplayDetected,
		EntityType: string(authz.ResourceUser),
		EntityID:   &record.UserID,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})

	service.logger.Warn("refresh_replay_detected",
		slog.String("user_id", record.UserID),
		slog.String("ip", meta.IP),
	)

	return apperr.RefreshReplay()
}

/*
Logout revokes the presented refresh token. Idempotent: an unknown or
already revoked token still returns success.

Parameters:
  - context: context.Context
  - rawToken: string
  - meta: RequestMeta

Returns:
  - error: Infrastructure failures only
*/
func (service *Service) Logout(context context.Context, rawToken string, meta RequestMeta) error {
	if rawToken == "" {
		return nil
	}

	record, err := service.repo.FindRefreshByHash(context, sec.HashOpaqueToken(rawToken))
	if err != nil || record.RevokedAt != nil {
		return nil
	}

	if err := service.repo.RevokeRefreshToken(context, record.ID); err != nil {
		return err
	}

	if user, err := service.accounts.FindByID(context, record.UserID); err == nil {
		_ = service.recorder.Record(context, &audit.Event{
			CompanyID:  user.CompanyID,
			ActorID:    &user.ID,
			Action:     audit.ActionLogout,
			EntityType: string(authz.ResourceUser),
			EntityID:   &user.ID,
			IP:         meta.IP,
		})
	}

	return nil
}

// # Invite Acceptance

// AcceptInviteInput carries the fields for redeeming an invite.
type AcceptInviteInput struct {
	Token     string `json:"token"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

/*
AcceptInvite redeems an invite token, creates the account, and opens its
first session.

Description: The account, its team memberships, the invite consumption,
and the audit row commit in one transaction; a concurrent acceptance of
the same invite fails cleanly. Expired, used, and unknown tokens share
one indistinguishable error.

Parameters:
  - context: context.Context
  - input: AcceptInviteInput
  - meta: RequestMeta

Returns:
  - *Session: First session of the new account
  - error: INVITE_INVALID, WEAK_PASSWORD, validation, or persistence
    failures
*/
func (service *Service) AcceptInvite(context context.Context, input AcceptInviteInput, meta RequestMeta) (*Session, error) {
	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token)
	validator.Required("first_name", input.FirstName).MaxLen("first_name", input.FirstName, 100)
	validator.Required("last_name", input.LastName).MaxLen("last_name", input.LastName, 100)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	invite, err := service.accounts.FindInviteByTokenHash(context, sec.HashOpaqueToken(input.Token))
	if err != nil || !invite.Usable(service.clock.Now()) {
		return nil, apperr.InviteInvalid()
	}

	if err := sec.CheckPasswordPolicy(input.Password); err != nil {
		return nil, err
	}
	passwordHash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &account.User{
		ID:            uuidv7.New(),
		CompanyID:     invite.CompanyID,
		FunctionID:    invite.FunctionID,
		Email:         invite.Email,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		PasswordHash:  passwordHash,
		Role:          invite.Role,
		IsActive:      true,
		EmailVerified: true,
	}

	err = service.accounts.CreateFromInvite(context, user, invite, func(tx pgx.Tx) error {
		return service.recorder.RecordTx(context, tx, &audit.Event{
			CompanyID:  invite.CompanyID,
			ActorID:    &user.ID,
			Action:     audit.ActionInviteAccepted,
			EntityType: string(authz.ResourceInvite),
			EntityID:   &invite.ID,
			After:      map[string]any{"user_id": user.ID, "email": user.Email, "role": user.Role},
			IP:         meta.IP,
			UserAgent:  meta.UserAgent,
		})
	})
	if err != nil {
		return nil, apperr.InviteInvalid()
	}

	service.logger.Info("invite_accepted",
		slog.String("invite_id", invite.ID),
		slog.String("user_id", user.ID),
	)

	return service.issueSession(context, user, false, meta)
}

// # Password Flows

/*
RequestPasswordReset issues a reset grant for an email, if an account
exists.

Description: The response is identical whether or not the email is
known, so this endpoint cannot be used to enumerate accounts. The raw
token travels once, inside the reset email.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: RATE_LIMITED when the address is hammered; otherwise
    infrastructure failures only, unknown emails return nil
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	// Budgeted before the lookup so known and unknown addresses consume
	// the same way.
	if err := service.checkBudget(context, ratelimit.CategoryPasswordResetRequest, email); err != nil {
		return err
	}

	user, err := service.accounts.FindByEmail(context, email)
	if err != nil {
		return nil
	}

	raw, hash, err := sec.NewOpaqueToken()
	if err != nil {
		return apperr.Internal(err)
	}

	token := &PasswordResetToken{
		ID:        uuidv7.New(),
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: service.clock.Now().Add(constants.PasswordResetTokenTTL),
	}
	if err := service.repo.CreatePasswordReset(context, token); err != nil {
		return err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  user.CompanyID,
		ActorID:    &user.ID,
		Action:     audit.ActionPasswordResetRequested,
		EntityType: string(authz.ResourceUser),
		EntityID:   &user.ID,
	})

	service.notifier.SendPasswordReset(user.Email, raw)
	return nil
}

/*
ConfirmPasswordReset redeems a reset grant and replaces the password.

Description: Redemption is single-use, ends every session of the
account, and disarms the lockout latch so the owner can sign in again
immediately.

Parameters:
  - context: context.Context
  - rawToken: string
  - newPassword: string
  - meta: RequestMeta (The client IP keys the confirm budget)

Returns:
  - error: VALIDATION_ERROR for bad tokens, WEAK_PASSWORD, RATE_LIMITED,
    or persistence failures
*/
func (service *Service) ConfirmPasswordReset(context context.Context, rawToken, newPassword string, meta RequestMeta) error {
	// Keyed by client IP: confirm attempts are token guesses, and the
	// token owner is unknown until one succeeds.
	if err := service.checkBudget(context, ratelimit.CategoryPasswordResetConfirm, meta.IP); err != nil {
		return err
	}

	token, err := service.repo.FindResetByHash(context, sec.HashOpaqueToken(rawToken))
	if err != nil || !token.Usable(service.clock.Now()) {
		return validate.RequiredError(FieldToken, "Reset token is invalid or has expired")
	}

	if err := sec.CheckPasswordPolicy(newPassword); err != nil {
		return err
	}

	user, err := service.accounts.FindByID(context, token.UserID)
	if err != nil {
		return validate.RequiredError(FieldToken, "Reset token is invalid or has expired")
	}

	if err := service.repo.MarkResetUsed(context, token.ID); err != nil {
		return validate.RequiredError(FieldToken, "Reset token is invalid or has expired")
	}

	passwordHash, err := service.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := service.accounts.UpdatePassword(context, user.ID, passwordHash); err != nil {
		return err
	}

	if err := service.repo.RevokeAllForUser(context, user.ID); err != nil {
		return err
	}
	if err := service.gate.ClearLockout(context, user.Email); err != nil {
		service.logger.Warn("lockout_clear_failed", slog.String("error", err.Error()))
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  user.CompanyID,
		ActorID:    &user.ID,
		Action:     audit.ActionPasswordResetCompleted,
		EntityType: string(authz.ResourceUser),
		EntityID:   &user.ID,
	})

	service.notifier.SendPasswordChanged(user.Email)
	return nil
}

/*
ChangePassword replaces the caller's password after verifying the
current one. All other sessions are ended.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - currentPassword, newPassword: string

Returns:
  - error: INVALID_CREDENTIAL, WEAK_PASSWORD, or persistence failures
*/
func (service *Service) ChangePassword(context context.Context, principal authz.Principal, currentPassword, newPassword string) error {
	user, err := service.accounts.FindByID(context, principal.UserID)
	if err != nil {
		return err
	}

	match, _, err := service.hasher.Verify(user.PasswordHash, currentPassword)
	if err != nil {
		return err
	}
	if !match {
		return apperr.InvalidCredential()
	}

	if err := sec.CheckPasswordPolicy(newPassword); err != nil {
		return err
	}

	passwordHash, err := service.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := service.accounts.UpdatePassword(context, user.ID, passwordHash); err != nil {
		return err
	}

	if err := service.repo.RevokeAllForUser(context, user.ID); err != nil {
		return err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  user.CompanyID,
		ActorID:    &user.ID,
		Action:     audit.ActionPasswordChanged,
		EntityType: string(authz.ResourceUser),
		EntityID:   &user.ID,
	})

	service.notifier.SendPasswordChanged(user.Email)
	return nil
}

// # Helpers

// refreshLifetime maps the remember-me flag to the refresh token TTL.
func (service *Service) refreshLifetime(rememberMe bool) time.Duration {
	if rememberMe {
		return constants.RememberMeRefreshTTL
	}
	return service.refreshTTL
}

// issueSession mints the access/refresh pair for an authenticated user.
func (service *Service) issueSession(context context.Context, user *account.User, rememberMe bool, meta RequestMeta) (*Session, error) {
	accessToken, err := service.tokens.GenerateAccessToken(user.ID, user.CompanyID, user.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	raw, hash, err := sec.NewOpaqueToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	record := &RefreshTokenRecord{
		ID:           uuidv7.New(),
		UserID:       user.ID,
		TokenHash:    hash,
		ExpiresAt:    service.clock.Now().Add(service.refreshLifetime(rememberMe)),
		UserAgent:    meta.UserAgent,
		IP:           meta.IP,
		IsRememberMe: rememberMe,
	}
	if err := service.repo.CreateRefreshToken(context, record); err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: raw,
		ExpiresIn:    int(service.accessTTL.Seconds()),
		RememberMe:   rememberMe,
		User:         user,
	}, nil
}
