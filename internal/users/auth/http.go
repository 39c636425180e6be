// Copyright (c) 2026 Vacaplan. All rights reserved.

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vacaplan/vacaplan/internal/platform/constants"
	"github.com/vacaplan/vacaplan/internal/platform/middleware"
	requestutil "github.com/vacaplan/vacaplan/internal/platform/request"
	"github.com/vacaplan/vacaplan/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for session and password flows.
//
// The refresh token never appears in a response body. It travels in an
// HttpOnly cookie scoped to the auth path, so browser scripts can
// neither read nor replay it.
type Handler struct {
	service      *Service
	secureCookie bool
}

// NewHandler constructs an auth [Handler]. secureCookie should be false
// only in development over plain HTTP.
func NewHandler(service *Service, secureCookie bool) *Handler {
	return &Handler{service: service, secureCookie: secureCookie}
}

// Routes returns a [chi.Router] configured with auth endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)
	router.Post("/invite/accept", handler.acceptInvite)
	router.Post("/password/reset/request", handler.requestPasswordReset)
	router.Post("/password/reset/confirm", handler.confirmPasswordReset)
	router.Post("/password/change", handler.changePassword)

	return router
}

// # Session Endpoints

/*
POST /api/v1/auth/login.

Request (Body):
  - { "email": "string", "password": "string", "remember_me"?: bool }

Response:
  - 200: Session: Access token in body, refresh token as cookie
  - 401: INVALID_CREDENTIAL: Unknown email or wrong password
  - 423: LOGIN_LOCKED: Lockout latch armed, Retry-After set
  - 429: RATE_LIMITED: Login budget exhausted
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input LoginInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Login(request.Context(), input, metaFrom(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.OK(writer, session)
}

/*
POST /api/v1/auth/refresh.

The refresh token is read from the auth cookie; no request body.

Response:
  - 200: Session: Fresh pair, cookie rotated
  - 401: UNAUTHORIZED or REFRESH_REPLAY_DETECTED
  - 429: RATE_LIMITED: Refresh budget exhausted for the account
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.service.Refresh(request.Context(), refreshTokenFrom(request), metaFrom(request))
	if err != nil {
		handler.clearRefreshCookie(writer)
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.OK(writer, session)
}

/*
POST /api/v1/auth/logout.

Response:
  - 204: No Content: Cookie cleared; idempotent for unknown tokens
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Logout(request.Context(), refreshTokenFrom(request), metaFrom(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearRefreshCookie(writer)
	respond.NoContent(writer)
}

/*
POST /api/v1/auth/invite/accept.

Request (Body):
  - { "token": "string", "first_name": "string", "last_name": "string",
    "password": "string" }

Response:
  - 201: Session: The new account's first session
  - 400: INVITE_INVALID, WEAK_PASSWORD, or Validation
*/
func (handler *Handler) acceptInvite(writer http.ResponseWriter, request *http.Request) {
	var input AcceptInviteInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.AcceptInvite(request.Context(), input, metaFrom(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.Created(writer, session)
}

// # Password Endpoints

/*
POST /api/v1/auth/password/reset/request.

Request (Body):
  - { "email": "string" }

Response:
  - 202: Accepted: Identical for known and unknown emails
  - 429: RATE_LIMITED: Reset-request budget exhausted for the address
*/
func (handler *Handler) requestPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{
		Data: map[string]string{"message": "If the address exists, a reset email has been sent"},
	})
}

/*
POST /api/v1/auth/password/reset/confirm.

Request (Body):
  - { "token": "string", "new_password": "string" }

Response:
  - 204: No Content: Password replaced, all sessions ended
  - 400: Validation or WEAK_PASSWORD
  - 429: RATE_LIMITED: Confirm budget exhausted for the client address
*/
func (handler *Handler) confirmPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ConfirmPasswordReset(request.Context(), input.Token, input.NewPassword, metaFrom(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/auth/password/change.

Request (Body):
  - { "current_password": "string", "new_password": "string" }

Response:
  - 204: No Content: Password replaced, other sessions ended
  - 401: INVALID_CREDENTIAL: Wrong current password
  - 400: WEAK_PASSWORD
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ChangePassword(request.Context(), principal, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearRefreshCookie(writer)
	respond.NoContent(writer)
}

// # Cookie Handling

// setRefreshCookie attaches the rotated refresh token, scoped to the
// auth path so it never rides along on ordinary API calls.
func (handler *Handler) setRefreshCookie(writer http.ResponseWriter, session *Session) {
	maxAge := int(constants.RefreshTokenTTL.Seconds())
	if session.RememberMe {
		maxAge = int(constants.RememberMeRefreshTTL.Seconds())
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    session.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   handler.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie expires the refresh cookie immediately.
func (handler *Handler) clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   handler.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshTokenFrom reads the refresh token from the auth cookie.
func refreshTokenFrom(request *http.Request) string {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// metaFrom captures the client network context of a request.
func metaFrom(request *http.Request) RequestMeta {
	return RequestMeta{
		IP:        middleware.RealIP(request),
		UserAgent: request.UserAgent(),
	}
}
