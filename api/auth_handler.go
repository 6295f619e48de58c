package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/masterchelly/microsites/auth"
	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/errs"
)

type credentials struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

func (c *credentials) fill(values url.Values) error {
	c.Email = values.Get("email")
	c.Password = values.Get("password")
	return nil
}

type sessionResponse struct {
	Authenticated        bool   `json:"authenticated"`
	Email                string `json:"email,omitempty"`
	RedirectTo           string `json:"redirect_to,omitempty"`
	ConfirmationRequired bool   `json:"confirmation_required,omitempty"`
}

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	provider  AuthProvider
	verifier  TokenVerifier
	gate      AdminGate
	validator RequestValidator
	cookies   auth.Cookies
	adminURL  string
	loginURL  string
}

func newAuthHandler(provider AuthProvider, verifier TokenVerifier, gate AdminGate, validator RequestValidator, cookies auth.Cookies, cfg config.AppConfig) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()
	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		provider:  provider,
		verifier:  verifier,
		gate:      gate,
		validator: validator,
		cookies:   cookies,
		adminURL:  cfg.Protocol + "://" + cfg.ProjectHost("admin"),
		loginURL:  cfg.SiteURL + "/login",
	}
}

// session reports whether the request carries a valid access token.
func (h authHandler) session() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		access, _ := auth.Tokens(r)
		user, err := h.verifier.Verify(access)
		if err != nil {
			h.responder.WriteJSON(w, sessionResponse{})
			return
		}
		h.responder.WriteJSON(w, sessionResponse{Authenticated: true, Email: user.Email})
	}
}

func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds credentials
		if err := h.decode(w, r, &creds); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		session, err := h.provider.SignInWithPassword(r.Context(), creds.Email, creds.Password)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.finish(w, r, session)
	}
}

func (h authHandler) signup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds credentials
		if err := h.decode(w, r, &creds); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if !h.gate.MaySignUp(creds.Email) {
			h.responder.WriteError(w, errs.NewForbiddenError("Sign-ups are restricted"))
			return
		}

		session, err := h.provider.SignUp(r.Context(), creds.Email, creds.Password)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.gate.Enroll(r.Context(), session.User); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if session.AccessToken == "" {
			h.responder.WriteJSONStatus(w, http.StatusAccepted, sessionResponse{
				Email:                session.User.Email,
				ConfirmationRequired: true,
			})
			return
		}
		h.finish(w, r, session)
	}
}

// finish admits an admin session by writing the cookies. Anyone else is signed
// straight back out.
func (h authHandler) finish(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	if err := h.gate.Require(r.Context(), session.User); err != nil {
		h.signOut(r.Context(), session.AccessToken)
		h.cookies.Clear(w)
		h.responder.WriteError(w, err)
		return
	}

	h.cookies.Set(w, session)
	h.logger.Info().Str("user", session.User.ID.String()).Msg("admin signed in")

	if isForm(r) {
		h.responder.WriteRedirect(w, r, h.adminURL)
		return
	}
	h.responder.WriteJSON(w, sessionResponse{
		Authenticated: true,
		Email:         session.User.Email,
		RedirectTo:    h.adminURL,
	})
}

func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		access, _ := auth.Tokens(r)
		if access != "" {
			h.signOut(r.Context(), access)
		}
		h.cookies.Clear(w)
		h.responder.WriteRedirect(w, r, h.loginURL)
	}
}

func (h authHandler) signOut(ctx context.Context, accessToken string) {
	if err := h.provider.SignOut(ctx, accessToken); err != nil {
		h.logger.Warn().Err(err).Msg("sign out failed")
	}
}

func (h authHandler) decode(w http.ResponseWriter, r *http.Request, creds *credentials) error {
	if err := decodeBody(w, r, creds, creds.fill); err != nil {
		return err
	}
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	return h.validator.Struct(creds)
}
