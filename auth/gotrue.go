// Package auth signs operators in against the hosted GoTrue service, verifies
// the access tokens it issues and decides who counts as an admin.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/masterchelly/microsites/errs"
)

// Session is what GoTrue returns after a successful password or refresh grant.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// User is the identity carried by a session or an access token.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role,omitempty"`
}

type gotrueError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return "auth request failed"
}

// signUpResponse is a session when auto-confirm is on and a bare user
// otherwise.
type signUpResponse struct {
	Session
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type GoTrueClient struct {
	client *resty.Client
}

// NewGoTrueClient targets {supabaseURL}/auth/v1 with the public anon key.
func NewGoTrueClient(supabaseURL, anonKey string) *GoTrueClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(supabaseURL, "/")+"/auth/v1").
		SetTimeout(10*time.Second).
		SetHeader("apikey", anonKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &GoTrueClient{client: client}
}

type passwordCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	var apiErr gotrueError
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(passwordCredentials{Email: email, Password: password}).
		SetResult(&session).
		SetError(&apiErr).
		Post("/token")
	if err := check(resp, err, apiErr); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp creates the account. The returned session has no tokens when the
// project requires e-mail confirmation.
func (c *GoTrueClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var out signUpResponse
	var apiErr gotrueError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(passwordCredentials{Email: email, Password: password}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/signup")
	if err := check(resp, err, apiErr); err != nil {
		return nil, err
	}

	session := out.Session
	if session.User.ID == uuid.Nil {
		session.User = User{ID: out.ID, Email: out.Email}
	}
	return &session, nil
}

// Refresh exchanges a refresh token for a new session.
func (c *GoTrueClient) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var session Session
	var apiErr gotrueError
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "refresh_token").
		SetBody(map[string]string{"refresh_token": refreshToken}).
		SetResult(&session).
		SetError(&apiErr).
		Post("/token")
	if err := check(resp, err, apiErr); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut revokes the session's refresh tokens.
func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	var apiErr gotrueError
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetError(&apiErr).
		Post("/logout")
	return check(resp, err, apiErr)
}

func check(resp *resty.Response, err error, apiErr gotrueError) error {
	if err != nil {
		return errs.NewInternalErrorWithCause("auth service unreachable", err)
	}
	if !resp.IsError() {
		return nil
	}

	cause := fmt.Errorf("gotrue %d: %s", resp.StatusCode(), apiErr.text())
	switch resp.StatusCode() {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return errs.NewInvalidCredentialsError(cause).WithDetails(apiErr.text())
	case http.StatusTooManyRequests:
		return errs.NewApiErr(http.StatusTooManyRequests, "too many attempts, try again later").WithCause(cause)
	default:
		return errs.NewInternalErrorWithCause("auth request failed", cause)
	}
}
