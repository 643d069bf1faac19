package vesync

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

const loginPath = "/vold/user/login"

// Session is the credential pair issued at login. It is never modified after
// Login returns and may be shared freely between goroutines and devices.
type Session struct {
	Token     string
	AccountID string

	// Profile is informational; nothing in the client depends on it.
	Profile Profile
}

// Profile holds the account metadata returned alongside the token.
type Profile struct {
	Nickname      string
	AvatarURL     string
	Language      string
	UserType      int
	TermsAccepted bool
}

// LogValue keeps the token out of log output.
func (s *Session) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("account_id", s.AccountID),
		slog.String("token", "[redacted]"),
	)
}

type loginRequest struct {
	Account  string `json:"account"`
	DevToken string `json:"devToken"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token          string `json:"tk"`
	AccountID      string `json:"accountID"`
	NickName       string `json:"nickName"`
	AvatarIcon     string `json:"avatarIcon"`
	UserType       int    `json:"userType"`
	AcceptLanguage string `json:"acceptLanguage"`
	TermsStatus    bool   `json:"termsStatus"`
}

var loginResponseFields = []string{"tk", "accountID"}

// Login exchanges an account e-mail and plaintext password for a Session.
// Every failure wraps ErrAuth; use IsUnauthorized to tell rejected
// credentials apart from a network problem.
func (c *Client) Login(ctx context.Context, account, password string) (*Session, error) {
	if account == "" || password == "" {
		return nil, fmt.Errorf("%w: %w", ErrAuth, ErrEmptyCredentials)
	}

	req := loginRequest{
		Account:  account,
		DevToken: "",
		Password: HashPassword(password),
	}

	body, err := c.doRequest(ctx, http.MethodPost, loginPath, nil, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}

	var resp loginResponse
	if err := decodeRecord(body, &resp, loginResponseFields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if resp.Token == "" || resp.AccountID == "" {
		return nil, fmt.Errorf("%w: %w: empty token or account id", ErrAuth, ErrDecode)
	}

	session := &Session{
		Token:     resp.Token,
		AccountID: resp.AccountID,
		Profile: Profile{
			Nickname:      resp.NickName,
			AvatarURL:     resp.AvatarIcon,
			Language:      resp.AcceptLanguage,
			UserType:      resp.UserType,
			TermsAccepted: resp.TermsStatus,
		},
	}

	c.logger.Info("logged in to vesync", "session", session)

	return session, nil
}
