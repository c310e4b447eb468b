package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/tes-app/tes-backend/internal/identity/domain"
)

const (
	identityToolkitHost    = "identitytoolkit.googleapis.com"
	signInWithPasswordPath = "/v1/accounts:signInWithPassword"
)

// PasswordSignIn calls the Identity Toolkit accounts:signInWithPassword
// endpoint. The Admin SDK has no password sign-in, so this goes through the
// REST API with the project's web API key.
type PasswordSignIn struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewPasswordSignIn(apiKey string, httpClient *http.Client) *PasswordSignIn {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	endpoint := "https://" + identityToolkitHost + signInWithPasswordPath
	if host := os.Getenv("FIREBASE_AUTH_EMULATOR_HOST"); host != "" {
		endpoint = "http://" + host + "/" + identityToolkitHost + signInWithPasswordPath
	}
	return &PasswordSignIn{endpoint: endpoint, apiKey: apiKey, httpClient: httpClient}
}

// WithEndpoint overrides the sign-in URL.
func (p *PasswordSignIn) WithEndpoint(endpoint string) *PasswordSignIn {
	p.endpoint = endpoint
	return p
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *PasswordSignIn) SignIn(ctx context.Context, email, password string) (*domain.Credentials, error) {
	body, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, &Error{Code: CodeUnknown, Err: err}
	}

	u := p.endpoint + "?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Code: CodeUnknown, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Code: CodeUnknown, Err: fmt.Errorf("sign in with password: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Code: CodeUnknown, Err: fmt.Errorf("read sign-in response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		if err := json.Unmarshal(raw, &er); err != nil || er.Error.Message == "" {
			return nil, &Error{Code: CodeUnknown, Err: fmt.Errorf("unexpected http status code: %d", resp.StatusCode)}
		}
		return nil, &Error{Code: ParseCode(er.Error.Message), Err: errors.New(er.Error.Message)}
	}

	var out signInResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Code: CodeUnknown, Err: fmt.Errorf("decode sign-in response: %w", err)}
	}
	if out.LocalID == "" {
		return nil, &Error{Code: CodeUnknown, Err: errors.New("sign-in response without localId")}
	}

	return &domain.Credentials{
		UserID:       out.LocalID,
		Email:        out.Email,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
	}, nil
}
