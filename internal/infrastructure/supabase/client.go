// Package supabase adaptador REST del servicio de identidad (GoTrue).
// Usa net/http de la librería estándar; no hay SDK oficial de Go.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/portal-interno/internal/domain/entity"
)

// Config datos del proyecto.
type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	JWTSecret      string
	Timeout        time.Duration // 0 = 10s
}

// Client cliente HTTP compartido por todas las sesiones de navegador.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient construye el cliente.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "supabase").Logger(),
	}
}

// ── Protocolo GoTrue ──────────────────────────────────────────────────────────

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         userJSON `json:"user"`
}

type userJSON struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u userJSON) toEntity() entity.SessionUser {
	return entity.SessionUser{ID: u.ID, Email: u.Email, Metadata: u.UserMetadata}
}

func (r tokenResponse) toSession(now time.Time) *entity.Session {
	exp := time.Unix(r.ExpiresAt, 0)
	if r.ExpiresAt == 0 {
		exp = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return &entity.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    exp,
		User:         r.User.toEntity(),
	}
}

// APIError respuesta de error de GoTrue. Cubre los dos formatos:
// {"error","error_description"} y {"code","error_code","msg"}.
type APIError struct {
	Status           int    `json:"-"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *APIError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.ErrorDescription
	}
	code := e.ErrorCode
	if code == "" {
		code = e.ErrorName
	}
	return fmt.Sprintf("supabase: %d %s: %s", e.Status, code, msg)
}

// Code código de error normalizado.
func (e *APIError) Code() string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	return e.ErrorName
}

// clientError informa si el servicio rechazó la petición (4xx distinto de 429).
func clientError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusTooManyRequests
}

type request struct {
	method string
	path   string
	query  url.Values
	bearer string
	apiKey string
	body   any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("supabase: serializar request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	u := c.cfg.URL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("supabase: crear request: %w", err)
	}
	apiKey := r.apiKey
	if apiKey == "" {
		apiKey = c.cfg.AnonKey
	}
	req.Header.Set("apikey", apiKey)
	if r.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("supabase: leer respuesta: %w", err)
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("supabase: decodificar respuesta: %w", err)
	}
	return nil
}

func (c *Client) passwordGrant(ctx context.Context, email, password string) (*tokenResponse, error) {
	var out tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) refreshGrant(ctx context.Context, refreshToken string) (*tokenResponse, error) {
	var out tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		query:  url.Values{"scope": {"local"}},
		bearer: accessToken,
	}, nil)
}
