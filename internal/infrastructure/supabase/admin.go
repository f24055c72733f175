package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jhoicas/portal-interno/internal/application/ports"
	"github.com/jhoicas/portal-interno/internal/domain"
	"github.com/jhoicas/portal-interno/internal/domain/entity"
)

var _ ports.AdminService = (*Client)(nil)

// ResetPasswordForEmail pide al servicio el email de redefinición de contraseña.
// El servicio responde 200 aunque el email no exista.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		query:  q,
		body:   map[string]string{"email": email},
	}, nil)
	if err != nil {
		if clientError(err) {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrIdentityUnavailable, err)
	}
	return nil
}

type createUserBody struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// CreateUser alta de un colaborador con la service role key.
func (c *Client) CreateUser(ctx context.Context, in ports.CreateUserInput) (*entity.SessionUser, error) {
	if c.cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("supabase: SUPABASE_SERVICE_ROLE_KEY no configurado: %w", domain.ErrForbidden)
	}
	var out userJSON
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/admin/users",
		apiKey: c.cfg.ServiceRoleKey,
		bearer: c.cfg.ServiceRoleKey,
		body: createUserBody{
			Email:        in.Email,
			Password:     in.Password,
			EmailConfirm: true,
			UserMetadata: map[string]any{
				entity.MetadataUsername: in.Username,
				entity.MetadataCargo:    string(in.Cargo),
			},
		},
	}, &out)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok {
			switch {
			case apiErr.Code() == "email_exists" || apiErr.Status == http.StatusConflict:
				return nil, fmt.Errorf("%w: %v", domain.ErrConflict, err)
			case clientError(err):
				return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
			}
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrIdentityUnavailable, err)
	}
	u := out.toEntity()
	return &u, nil
}
