package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrSecretMissing se devuelve al firmar sin secret.
var ErrSecretMissing = errors.New("jwt: secret vacío")

// Claims del access token que emite el servicio de identidad (GoTrue).
// UserMetadata lleva username y cargo del colaborador.
type Claims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role"` // rol de Postgres: "authenticated"
	SessionID    string         `json:"session_id,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
}

// Sign firma claims con HS256. Lo usan las pruebas y el servidor de identidad falso.
func Sign(secret string, claims Claims) (string, error) {
	if secret == "" {
		return "", ErrSecretMissing
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// NewClaims arma claims estándar para un usuario con expiración en ttl.
func NewClaims(userID, email string, metadata map[string]any, issuer string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:        email,
		Role:         "authenticated",
		UserMetadata: metadata,
	}
}

// Parse valida firma (si secret no está vacío) y expiración.
// Sin secret el token se decodifica sin verificar la firma: la firma la valida
// el servicio de identidad en cada llamada y aquí solo importa exp.
func Parse(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	var err error
	if secret == "" {
		_, _, err = jwt.NewParser().ParseUnverified(tokenString, claims)
		if err == nil {
			err = checkExpiry(claims)
		}
	} else {
		_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		}, jwt.WithExpirationRequired())
	}
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("jwt: token sin sub")
	}
	return claims, nil
}

// IsExpired informa si el error de Parse se debe solo a la expiración.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

func checkExpiry(c *Claims) error {
	exp, err := c.GetExpirationTime()
	if err != nil {
		return err
	}
	if exp == nil {
		return jwt.ErrTokenRequiredClaimMissing
	}
	if !exp.After(time.Now()) {
		return fmt.Errorf("%w: %w", jwt.ErrTokenInvalidClaims, jwt.ErrTokenExpired)
	}
	return nil
}
