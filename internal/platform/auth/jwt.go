package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired signals that the provided token has expired.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid signals that the provided token failed verification.
	ErrTokenInvalid = errors.New("auth: token invalid")
)

const defaultLeeway = 30 * time.Second

// Claims is the JWT payload issued by the identity service.
type Claims struct {
	Role       string `json:"role"`
	Email      string `json:"email,omitempty"`
	SupplierID int64  `json:"supplierId,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256-signed bearer tokens against a shared secret.
type JWTVerifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

// VerifierOption customises JWTVerifier behaviour.
type VerifierOption func(*JWTVerifier)

// WithIssuer requires the iss claim to match.
func WithIssuer(issuer string) VerifierOption {
	return func(v *JWTVerifier) {
		v.issuer = strings.TrimSpace(issuer)
	}
}

// WithAudience requires the aud claim to contain the value.
func WithAudience(audience string) VerifierOption {
	return func(v *JWTVerifier) {
		v.audience = strings.TrimSpace(audience)
	}
}

// WithLeeway widens the validity window to tolerate clock skew.
func WithLeeway(leeway time.Duration) VerifierOption {
	return func(v *JWTVerifier) {
		if leeway > 0 {
			v.leeway = leeway
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *JWTVerifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewJWTVerifier constructs a verifier for the given shared secret.
func NewJWTVerifier(secret string, opts ...VerifierOption) (*JWTVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	verifier := &JWTVerifier{
		secret: []byte(secret),
		leeway: defaultLeeway,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(verifier)
		}
	}
	return verifier, nil
}

// Verify parses and validates a raw token, returning the identity it encodes.
func (v *JWTVerifier) Verify(rawToken string) (Identity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return Identity{}, ErrTokenInvalid
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	_, err := parser.ParseWithClaims(rawToken, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return Identity{}, fmt.Errorf("%w: unexpected issuer", ErrTokenInvalid)
	}
	if v.audience != "" && !containsAudience(claims.Audience, v.audience) {
		return Identity{}, fmt.Errorf("%w: unexpected audience", ErrTokenInvalid)
	}

	role := strings.ToLower(strings.TrimSpace(claims.Role))
	switch role {
	case RoleOperator:
	case RoleSupplier:
		if claims.SupplierID <= 0 {
			return Identity{}, fmt.Errorf("%w: supplier token missing supplier id", ErrTokenInvalid)
		}
	default:
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return Identity{
		Subject:    subject,
		Role:       role,
		Email:      strings.TrimSpace(claims.Email),
		SupplierID: claims.SupplierID,
	}, nil
}

func containsAudience(audience jwt.ClaimStrings, expected string) bool {
	for _, aud := range audience {
		if aud == expected {
			return true
		}
	}
	return false
}
