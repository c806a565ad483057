package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baiirun/worktrack/internal/model"
)

// ErrBadToken is returned when a session token fails verification.
var ErrBadToken = errors.New("invalid session token")

type sessionClaims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Signer issues and checks the token stored alongside a persisted session.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner returns a Signer using an HMAC-SHA256 secret.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret must not be empty")
	}
	return &Signer{secret: []byte(secret), now: time.Now}, nil
}

// Issue returns sess with Token set.
func (s *Signer) Issue(sess model.Session) (model.Session, error) {
	claims := sessionClaims{
		Role: sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sess.Username,
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to sign session: %w", err)
	}
	sess.Token = token
	return sess, nil
}

// Verify checks sess.Token and that it was issued for sess.Username and
// sess.Role.
func (s *Signer) Verify(sess model.Session) error {
	if sess.Token == "" {
		return fmt.Errorf("%w: missing token", ErrBadToken)
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(sess.Token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadToken, err)
	}

	if claims.Subject != sess.Username || claims.Role != sess.Role {
		return fmt.Errorf("%w: token does not match session %s/%s", ErrBadToken, sess.Username, sess.Role)
	}
	if !claims.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", ErrBadToken, claims.Role)
	}
	return nil
}
