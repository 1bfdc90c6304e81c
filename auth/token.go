package auth

import (
	"errors"
	"time"

	"github.com/braianruaimi/YAvoyOk-sub002/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failures are distinct so the audit trail can tell them
// apart; HTTP callers only ever see a generic 401.
var (
	ErrExpired          = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrWrongTokenUse    = errors.New("wrong token use")
	ErrUnknownRole      = errors.New("token carries unknown role")
	ErrRevoked          = errors.New("token revoked")
)

const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

// Principal is the authenticated identity extracted from a verified token.
type Principal struct {
	ID       uint
	Email    string
	Role     models.Role
	IssuedAt time.Time
	TokenID  string
}

type Claims struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// Codec signs and verifies bearer tokens. Stateless apart from the
// optional denylist consulted at verify time.
type Codec struct {
	secret   []byte
	denylist *Denylist
}

func NewCodec(secret []byte, denylist *Denylist) *Codec {
	return &Codec{secret: secret, denylist: denylist}
}

// Issue creates a signed token embedding the user's identity and role.
func (c *Codec) Issue(user *models.User, use string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     string(user.Role),
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks signature and expiry, normalizes the role and consults
// the denylist. Expiry is checked before the denylist so a revoked but
// expired token still reports ErrExpired.
func (c *Codec) Verify(tokenStr, use string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrExpired
		}
		return Principal{}, ErrInvalidSignature
	}
	if !token.Valid {
		return Principal{}, ErrInvalidSignature
	}
	if claims.TokenUse != use {
		return Principal{}, ErrWrongTokenUse
	}
	role, err := models.NormalizeRole(claims.Role)
	if err != nil {
		return Principal{}, ErrUnknownRole
	}
	if c.denylist != nil && c.denylist.Contains(claims.ID) {
		return Principal{}, ErrRevoked
	}

	p := Principal{
		ID:      claims.UserID,
		Email:   claims.Email,
		Role:    role,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	return p, nil
}

// Revoke denylists a verified token until its natural expiry.
func (c *Codec) Revoke(p Principal, ttl time.Duration) {
	if c.denylist != nil && p.TokenID != "" {
		c.denylist.Add(p.TokenID, ttl)
	}
}
