package auth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Payload is what a signed token carries.
type Payload struct {
	Username string
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Sign(p Payload) (string, error)
}

// TokenVerifier checks bearer tokens presented on later requests.
type TokenVerifier interface {
	Verify(token string) (*Payload, error)
}

var ErrInvalidToken = errors.New("invalid token")

type TokenConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// TokenConfigFromEnv reads JWT_SECRET, JWT_EXPIRES_IN (seconds) and JWT_ISSUER.
func TokenConfigFromEnv() TokenConfig {
	ttl := 3600 * time.Second
	if v, err := strconv.Atoi(os.Getenv("JWT_EXPIRES_IN")); err == nil && v > 0 {
		ttl = time.Duration(v) * time.Second
	}
	iss := os.Getenv("JWT_ISSUER")
	if iss == "" {
		iss = "pitchfork-task"
	}
	return TokenConfig{Secret: os.Getenv("JWT_SECRET"), TTL: ttl, Issuer: iss}
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTIssuer issues and verifies HS256 JWTs.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewJWTIssuer(cfg TokenConfig) (*JWTIssuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &JWTIssuer{secret: []byte(cfg.Secret), ttl: cfg.TTL, issuer: cfg.Issuer, now: time.Now}, nil
}

func (j *JWTIssuer) Sign(p Payload) (string, error) {
	now := j.now()
	c := claims{
		Username: p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   p.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (j *JWTIssuer) Verify(token string) (*Payload, error) {
	var c claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	tkn, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if c.Username == "" {
		return nil, ErrInvalidToken
	}
	return &Payload{Username: c.Username}, nil
}
