package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenKind string

const (
	KindSession TokenKind = "session"
	KindClient  TokenKind = "client"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrWrongKind    = errors.New("unexpected token kind")
)

// Claims carries either a storefront session id or a reporting client grant.
type Claims struct {
	jwt.RegisteredClaims
	Kind      TokenKind `json:"kind"`
	SessionID string    `json:"sid,omitempty"`
	ClientID  string    `json:"clientID,omitempty"`
	Perms     []string  `json:"perms,omitempty"`
}

// HasAll reports whether every required permission was granted.
func (c *Claims) HasAll(required ...string) bool {
	have := make(map[string]struct{}, len(c.Perms))
	for _, p := range c.Perms {
		have[p] = struct{}{}
	}
	for _, r := range required {
		if _, ok := have[r]; !ok {
			return false
		}
	}
	return true
}

// Tokens signs and validates HS256 tokens for one issuer/audience pair.
type Tokens struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
	now      func() time.Time
}

func NewTokens(secret, issuer, audience string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		leeway:   30 * time.Second, // small clock skew
		now:      time.Now,
	}
}

func (t *Tokens) TTL() time.Duration { return t.ttl }

// IssueSession binds a storefront session id to a signed token.
func (t *Tokens) IssueSession(sid string) (string, error) {
	return t.sign(&Claims{Kind: KindSession, SessionID: sid})
}

// IssueClient grants the client's permissions for one TTL.
func (t *Tokens) IssueClient(cl Client) (string, error) {
	return t.sign(&Claims{Kind: KindClient, ClientID: cl.ID, Perms: cl.Perms})
}

// SessionID returns the session id carried by a valid session token.
func (t *Tokens) SessionID(raw string) (string, error) {
	c, err := t.Parse(raw, KindSession)
	if err != nil {
		return "", err
	}
	if c.SessionID == "" {
		return "", ErrInvalidToken
	}
	return c.SessionID, nil
}

func (t *Tokens) Parse(raw string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	},
		jwt.WithLeeway(t.leeway),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, ErrWrongKind
	}
	return claims, nil
}

func (t *Tokens) sign(c *Claims) (string, error) {
	now := t.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    t.issuer,
		Audience:  jwt.ClaimStrings{t.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	if t.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
}
