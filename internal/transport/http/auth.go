package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"lms-grading-service/internal/domain"
)

var errUnauthorized = errors.New("missing or invalid bearer token")

// Claims is the token payload: the subject's user id and role.
type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator turns HS256 bearer tokens into a domain.Caller.
type Authenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Sign issues a token for caller valid for ttl.
func (a *Authenticator) Sign(caller domain.Caller, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		UserID: caller.UserID,
		Role:   string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   fmt.Sprint(caller.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Caller authenticates r. Browsers cannot set headers on websocket handshakes,
// so the token may also arrive as the access_token query parameter.
func (a *Authenticator) Caller(r *http.Request) (domain.Caller, error) {
	raw := r.URL.Query().Get("access_token")
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return domain.Caller{}, errUnauthorized
		}
		raw = strings.TrimPrefix(header, "Bearer ")
	}
	if raw == "" {
		return domain.Caller{}, errUnauthorized
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Caller{}, errUnauthorized
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return domain.Caller{}, errUnauthorized
	}
	if claims.UserID <= 0 {
		return domain.Caller{}, errUnauthorized
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Caller{}, errUnauthorized
	}
	return domain.Caller{UserID: claims.UserID, Role: role}, nil
}
