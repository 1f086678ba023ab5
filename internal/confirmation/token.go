package confirmation

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "menu-advisor"

type challengeClaims struct {
	Type Type `json:"typ"`
	jwt.RegisteredClaims
}

func (g *gate) signToken(subject string, t Type, issuedAt, expiresAt time.Time) (string, error) {
	claims := challengeClaims{
		Type: t,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

func (g *gate) parseToken(token string) (string, Type, error) {
	if token == "" {
		return "", "", errors.New("empty token")
	}

	parsed, err := jwt.ParseWithClaims(token, &challengeClaims{}, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return "", "", err
	}

	claims, ok := parsed.Claims.(*challengeClaims)
	if !ok || !parsed.Valid || claims.Subject == "" || !claims.Type.Valid() {
		return "", "", errors.New("invalid token claims")
	}

	return claims.Subject, claims.Type, nil
}
