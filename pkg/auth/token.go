package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mintmotion/mintmotion-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues a signed JWT for the provided payload using the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}
	if payload.UserID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	wallet := strings.ToLower(strings.TrimSpace(payload.WalletAddress))
	if wallet == "" {
		return "", fmt.Errorf("wallet address is required")
	}

	issuedAt := jwt.NewNumericDate(now)
	expiry := jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute))

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AccessTokenClaims{
		UserID:        payload.UserID,
		WalletAddress: wallet,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  issuedAt,
			ExpiresAt: expiry,
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}
