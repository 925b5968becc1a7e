package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID        uuid.UUID
	WalletAddress string
	JTI           string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID        uuid.UUID `json:"user_id"`
	WalletAddress string    `json:"wallet_address"`
	jwt.RegisteredClaims
}
