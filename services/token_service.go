package services

import (
	"errors"
	"fmt"
	"time"

	apperrors "catalog-service/common/errors"

	"github.com/golang-jwt/jwt/v4"
)

// Identity is what a verified access token asserts about its bearer.
type Identity struct {
	Email    string
	SellerID uint
}

// AccessClaims is the JWT payload: sub carries the email, user_id the seller id.
type AccessClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService is responsible for creating and validating JWTs.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenService creates a TokenService signing with secret. Tokens expire
// after ttl.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl == 0 {
		ttl = 60 * time.Minute
	}
	return &TokenService{secretKey: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// IssueToken signs an HS256 access token for the seller.
func (s *TokenService) IssueToken(email string, sellerID uint) (string, error) {
	now := s.now()
	claims := AccessClaims{
		UserID: sellerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, algorithm, expiry and payload shape. Every
// failure is an InvalidCredential error.
func (s *TokenService) VerifyToken(tokenStr string) (*Identity, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.InvalidCredential("Could not validate credentials", err)
	}
	if claims.Subject == "" || claims.UserID == 0 {
		return nil, apperrors.InvalidCredential("Could not validate credentials", errors.New("token payload incomplete"))
	}
	return &Identity{Email: claims.Subject, SellerID: claims.UserID}, nil
}
