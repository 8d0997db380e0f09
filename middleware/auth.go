package middleware

import (
	"context"
	"errors"
	"strings"

	apperrors "catalog-service/common/errors"
	"catalog-service/models"
	"catalog-service/services"

	"github.com/gin-gonic/gin"
)

const SellerContextKey = "seller"

// Authenticator resolves a bearer token to the seller it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Seller, error)
}

var _ Authenticator = services.SellerService(nil)

// AuthMiddleware requires an "Authorization: Bearer <token>" header and
// stores the authenticated seller on the context.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			_ = c.Error(apperrors.InvalidCredential("Not authenticated", nil))
			c.Abort()
			return
		}

		seller, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(SellerContextKey, seller)
		c.Next()
	}
}

// CurrentSeller returns the seller stored by AuthMiddleware.
func CurrentSeller(c *gin.Context) (*models.Seller, error) {
	if val, ok := c.Get(SellerContextKey); ok {
		if seller, ok := val.(*models.Seller); ok && seller != nil {
			return seller, nil
		}
	}
	return nil, errors.New("seller not found in context")
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
