package controllers

import (
	"net/http"
	"strconv"

	apperrors "catalog-service/common/errors"
	"catalog-service/middleware"
	"catalog-service/models"
	"catalog-service/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultSellerLimit = 100
	maxSellerLimit     = 500
)

// SellerController handles the /vendedores routes.
type SellerController struct {
	sellers services.SellerService
	cache   *CacheManager
}

func NewSellerController(sellers services.SellerService, cache *CacheManager) *SellerController {
	useJSONFieldNames()
	return &SellerController{sellers: sellers, cache: cache}
}

// Me handles GET /vendedores/me.
func (sc *SellerController) Me(c *gin.Context) {
	seller, err := middleware.CurrentSeller(c)
	if err != nil {
		_ = c.Error(apperrors.InvalidCredential("Not authenticated", err))
		return
	}
	c.JSON(http.StatusOK, seller)
}

// List handles GET /vendedores/?skip=&limit=.
func (sc *SellerController) List(c *gin.Context) {
	details := map[string]string{}
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		details["skip"] = "must be a non-negative integer"
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSellerLimit)))
	if err != nil || limit < 0 {
		details["limit"] = "must be a non-negative integer"
	}
	if len(details) > 0 {
		_ = c.Error(apperrors.Validation("Invalid request", details))
		return
	}
	if limit > maxSellerLimit {
		limit = maxSellerLimit
	}

	sellers, err := sc.sellers.List(c.Request.Context(), skip, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sellers)
}

// Get handles GET /vendedores/:id.
func (sc *SellerController) Get(c *gin.Context) {
	caller, id, ok := sc.callerAndID(c)
	if !ok {
		return
	}
	seller, err := sc.sellers.Get(c.Request.Context(), caller, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, seller)
}

// Update handles PUT /vendedores/:id.
func (sc *SellerController) Update(c *gin.Context) {
	caller, id, ok := sc.callerAndID(c)
	if !ok {
		return
	}
	var patch models.SellerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	seller, err := sc.sellers.Update(c.Request.Context(), caller, id, patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vendedor actualizado", "vendedor": seller})
}

// Delete handles DELETE /vendedores/:id. The seller's products go with it.
func (sc *SellerController) Delete(c *gin.Context) {
	caller, id, ok := sc.callerAndID(c)
	if !ok {
		return
	}
	if err := sc.sellers.Delete(c.Request.Context(), caller, id); err != nil {
		_ = c.Error(err)
		return
	}
	sc.cache.Invalidate(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"message": "Vendedor eliminado", "id": id})
}

func (sc *SellerController) callerAndID(c *gin.Context) (*models.Seller, uint, bool) {
	caller, err := middleware.CurrentSeller(c)
	if err != nil {
		_ = c.Error(apperrors.InvalidCredential("Not authenticated", err))
		return nil, 0, false
	}
	id, err := parseID(c.Param("id"), "vendedor_id")
	if err != nil {
		_ = c.Error(err)
		return nil, 0, false
	}
	return caller, id, true
}
