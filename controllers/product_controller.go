package controllers

import (
	"net/http"
	"os"
	"strings"

	apperrors "catalog-service/common/errors"
	"catalog-service/middleware"
	"catalog-service/models"
	"catalog-service/services"
	"catalog-service/storage"

	"github.com/gin-gonic/gin"
)

// ProductController handles the owner-scoped /productos routes.
type ProductController struct {
	products services.ProductService
	cache    *CacheManager
	mediaDir string
}

func NewProductController(products services.ProductService, cache *CacheManager, mediaDir string) *ProductController {
	useJSONFieldNames()
	return &ProductController{products: products, cache: cache, mediaDir: mediaDir}
}

// List handles GET /productos/. With ?id= it returns at most that product.
func (pc *ProductController) List(c *gin.Context) {
	seller, ok := currentSeller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if raw, present := c.GetQuery("id"); present {
		id, err := parseID(raw, "id")
		if err != nil {
			_ = c.Error(err)
			return
		}
		product, err := pc.get(c, seller.ID, id)
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				c.JSON(http.StatusOK, []models.Product{})
				return
			}
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, []models.Product{*product})
		return
	}

	cached, version, hit := pc.cache.GetProductList(ctx, seller.ID)
	if hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	products, err := pc.products.List(ctx, seller.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	pc.cache.SetProductListAsync(seller.ID, version, products)
	c.JSON(http.StatusOK, products)
}

// Get handles GET /productos/:id.
func (pc *ProductController) Get(c *gin.Context) {
	seller, ok := currentSeller(c)
	if !ok {
		return
	}
	id, err := parseID(c.Param("id"), "producto_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	product, err := pc.get(c, seller.ID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Create handles POST /productos/.
func (pc *ProductController) Create(c *gin.Context) {
	seller, ok := currentSeller(c)
	if !ok {
		return
	}
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	product, err := pc.products.Create(c.Request.Context(), seller.ID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	pc.cache.Invalidate(c.Request.Context(), seller.ID)
	c.JSON(http.StatusCreated, product)
}

// Update handles PUT /productos/:id.
func (pc *ProductController) Update(c *gin.Context) {
	seller, ok := currentSeller(c)
	if !ok {
		return
	}
	id, err := parseID(c.Param("id"), "producto_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var patch models.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	product, err := pc.products.Update(c.Request.Context(), seller.ID, id, patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	pc.cache.Invalidate(c.Request.Context(), seller.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Producto actualizado", "producto": product})
}

// Delete handles DELETE /productos/:id.
func (pc *ProductController) Delete(c *gin.Context) {
	seller, ok := currentSeller(c)
	if !ok {
		return
	}
	id, err := parseID(c.Param("id"), "producto_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := pc.products.Delete(c.Request.Context(), seller.ID, id); err != nil {
		_ = c.Error(err)
		return
	}
	pc.cache.Invalidate(c.Request.Context(), seller.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Producto eliminado", "id": id})
}

// Image handles GET /productos/:id/imagen. Remote images redirect, local
// media is streamed, anything else is not found.
func (pc *ProductController) Image(c *gin.Context) {
	seller, ok := currentSeller(c)
	if !ok {
		return
	}
	id, err := parseID(c.Param("id"), "producto_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	product, err := pc.products.Get(c.Request.Context(), seller.ID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if product.ImageURL == nil || *product.ImageURL == "" {
		_ = c.Error(apperrors.NotFound("Imagen no disponible"))
		return
	}

	ref := *product.ImageURL
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		c.Redirect(http.StatusTemporaryRedirect, ref)
	case strings.HasPrefix(ref, storage.MediaPrefix):
		path, ok := storage.ResolveLocal(pc.mediaDir, ref)
		if !ok {
			_ = c.Error(apperrors.NotFound("Imagen no disponible"))
			return
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			_ = c.Error(apperrors.NotFound("Archivo no encontrado"))
			return
		}
		c.Header("Content-Type", "image/png")
		c.File(path)
	default:
		_ = c.Error(apperrors.NotFound("Imagen no disponible"))
	}
}

// get reads through the product cache.
func (pc *ProductController) get(c *gin.Context, sellerID, id uint) (*models.Product, error) {
	ctx := c.Request.Context()
	cached, version, hit := pc.cache.GetProduct(ctx, sellerID, id)
	if hit {
		return cached, nil
	}

	product, err := pc.products.Get(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	pc.cache.SetProductAsync(sellerID, version, product)
	return product, nil
}

func currentSeller(c *gin.Context) (*models.Seller, bool) {
	seller, err := middleware.CurrentSeller(c)
	if err != nil {
		_ = c.Error(apperrors.InvalidCredential("Not authenticated", err))
		return nil, false
	}
	return seller, true
}
