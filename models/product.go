package models

import "time"

// Product is a catalog item. It always belongs to exactly one Seller.
type Product struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	SellerID             uint      `gorm:"not null;index" json:"vendedor_id"`
	Name                 string    `gorm:"type:varchar(255);not null;index" json:"nombre"`
	Price                float64   `gorm:"not null" json:"precio"`
	Description          *string   `gorm:"type:text" json:"descripcion"`
	MarketingDescription *string   `gorm:"type:text" json:"descripcion_marketing"`
	ImageURL             *string   `gorm:"type:text" json:"imagen_url"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CreateProductRequest is the payload for POST /productos/. Image forces a
// caller supplied image instead of a generated one.
type CreateProductRequest struct {
	Name        string   `json:"nombre" binding:"required,min=2,max=255"`
	Price       *float64 `json:"precio" binding:"required,gte=0"`
	Description *string  `json:"descripcion"`
	Image       *string  `json:"imagen"`
}

// ProductPatch is a partial update. Only fields present in the request body
// are applied.
type ProductPatch struct {
	Name                 Optional[string]  `json:"nombre"`
	Price                Optional[float64] `json:"precio"`
	Description          Optional[string]  `json:"descripcion"`
	Image                Optional[string]  `json:"imagen"`
	ImageURL             Optional[string]  `json:"imagen_url"`
	MarketingDescription Optional[string]  `json:"descripcion_marketing"`
}

// RegeneratesContent reports whether applying the patch triggers a fresh
// marketing description: the name changes and no explicit override is given.
func (p ProductPatch) RegeneratesContent() bool {
	return p.Name.Set && !p.MarketingDescription.Set
}

// RegeneratesImage reports whether the image is regenerated along with the
// description.
func (p ProductPatch) RegeneratesImage() bool {
	return p.RegeneratesContent() && !p.Image.Set && !p.ImageURL.Set
}
