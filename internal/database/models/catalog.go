package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry (one mattress model). Sellable configurations
// live in Variant rows owned by the product.
type Product struct {
	ID          int64   `gorm:"primaryKey" json:"id"`
	Description string  `gorm:"size:255;not null" json:"description"`
	Material    *string `gorm:"size:255" json:"material"`
	Image       *string `gorm:"size:255" json:"image"`
	CategoryID  *int64  `json:"categoryId"`
	SupplierID  *int64  `json:"supplierId"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Variants []Variant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

// Variant is one size of a product. Code is the business identifier printed
// on QR labels, unique across the whole catalog.
type Variant struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	ProductID     int64           `gorm:"not null;index" json:"productId"`
	Measurement   string          `gorm:"size:100" json:"measurement"`
	Code          string          `gorm:"size:100;uniqueIndex" json:"code"`
	SalePrice     decimal.Decimal `gorm:"type:numeric(12,2)" json:"salePrice"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(12,2)" json:"purchasePrice"`
	IntakeDate    *string         `gorm:"size:30" json:"intakeDate"`
	Active        bool            `gorm:"default:true" json:"active"`

	Colors []VariantColor  `gorm:"foreignKey:VariantID" json:"colors"`
	Stocks []LocationStock `gorm:"foreignKey:VariantID" json:"stocks,omitempty"`
}

// VariantColor rows are replaced wholesale every time their variant is
// saved, so their ids are not stable across edits.
type VariantColor struct {
	ID        int64   `gorm:"primaryKey" json:"id"`
	VariantID int64   `gorm:"not null;index" json:"variantId"`
	Color     string  `gorm:"size:100;not null" json:"color"`
	HexCode   *string `gorm:"size:20" json:"hexCode"`
}

type Category struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}

type Supplier struct {
	ID       int64   `gorm:"primaryKey" json:"id"`
	Name     string  `gorm:"size:255;not null" json:"name"`
	Activity *string `gorm:"size:255" json:"activity"`
}

type Location struct {
	ID          int64   `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;not null" json:"name"`
	Description *string `gorm:"size:255" json:"description"`
}

// LocationStock is the quantity on hand for one variant at one location.
type LocationStock struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	VariantID   int64     `gorm:"not null;index:idx_location_stocks_variant_location,unique" json:"variantId"`
	LocationID  int64     `gorm:"not null;index:idx_location_stocks_variant_location,unique" json:"locationId"`
	Quantity    int64     `gorm:"not null;default:0" json:"quantity"`
	MinQuantity int64     `gorm:"not null;default:0" json:"minQuantity"`
	IntakeDate  *string   `gorm:"size:30" json:"intakeDate"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Location *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
}

// VariantStockTotal maps the variant_stock_totals SQL view, the precomputed
// per-variant aggregate consulted by the listing endpoints.
type VariantStockTotal struct {
	VariantID        int64 `json:"variantId"`
	TotalQuantity    int64 `json:"totalQuantity"`
	TotalMinQuantity int64 `json:"totalMinQuantity"`
}

func (VariantStockTotal) TableName() string {
	return "variant_stock_totals"
}
