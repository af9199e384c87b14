package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/javiercordova77/colchonesw-app/internal/database/models"
)

// --- Listing row shapes ---

type variantRow struct {
	VariantID   int64           `json:"variantId"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Image       *string         `json:"image"`
	Category    *string         `json:"category"`
	Measurement string          `json:"measurement"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	TotalStock  int64           `json:"totalStock"`
}

type productSummaryRow struct {
	ProductID    int64   `json:"productId"`
	Description  string  `json:"description"`
	Material     *string `json:"material"`
	Image        *string `json:"image"`
	Category     *string `json:"category"`
	VariantCount int64   `json:"variantCount"`
	TotalStock   int64   `json:"totalStock"`
}

type productVariantRow struct {
	VariantID   int64           `json:"variantId"`
	Code        string          `json:"code"`
	Measurement string          `json:"measurement"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	Active      bool            `json:"active"`
	TotalStock  int64           `json:"totalStock"`
	TotalMin    int64           `json:"totalMin"`
}

// --- Detail shapes ---

type supplierInfo struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Activity *string `json:"activity"`
}

type colorInfo struct {
	Color   string  `json:"color"`
	HexCode *string `json:"hexCode"`
}

type stockLocationRow struct {
	LocationID  int64  `json:"locationId"`
	Location    string `json:"location"`
	Quantity    int64  `json:"quantity"`
	MinQuantity int64  `json:"minQuantity"`
}

type stockInfo struct {
	Total     int64              `json:"total"`
	TotalMin  int64              `json:"totalMin"`
	Locations []stockLocationRow `json:"locations"`
}

type variantDetail struct {
	ProductID     int64           `json:"productId"`
	VariantID     int64           `json:"variantId"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	Material      *string         `json:"material"`
	Image         *string         `json:"image"`
	Category      *string         `json:"category"`
	Measurement   string          `json:"measurement"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	IntakeDate    *string         `json:"intakeDate"`
	Active        bool            `json:"active"`
	Supplier      *supplierInfo   `json:"supplier"`
	Colors        []colorInfo     `json:"colors"`
	Stock         stockInfo       `json:"stock"`
}

type editBundle struct {
	Product  models.Product   `json:"product"`
	Variants []models.Variant `json:"variants"`
	Lookups  editLookups      `json:"lookups"`
}

type editLookups struct {
	Categories []models.Category `json:"categories"`
	Suppliers  []models.Supplier `json:"suppliers"`
}

// ListVariants returns the flattened variant listing, optionally filtered
// by free text over description/code/measurement and sorted by a
// whitelisted key. GET /api/v1/products?q=&sort=
func (h *CatalogHandler) ListVariants(c *gin.Context) {
	query := h.db.Table("variants v").
		Select(`v.id AS variant_id, v.code, p.description, p.image, cat.name AS category,
			v.measurement, v.sale_price, COALESCE(t.total_quantity, 0) AS total_stock`).
		Joins("JOIN products p ON p.id = v.product_id").
		Joins("LEFT JOIN categories cat ON cat.id = p.category_id").
		Joins("LEFT JOIN variant_stock_totals t ON t.variant_id = v.id")

	if clause, params := buildSearchFilter(c.Query("q"), "p.description", "v.code", "v.measurement"); clause != "" {
		query = query.Where(clause, params...)
	}

	rows := make([]variantRow, 0)
	if err := query.Order(orderByClause(variantListSorts, c.Query("sort"), "name_asc")).
		Scan(&rows).Error; err != nil {
		h.logger.Error("variant listing query failed", zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error querying product listing")
		return
	}

	h.success(c, rows)
}

// ListProductSummary returns one row per product with stock summed across
// all variants and locations. Filtering searches description/material only.
// GET /api/v1/products/summary?q=&sort=
func (h *CatalogHandler) ListProductSummary(c *gin.Context) {
	query := h.db.Table("products p").
		Select(`p.id AS product_id, p.description, p.material, p.image, cat.name AS category,
			COUNT(DISTINCT v.id) AS variant_count, COALESCE(SUM(t.total_quantity), 0) AS total_stock`).
		Joins("LEFT JOIN categories cat ON cat.id = p.category_id").
		Joins("LEFT JOIN variants v ON v.product_id = p.id").
		Joins("LEFT JOIN variant_stock_totals t ON t.variant_id = v.id").
		Group("p.id, p.description, p.material, p.image, cat.name")

	if clause, params := buildSearchFilter(c.Query("q"), "p.description", "p.material"); clause != "" {
		query = query.Where(clause, params...)
	}

	rows := make([]productSummaryRow, 0)
	if err := query.Order(orderByClause(productSummarySorts, c.Query("sort"), "name_asc")).
		Scan(&rows).Error; err != nil {
		h.logger.Error("product summary query failed", zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error querying product summary")
		return
	}

	h.success(c, rows)
}

// GetProduct returns the bare product record.
// GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.error(c, http.StatusBadRequest, "invalid product id")
		return
	}

	var product models.Product
	if err := h.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.error(c, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("product fetch failed", zap.Int64("id", id), zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error querying product")
		return
	}

	h.success(c, product)
}

// GetVariantByCode assembles the full variant detail: product/category/
// supplier join, colors ordered by insertion, and the per-location stock
// breakdown with totals. A failure in any of the three fetches aborts the
// whole response; partial data is never returned.
// GET /api/v1/products/code/:code
func (h *CatalogHandler) GetVariantByCode(c *gin.Context) {
	code := c.Param("code")
	ctx := c.Request.Context()

	if cached, ok := h.cachedVariantDetail(ctx, code); ok {
		h.success(c, cached)
		return
	}

	var row struct {
		VariantID        int64
		ProductID        int64
		Code             string
		Description      string
		Material         *string
		Image            *string
		Category         *string
		Measurement      string
		SalePrice        decimal.Decimal
		PurchasePrice    decimal.Decimal
		IntakeDate       *string
		Active           bool
		SupplierID       *int64
		SupplierName     *string
		SupplierActivity *string
	}

	err := h.db.Table("variants v").
		Select(`v.id AS variant_id, v.product_id, v.code, p.description, p.material, p.image,
			cat.name AS category, v.measurement, v.sale_price, v.purchase_price,
			v.intake_date, v.active,
			s.id AS supplier_id, s.name AS supplier_name, s.activity AS supplier_activity`).
		Joins("JOIN products p ON p.id = v.product_id").
		Joins("LEFT JOIN categories cat ON cat.id = p.category_id").
		Joins("LEFT JOIN suppliers s ON s.id = p.supplier_id").
		Where("v.code = ?", code).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.error(c, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("variant detail query failed", zap.String("code", code), zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error querying product detail")
		return
	}

	var colors []models.VariantColor
	if err := h.db.Where("variant_id = ?", row.VariantID).Order("id").Find(&colors).Error; err != nil {
		h.logger.Error("variant colors query failed", zap.Int64("variantId", row.VariantID), zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error querying product colors")
		return
	}

	locations := make([]stockLocationRow, 0)
	if err := h.db.Table("location_stocks ls").
		Select("ls.location_id, l.name AS location, ls.quantity, ls.min_quantity").
		Joins("JOIN locations l ON l.id = ls.location_id").
		Where("ls.variant_id = ?", row.VariantID).
		Order("l.name").
		Scan(&locations).Error; err != nil {
		h.logger.Error("variant stock query failed", zap.Int64("variantId", row.VariantID), zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error querying product stock")
		return
	}

	stock := stockInfo{Locations: locations}
	for _, loc := range locations {
		stock.Total += loc.Quantity
		stock.TotalMin += loc.MinQuantity
	}

	detail := variantDetail{
		ProductID:     row.ProductID,
		VariantID:     row.VariantID,
		Code:          row.Code,
		Description:   row.Description,
		Material:      row.Material,
		Image:         row.Image,
		Category:      row.Category,
		Measurement:   row.Measurement,
		SalePrice:     row.SalePrice,
		PurchasePrice: row.PurchasePrice,
		IntakeDate:    row.IntakeDate,
		Active:        row.Active,
		Colors:        make([]colorInfo, 0, len(colors)),
		Stock:         stock,
	}
	if row.SupplierID != nil && row.SupplierName != nil {
		detail.Supplier = &supplierInfo{
			ID:       *row.SupplierID,
			Name:     *row.SupplierName,
			Activity: row.SupplierActivity,
		}
	}
	for _, color := range colors {
		detail.Colors = append(detail.Colors, colorInfo{Color: color.Color, HexCode: color.HexCode})
	}

	h.storeVariantDetail(ctx, code, detail)
	h.success(c, detail)
}

// ListProductVariants lists the variants of one product with their stock
// totals, keyed on measurement/code for search and sorting.
// GET /api/v1/products/:id/variants/summary?q=&sort=
func (h *CatalogHandler) ListProductVariants(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.error(c, http.StatusBadRequest, "invalid product id")
		return
	}

	query := h.db.Table("variants v").
		Select(`v.id AS variant_id, v.code, v.measurement, v.sale_price, v.active,
			COALESCE(t.total_quantity, 0) AS total_stock,
			COALESCE(t.total_min_quantity, 0) AS total_min`).
		Joins("LEFT JOIN variant_stock_totals t ON t.variant_id = v.id").
		Where("v.product_id = ?", id)

	if clause, params := buildSearchFilter(c.Query("q"), "v.measurement", "v.code"); clause != "" {
		query = query.Where(clause, params...)
	}

	rows := make([]productVariantRow, 0)
	if err := query.Order(orderByClause(productVariantSorts, c.Query("sort"), "size_asc")).
		Scan(&rows).Error; err != nil {
		h.logger.Error("product variants query failed", zap.Int64("productId", id), zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error querying product variants")
		return
	}

	h.success(c, rows)
}

// GetEditBundle returns everything the edit form needs in one payload: the
// product, its variants with colors, and the category/supplier lookup
// lists. The colors fetch is skipped entirely when the product has no
// variants.
// GET /api/v1/products/:id/edit
func (h *CatalogHandler) GetEditBundle(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.error(c, http.StatusBadRequest, "invalid product id")
		return
	}

	var product models.Product
	if err := h.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.error(c, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("product fetch failed", zap.Int64("id", id), zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error querying product")
		return
	}

	variants := make([]models.Variant, 0)
	if err := h.db.Where("product_id = ?", id).Order("id").Find(&variants).Error; err != nil {
		h.logger.Error("variants fetch failed", zap.Int64("productId", id), zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error querying variants")
		return
	}

	if len(variants) > 0 {
		ids := make([]int64, len(variants))
		byVariant := make(map[int64][]models.VariantColor, len(variants))
		for i, v := range variants {
			ids[i] = v.ID
		}

		var colors []models.VariantColor
		if err := h.db.Where("variant_id IN ?", ids).Order("id").Find(&colors).Error; err != nil {
			h.logger.Error("variant colors fetch failed", zap.Int64("productId", id), zap.Error(err))
			h.error(c, http.StatusInternalServerError, "error querying variant colors")
			return
		}
		for _, color := range colors {
			byVariant[color.VariantID] = append(byVariant[color.VariantID], color)
		}
		for i := range variants {
			if rows, ok := byVariant[variants[i].ID]; ok {
				variants[i].Colors = rows
			} else {
				variants[i].Colors = make([]models.VariantColor, 0)
			}
		}
	}

	categories := make([]models.Category, 0)
	if err := h.db.Order("name").Find(&categories).Error; err != nil {
		h.logger.Error("categories fetch failed", zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error querying categories")
		return
	}

	suppliers := make([]models.Supplier, 0)
	if err := h.db.Order("name").Find(&suppliers).Error; err != nil {
		h.logger.Error("suppliers fetch failed", zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error querying suppliers")
		return
	}

	h.success(c, editBundle{
		Product:  product,
		Variants: variants,
		Lookups:  editLookups{Categories: categories, Suppliers: suppliers},
	})
}
