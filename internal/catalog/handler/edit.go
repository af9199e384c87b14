package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/javiercordova77/colchonesw-app/internal/database/models"
)

type colorEdit struct {
	Color   string  `json:"color"`
	HexCode *string `json:"hexCode"`
}

type variantEdit struct {
	ID            int64           `json:"id"`
	Measurement   string          `json:"measurement"`
	Code          string          `json:"code"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	IntakeDate    *string         `json:"intakeDate"`
	Active        *bool           `json:"active"`
	Colors        []colorEdit     `json:"colors"`
}

type productEdit struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Material    string `json:"material"`
	Image       string `json:"image"`
	CategoryID  int64  `json:"categoryId"`
	SupplierID  int64  `json:"supplierId"`
}

// Variants is a pointer so that a missing or non-array field is
// distinguishable from an empty list and rejected up front.
type editRequest struct {
	Product  productEdit    `json:"product"`
	Variants *[]variantEdit `json:"variants"`
}

func nullIfEmpty(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nullIfZero(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func normalizeDate(date *string) *string {
	if date == nil {
		return nil
	}
	return nullIfEmpty(*date)
}

// UpdateProduct applies a composite product edit as one all-or-nothing
// transaction: product fields first, then each submitted variant strictly
// in array order (id 0 inserts, otherwise update scoped to this product),
// with each updated variant's colors replaced wholesale. There is no
// version check; concurrent edits resolve as last write wins.
// PUT /api/v1/products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.error(c, http.StatusBadRequest, "invalid product id")
		return
	}

	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Variants == nil {
		h.error(c, http.StatusBadRequest, "variants must be an array")
		return
	}
	if req.Product.ID != id {
		h.error(c, http.StatusBadRequest, "product id mismatch between path and body")
		return
	}

	tx := h.db.Begin()
	if tx.Error != nil {
		h.logger.Error("failed to begin transaction", zap.Error(tx.Error))
		h.error(c, http.StatusInternalServerError, "error saving product")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	// Codes whose cached detail must be dropped after commit. Collected up
	// front because an update may change a variant's code.
	var staleCodes []string
	if err := tx.Model(&models.Variant{}).Where("product_id = ?", id).
		Pluck("code", &staleCodes).Error; err != nil {
		tx.Rollback()
		h.logger.Error("failed to read variant codes", zap.Int64("productId", id), zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error saving product")
		return
	}

	productUpdates := map[string]interface{}{
		"description": strings.TrimSpace(req.Product.Description),
		"material":    nullIfEmpty(req.Product.Material),
		"image":       nullIfEmpty(req.Product.Image),
		"category_id": nullIfZero(req.Product.CategoryID),
		"supplier_id": nullIfZero(req.Product.SupplierID),
	}
	if err := tx.Model(&models.Product{}).Where("id = ?", id).
		Updates(productUpdates).Error; err != nil {
		tx.Rollback()
		h.logger.Error("product update failed", zap.Int64("id", id), zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error updating product")
		return
	}

	for _, v := range *req.Variants {
		code := strings.TrimSpace(v.Code)
		staleCodes = append(staleCodes, code)

		if v.ID == 0 {
			variant := models.Variant{
				ProductID:     id,
				Measurement:   strings.TrimSpace(v.Measurement),
				Code:          code,
				SalePrice:     v.SalePrice,
				PurchasePrice: v.PurchasePrice,
				IntakeDate:    normalizeDate(v.IntakeDate),
				Active:        v.Active == nil || *v.Active,
			}
			if err := tx.Create(&variant).Error; err != nil {
				tx.Rollback()
				h.logger.Error("variant insert failed", zap.String("code", code), zap.Error(err))
				h.error(c, http.StatusInternalServerError, "error inserting variant")
				return
			}
			if err := insertColors(tx, variant.ID, v.Colors); err != nil {
				tx.Rollback()
				h.logger.Error("color insert failed", zap.Int64("variantId", variant.ID), zap.Error(err))
				h.error(c, http.StatusInternalServerError, "error inserting variant colors")
				return
			}
			continue
		}

		variantUpdates := map[string]interface{}{
			"measurement":    strings.TrimSpace(v.Measurement),
			"code":           code,
			"sale_price":     v.SalePrice,
			"purchase_price": v.PurchasePrice,
			"intake_date":    normalizeDate(v.IntakeDate),
		}
		if v.Active != nil {
			variantUpdates["active"] = *v.Active
		}
		// Scoping the update to product_id guards against a variant id that
		// belongs to a different product.
		if err := tx.Model(&models.Variant{}).
			Where("id = ? AND product_id = ?", v.ID, id).
			Updates(variantUpdates).Error; err != nil {
			tx.Rollback()
			h.logger.Error("variant update failed", zap.Int64("variantId", v.ID), zap.Error(err))
			h.error(c, http.StatusInternalServerError, "error updating variant")
			return
		}

		// Full replace, not a merge: color row ids are not preserved.
		if err := tx.Where("variant_id = ?", v.ID).
			Delete(&models.VariantColor{}).Error; err != nil {
			tx.Rollback()
			h.logger.Error("color delete failed", zap.Int64("variantId", v.ID), zap.Error(err))
			h.error(c, http.StatusInternalServerError, "error replacing variant colors")
			return
		}
		if err := insertColors(tx, v.ID, v.Colors); err != nil {
			tx.Rollback()
			h.logger.Error("color insert failed", zap.Int64("variantId", v.ID), zap.Error(err))
			h.error(c, http.StatusInternalServerError, "error replacing variant colors")
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		h.logger.Error("commit failed", zap.Int64("productId", id), zap.Error(err))
		h.error(c, http.StatusInternalServerError, "error saving product")
		return
	}

	h.invalidateVariantCache(c.Request.Context(), staleCodes...)
	h.success(c, gin.H{"ok": true})
}

// insertColors bulk-inserts the submitted colors for one variant, skipping
// entries whose name is empty after trimming.
func insertColors(tx *gorm.DB, variantID int64, colors []colorEdit) error {
	rows := make([]models.VariantColor, 0, len(colors))
	for _, ce := range colors {
		name := strings.TrimSpace(ce.Color)
		if name == "" {
			continue
		}
		rows = append(rows, models.VariantColor{
			VariantID: variantID,
			Color:     name,
			HexCode:   ce.HexCode,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}
