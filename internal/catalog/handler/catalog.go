package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	VARIANT_CACHE_PREFIX = "catalog:variant:"
	CACHE_TTL_DETAIL     = 5 * time.Minute
)

// CatalogHandler serves the product/variant read API and the composite
// edit transaction. The redis client is optional; when nil the detail
// cache is simply skipped.
type CatalogHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

func NewCatalogHandler(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

// --- Response helpers ---

func (h *CatalogHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (h *CatalogHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// --- Param helpers ---

func parseIDParam(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- Detail cache ---

func variantCacheKey(code string) string {
	return VARIANT_CACHE_PREFIX + strings.ToLower(strings.TrimSpace(code))
}

func (h *CatalogHandler) cachedVariantDetail(ctx context.Context, code string) (json.RawMessage, bool) {
	if h.redis == nil {
		return nil, false
	}
	raw, err := h.redis.Get(ctx, variantCacheKey(code)).Bytes()
	if err != nil {
		return nil, false
	}
	return json.RawMessage(raw), true
}

func (h *CatalogHandler) storeVariantDetail(ctx context.Context, code string, detail interface{}) {
	if h.redis == nil {
		return
	}
	payload, err := json.Marshal(detail)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, variantCacheKey(code), payload, CACHE_TTL_DETAIL).Err(); err != nil {
		h.logger.Warn("failed to cache variant detail", zap.String("code", code), zap.Error(err))
	}
}

func (h *CatalogHandler) invalidateVariantCache(ctx context.Context, codes ...string) {
	if h.redis == nil || len(codes) == 0 {
		return
	}
	keys := make([]string, 0, len(codes))
	for _, code := range codes {
		if strings.TrimSpace(code) == "" {
			continue
		}
		keys = append(keys, variantCacheKey(code))
	}
	if len(keys) == 0 {
		return
	}
	if err := h.redis.Del(ctx, keys...).Err(); err != nil {
		h.logger.Warn("failed to invalidate variant cache", zap.Error(err))
	}
}
