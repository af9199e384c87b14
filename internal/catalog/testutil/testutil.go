package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javiercordova77/colchonesw-app/internal/database"
	"github.com/javiercordova77/colchonesw-app/internal/database/models"
)

const TestSchema = "test_catalog"

// SetupTestDB creates a database connection scoped to a dedicated test
// schema. Each test gets an isolated schema that is dropped afterwards.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	godotenv.Load()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "colchonesw")
	password := getEnv("DB_PASSWORD", "colchonesw")
	dbname := getEnv("DB_NAME", "colchonesw_test")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// search_path in the DSN so every pooled connection uses the test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// DoRequest executes an HTTP request against the test router.
func DoRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a generic map.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// --- Seed helpers ---

func SeedCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}
	return category
}

func SeedSupplier(t *testing.T, db *gorm.DB, name, activity string) *models.Supplier {
	t.Helper()
	supplier := &models.Supplier{Name: name}
	if activity != "" {
		supplier.Activity = &activity
	}
	if err := db.Create(supplier).Error; err != nil {
		t.Fatalf("Failed to seed supplier: %v", err)
	}
	return supplier
}

func SeedLocation(t *testing.T, db *gorm.DB, name string) *models.Location {
	t.Helper()
	location := &models.Location{Name: name}
	if err := db.Create(location).Error; err != nil {
		t.Fatalf("Failed to seed location: %v", err)
	}
	return location
}

func SeedProduct(t *testing.T, db *gorm.DB, description string, categoryID, supplierID *int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Description: description,
		CategoryID:  categoryID,
		SupplierID:  supplierID,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
	return product
}

func SeedVariant(t *testing.T, db *gorm.DB, productID int64, measurement, code, salePrice string) *models.Variant {
	t.Helper()
	variant := &models.Variant{
		ProductID:   productID,
		Measurement: measurement,
		Code:        code,
		SalePrice:   decimal.RequireFromString(salePrice),
		Active:      true,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("Failed to seed variant: %v", err)
	}
	return variant
}

func SeedColor(t *testing.T, db *gorm.DB, variantID int64, color, hexCode string) *models.VariantColor {
	t.Helper()
	row := &models.VariantColor{VariantID: variantID, Color: color}
	if hexCode != "" {
		row.HexCode = &hexCode
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("Failed to seed color: %v", err)
	}
	return row
}

func SeedStock(t *testing.T, db *gorm.DB, variantID, locationID, quantity, minQuantity int64) *models.LocationStock {
	t.Helper()
	stock := &models.LocationStock{
		VariantID:   variantID,
		LocationID:  locationID,
		Quantity:    quantity,
		MinQuantity: minQuantity,
	}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("Failed to seed stock: %v", err)
	}
	return stock
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
