package handler

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/javiercordova77/colchonesw-app/internal/catalog/testutil"
	"github.com/javiercordova77/colchonesw-app/internal/database/models"
)

func setupCatalogTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	h := NewCatalogHandler(db, nil, zap.NewNop())

	products := router.Group("/api/v1").Group("/products")
	products.GET("", h.ListVariants)
	products.GET("/summary", h.ListProductSummary)
	products.GET("/code/:code", h.GetVariantByCode)
	products.GET("/:id", h.GetProduct)
	products.GET("/:id/variants/summary", h.ListProductVariants)
	products.GET("/:id/edit", h.GetEditBundle)
	products.PUT("/:id", h.UpdateProduct)

	return db, router
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func listData(t *testing.T, router *gin.Engine, path string) []map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(router, "GET", path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d: %s", path, w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	raw, ok := resp["data"].([]interface{})
	if !ok {
		t.Fatalf("GET %s: data is not an array: %v", path, resp["data"])
	}
	rows := make([]map[string]interface{}, len(raw))
	for i, r := range raw {
		rows[i] = r.(map[string]interface{})
	}
	return rows
}

func seedCatalog(t *testing.T, db *gorm.DB) (productID, otherProductID int64) {
	t.Helper()
	category := testutil.SeedCategory(t, db, "Colchones")
	supplier := testutil.SeedSupplier(t, db, "Espumas del Sur", "fabricante")

	mattress := testutil.SeedProduct(t, db, "Colchon Imperial", &category.ID, &supplier.ID)
	pillow := testutil.SeedProduct(t, db, "Almohada Viscoelastica", &category.ID, nil)

	queen := testutil.SeedVariant(t, db, mattress.ID, "2 plazas", "IMP-2P", "350.00")
	king := testutil.SeedVariant(t, db, mattress.ID, "king", "IMP-KG", "480.00")
	standard := testutil.SeedVariant(t, db, pillow.ID, "estandar", "ALM-STD", "45.00")

	store := testutil.SeedLocation(t, db, "Almacen Central")
	branch := testutil.SeedLocation(t, db, "Sucursal Norte")

	testutil.SeedStock(t, db, queen.ID, store.ID, 7, 2)
	testutil.SeedStock(t, db, queen.ID, branch.ID, 3, 1)
	testutil.SeedStock(t, db, king.ID, store.ID, 1, 1)
	testutil.SeedStock(t, db, standard.ID, branch.ID, 20, 5)

	return mattress.ID, pillow.ID
}

func TestListVariantsUnfiltered(t *testing.T) {
	db, router := setupCatalogTest(t)
	seedCatalog(t, db)

	rows := listData(t, router, "/api/v1/products")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	// default sort: product description ascending
	if rows[0]["description"] != "Almohada Viscoelastica" {
		t.Errorf("first row = %v, want Almohada Viscoelastica", rows[0]["description"])
	}
	if rows[0]["category"] != "Colchones" {
		t.Errorf("category = %v, want Colchones", rows[0]["category"])
	}
}

func TestListVariantsSearchIsCaseInsensitive(t *testing.T) {
	db, router := setupCatalogTest(t)
	seedCatalog(t, db)

	for _, q := range []string{"imperial", "IMPERIAL", "%20%20imp%20%20"} {
		rows := listData(t, router, "/api/v1/products?q="+q)
		if len(rows) != 2 {
			t.Fatalf("q=%q: expected 2 rows, got %d", q, len(rows))
		}
		for _, row := range rows {
			if row["description"] != "Colchon Imperial" {
				t.Errorf("q=%q: unexpected row %v", q, row["description"])
			}
		}
	}
}

func TestListVariantsSearchMatchesCodeAndMeasurement(t *testing.T) {
	db, router := setupCatalogTest(t)
	seedCatalog(t, db)

	rows := listData(t, router, "/api/v1/products?q=alm-std")
	if len(rows) != 1 || rows[0]["code"] != "ALM-STD" {
		t.Fatalf("code search failed: %v", rows)
	}

	rows = listData(t, router, "/api/v1/products?q=king")
	if len(rows) != 1 || rows[0]["code"] != "IMP-KG" {
		t.Fatalf("measurement search failed: %v", rows)
	}
}

func TestListVariantsStockAggregation(t *testing.T) {
	db, router := setupCatalogTest(t)
	seedCatalog(t, db)

	rows := listData(t, router, "/api/v1/products?q=imp-2p")
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	// 7 at the store plus 3 at the branch
	if rows[0]["totalStock"] != float64(10) {
		t.Errorf("totalStock = %v, want 10", rows[0]["totalStock"])
	}
}

func TestListVariantsUnknownSortEqualsDefault(t *testing.T) {
	db, router := setupCatalogTest(t)
	seedCatalog(t, db)

	defaultRows := listData(t, router, "/api/v1/products?sort=name_asc")
	unknownRows := listData(t, router, "/api/v1/products?sort=definitely_not_a_sort")

	if len(defaultRows) != len(unknownRows) {
		t.Fatalf("row counts differ: %d vs %d", len(defaultRows), len(unknownRows))
	}
	for i := range defaultRows {
		if defaultRows[i]["code"] != unknownRows[i]["code"] {
			t.Errorf("row %d: %v vs %v", i, defaultRows[i]["code"], unknownRows[i]["code"])
		}
	}
}

func TestListVariantsStockSort(t *testing.T) {
	db, router := setupCatalogTest(t)
	seedCatalog(t, db)

	rows := listData(t, router, "/api/v1/products?sort=stock_desc")
	if rows[0]["code"] != "ALM-STD" {
		t.Errorf("stock_desc first row = %v, want ALM-STD", rows[0]["code"])
	}
	if rows[len(rows)-1]["code"] != "IMP-KG" {
		t.Errorf("stock_desc last row = %v, want IMP-KG", rows[len(rows)-1]["code"])
	}
}

func TestListVariantsEmptyResultIsArray(t *testing.T) {
	_, router := setupCatalogTest(t)

	w := testutil.DoRequest(router, "GET", "/api/v1/products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	rows, ok := resp["data"].([]interface{})
	if !ok {
		t.Fatalf("data must be an array even when empty, got %v", resp["data"])
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestStockTotalsViewAggregates(t *testing.T) {
	db, _ := setupCatalogTest(t)
	seedCatalog(t, db)

	var totals []models.VariantStockTotal
	if err := db.Find(&totals).Error; err != nil {
		t.Fatalf("view query failed: %v", err)
	}
	if len(totals) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(totals))
	}

	byVariant := make(map[int64]models.VariantStockTotal, len(totals))
	for _, row := range totals {
		byVariant[row.VariantID] = row
	}
	var queenID int64
	db.Raw("SELECT id FROM variants WHERE code = ?", "IMP-2P").Scan(&queenID)
	if got := byVariant[queenID]; got.TotalQuantity != 10 || got.TotalMinQuantity != 3 {
		t.Errorf("queen totals = %+v, want quantity 10 / min 3", got)
	}
}

func TestProductSummaryTotals(t *testing.T) {
	db, router := setupCatalogTest(t)
	seedCatalog(t, db)

	rows := listData(t, router, "/api/v1/products/summary")
	if len(rows) != 2 {
		t.Fatalf("expected 2 products, got %d", len(rows))
	}

	var mattress map[string]interface{}
	for _, row := range rows {
		if row["description"] == "Colchon Imperial" {
			mattress = row
		}
	}
	if mattress == nil {
		t.Fatal("Colchon Imperial missing from summary")
	}
	if mattress["variantCount"] != float64(2) {
		t.Errorf("variantCount = %v, want 2", mattress["variantCount"])
	}
	// 7+3 for the 2-plazas variant plus 1 for the king
	if mattress["totalStock"] != float64(11) {
		t.Errorf("totalStock = %v, want 11", mattress["totalStock"])
	}
}

func TestProductSummarySearchesDescriptionOnly(t *testing.T) {
	db, router := setupCatalogTest(t)
	seedCatalog(t, db)

	// "imp" matches variant codes but not any product description/material
	rows := listData(t, router, "/api/v1/products/summary?q=imp-2p")
	if len(rows) != 0 {
		t.Errorf("summary search must not match variant codes, got %d rows", len(rows))
	}

	rows = listData(t, router, "/api/v1/products/summary?q=almohada")
	if len(rows) != 1 {
		t.Errorf("expected 1 product, got %d", len(rows))
	}
}

func TestGetProduct(t *testing.T) {
	db, router := setupCatalogTest(t)
	productID, _ := seedCatalog(t, db)

	w := testutil.DoRequest(router, "GET", "/api/v1/products/"+itoa(productID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["description"] != "Colchon Imperial" {
		t.Errorf("description = %v", data["description"])
	}
}

func TestGetProductNotFound(t *testing.T) {
	_, router := setupCatalogTest(t)

	w := testutil.DoRequest(router, "GET", "/api/v1/products/99999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetProductBadID(t *testing.T) {
	_, router := setupCatalogTest(t)

	for _, id := range []string{"abc", "-3", "0"} {
		w := testutil.DoRequest(router, "GET", "/api/v1/products/"+id, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("id=%q: expected 400, got %d", id, w.Code)
		}
	}
}

func TestGetVariantByCodeDetail(t *testing.T) {
	db, router := setupCatalogTest(t)
	seedCatalog(t, db)

	var variantID int64
	db.Raw("SELECT id FROM variants WHERE code = ?", "IMP-2P").Scan(&variantID)
	testutil.SeedColor(t, db, variantID, "Azul", "#0000FF")
	testutil.SeedColor(t, db, variantID, "Blanco", "")

	w := testutil.DoRequest(router, "GET", "/api/v1/products/code/IMP-2P", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})

	if data["code"] != "IMP-2P" || data["description"] != "Colchon Imperial" {
		t.Errorf("unexpected detail: %v %v", data["code"], data["description"])
	}

	supplier, ok := data["supplier"].(map[string]interface{})
	if !ok {
		t.Fatalf("supplier missing: %v", data["supplier"])
	}
	if supplier["name"] != "Espumas del Sur" || supplier["activity"] != "fabricante" {
		t.Errorf("supplier = %v", supplier)
	}

	colors := data["colors"].([]interface{})
	if len(colors) != 2 {
		t.Fatalf("expected 2 colors, got %d", len(colors))
	}
	// insertion order
	if colors[0].(map[string]interface{})["color"] != "Azul" {
		t.Errorf("first color = %v, want Azul", colors[0])
	}

	stock := data["stock"].(map[string]interface{})
	if stock["total"] != float64(10) {
		t.Errorf("stock.total = %v, want 10", stock["total"])
	}
	if stock["totalMin"] != float64(3) {
		t.Errorf("stock.totalMin = %v, want 3", stock["totalMin"])
	}
	locations := stock["locations"].([]interface{})
	if len(locations) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locations))
	}
	// ordered by location name
	first := locations[0].(map[string]interface{})
	if first["location"] != "Almacen Central" || first["quantity"] != float64(7) {
		t.Errorf("first location = %v", first)
	}
}

func TestGetVariantByCodeNotFound(t *testing.T) {
	db, router := setupCatalogTest(t)
	seedCatalog(t, db)

	w := testutil.DoRequest(router, "GET", "/api/v1/products/code/NO-SUCH-CODE", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["error"] != "product not found" {
		t.Errorf("error = %v", resp["error"])
	}
}

func TestListProductVariantsScopedAndSorted(t *testing.T) {
	db, router := setupCatalogTest(t)
	productID, _ := seedCatalog(t, db)

	rows := listData(t, router, "/api/v1/products/"+itoa(productID)+"/variants/summary")
	if len(rows) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(rows))
	}
	// default size_asc: "2 plazas" before "king"
	if rows[0]["measurement"] != "2 plazas" {
		t.Errorf("first variant = %v", rows[0]["measurement"])
	}

	rows = listData(t, router, "/api/v1/products/"+itoa(productID)+"/variants/summary?sort=code_desc")
	if rows[0]["code"] != "IMP-KG" {
		t.Errorf("code_desc first = %v, want IMP-KG", rows[0]["code"])
	}

	rows = listData(t, router, "/api/v1/products/"+itoa(productID)+"/variants/summary?q=king")
	if len(rows) != 1 || rows[0]["code"] != "IMP-KG" {
		t.Errorf("measurement search failed: %v", rows)
	}
}

func TestListProductVariantsBadID(t *testing.T) {
	_, router := setupCatalogTest(t)

	w := testutil.DoRequest(router, "GET", "/api/v1/products/zzz/variants/summary", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGetEditBundle(t *testing.T) {
	db, router := setupCatalogTest(t)
	productID, _ := seedCatalog(t, db)

	var variantID int64
	db.Raw("SELECT id FROM variants WHERE code = ?", "IMP-2P").Scan(&variantID)
	testutil.SeedColor(t, db, variantID, "Gris", "#808080")

	w := testutil.DoRequest(router, "GET", "/api/v1/products/"+itoa(productID)+"/edit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})

	product := data["product"].(map[string]interface{})
	if product["description"] != "Colchon Imperial" {
		t.Errorf("product = %v", product["description"])
	}

	variants := data["variants"].([]interface{})
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}
	withColors := variants[0].(map[string]interface{})
	colors, ok := withColors["colors"].([]interface{})
	if !ok {
		t.Fatalf("colors missing on variant: %v", withColors)
	}
	if len(colors) != 1 || colors[0].(map[string]interface{})["color"] != "Gris" {
		t.Errorf("colors = %v", colors)
	}

	lookups := data["lookups"].(map[string]interface{})
	if len(lookups["categories"].([]interface{})) != 1 {
		t.Errorf("categories lookup = %v", lookups["categories"])
	}
	if len(lookups["suppliers"].([]interface{})) != 1 {
		t.Errorf("suppliers lookup = %v", lookups["suppliers"])
	}
}

func TestGetEditBundleNoVariants(t *testing.T) {
	db, router := setupCatalogTest(t)
	product := testutil.SeedProduct(t, db, "Producto Vacio", nil, nil)

	w := testutil.DoRequest(router, "GET", "/api/v1/products/"+itoa(product.ID)+"/edit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	variants, ok := data["variants"].([]interface{})
	if !ok {
		t.Fatalf("variants must be an array, got %v", data["variants"])
	}
	if len(variants) != 0 {
		t.Errorf("expected no variants, got %d", len(variants))
	}
}

func TestGetEditBundleNotFound(t *testing.T) {
	_, router := setupCatalogTest(t)

	w := testutil.DoRequest(router, "GET", "/api/v1/products/424242/edit", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
