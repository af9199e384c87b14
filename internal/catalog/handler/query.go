package handler

import "strings"

// Sort whitelists. Only expressions listed here ever reach an ORDER BY;
// unknown keys silently fall back to the listing's default. No tie-break
// column is appended, so ordering of equal rows is up to the engine.
var variantListSorts = map[string]string{
	"name_asc":   "p.description ASC",
	"name_desc":  "p.description DESC",
	"stock_asc":  "total_stock ASC",
	"stock_desc": "total_stock DESC",
}

var productSummarySorts = map[string]string{
	"name_asc":   "p.description ASC",
	"name_desc":  "p.description DESC",
	"stock_asc":  "total_stock ASC",
	"stock_desc": "total_stock DESC",
}

var productVariantSorts = map[string]string{
	"size_asc":   "v.measurement ASC",
	"size_desc":  "v.measurement DESC",
	"code_asc":   "v.code ASC",
	"code_desc":  "v.code DESC",
	"stock_asc":  "total_stock ASC",
	"stock_desc": "total_stock DESC",
}

func orderByClause(whitelist map[string]string, sortKey, fallback string) string {
	if expr, ok := whitelist[sortKey]; ok {
		return expr
	}
	return whitelist[fallback]
}

// buildSearchFilter turns free text into a parameterized, OR-combined
// substring match over the given columns. Empty text after trimming means
// no filter. The term only ever travels as a bound parameter.
func buildSearchFilter(q string, columns ...string) (string, []interface{}) {
	term := strings.ToLower(strings.TrimSpace(q))
	if term == "" {
		return "", nil
	}

	like := "%" + term + "%"
	conds := make([]string, len(columns))
	params := make([]interface{}, len(columns))
	for i, col := range columns {
		conds[i] = col + " ILIKE ?"
		params[i] = like
	}
	return "(" + strings.Join(conds, " OR ") + ")", params
}
