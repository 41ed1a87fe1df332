// Package importer turns supplier price lists (XLSX, CSV, Google Sheets) into
// catalog products. Supplier files are messy: headers drift between Ukrainian,
// Russian and English spellings, sizes hide inside free-text names, prices
// carry currency signs and stray separators. Parsing is forgiving on optional
// fields and strict only on identity (brand + model).
package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tireshop-service/internal/models"
)

// Column keys in canonical form. Header matching is case-insensitive prefix
// matching against the alias table; when no header row is recognizable the
// importer falls back to fixed positions.
const (
	colBrand    = "brand"
	colModel    = "model"
	colSize     = "size"
	colSeason   = "season"
	colPrice    = "price"
	colQuantity = "quantity"
	colPhoto    = "photo"
	colCountry  = "country"
	colYear     = "year"
)

// columnOrder fixes iteration order so alias resolution is deterministic.
var columnOrder = []string{colBrand, colModel, colSize, colSeason, colPrice, colQuantity, colPhoto, colCountry, colYear}

// columnAliases maps canonical keys to known header spellings. Matching is
// prefix-based: "Кол-во (шт)" still matches "кол-во".
var columnAliases = map[string][]string{
	colBrand:    {"бренд", "brand", "фірма", "фирма", "производитель", "виробник"},
	colModel:    {"модель", "model", "name", "назва", "название", "наименование", "товар"},
	colSize:     {"типоразмер", "типорозмір", "размер", "розмір", "size"},
	colSeason:   {"сезон", "season"},
	colPrice:    {"цена", "ціна", "price", "вартість", "стоимость"},
	colQuantity: {"кол-во", "количество", "кількість", "qty", "quantity", "stock", "остаток", "залишок", "наличие", "наявність"},
	colPhoto:    {"фото", "photo", "image", "зображення", "изображение"},
	colCountry:  {"страна", "країна", "country"},
	colYear:     {"год", "рік", "year", "dot"},
}

// positionalColumns is the layout assumed when the first row is data, not
// headers. Trailing columns beyond the row length are simply absent.
var positionalColumns = []string{colBrand, colModel, colSize, colSeason, colPrice, colQuantity}

// plentyStock is the sentinel quantity stored when a supplier reports
// availability as ">12" or similar instead of an exact count.
const plentyStock = 20

var (
	sizePattern  = regexp.MustCompile(`(\d{2,3})\s*/\s*(\d{1,3})\s*[A-Za-zРЗ]*\s*(\d{1,3})`)
	digitPattern = regexp.MustCompile(`\d+`)
	yearPattern  = regexp.MustCompile(`(19|20)\d{2}`)
)

// ProductRow is one parsed price-list row, still detached from the database.
type ProductRow struct {
	Row      int // 1-based source row, for error reporting
	Brand    string
	Name     string
	Width    int
	Profile  int
	Diameter int
	Season   models.Season
	Cost     string // raw normalized decimal string, parsed by the importer
	Quantity int
	PhotoURL string
	Country  string
	Year     int
}

// ParseSize extracts width/profile/diameter from a size string like
// "205/55 R16", "205/55R16" or "205/55 ЗР16". Off-road sizes ("31/10 R15")
// and small diameters ("185/65 R9") parse too. Returns ok=false when the
// string has no recognizable size.
func ParseSize(s string) (width, profile, diameter int, ok bool) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, 0, false
	}
	width, _ = strconv.Atoi(m[1])
	profile, _ = strconv.Atoi(m[2])
	diameter, _ = strconv.Atoi(m[3])
	return width, profile, diameter, true
}

// ParseSeason maps free-text season values onto the three catalog seasons by
// keyword. Anything unrecognized lands on all-season, the safe default for a
// storefront filter.
func ParseSeason(s string) models.Season {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "зим") || strings.Contains(lower, "winter"):
		return models.SeasonWinter
	case strings.Contains(lower, "лет") || strings.Contains(lower, "літ") || strings.Contains(lower, "summer"):
		return models.SeasonSummer
	default:
		return models.SeasonAllSeason
	}
}

// ParseQuantity reads a stock count. Suppliers report plenty as ">12" or
// ">20"; those become the plentyStock sentinel. Non-numeric garbage means
// out of stock, not an error.
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.HasPrefix(s, ">") {
		return plentyStock
	}
	m := digitPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// ParsePrice normalizes a supplier price cell into a decimal string:
// currency markers and spacing stripped, decimal comma accepted, thousands
// dots collapsed. Returns "0" for anything unparseable so the row still
// imports with a zero cost the admin can fix.
func ParsePrice(s string) string {
	s = strings.TrimSpace(s)
	for _, junk := range []string{"грн", "uah", "₴", "$", "€", " ", " "} {
		s = strings.ReplaceAll(s, junk, "")
		s = strings.ReplaceAll(s, strings.ToUpper(junk), "")
	}
	s = strings.ReplaceAll(s, ",", ".")
	// "1.234.50" is a thousands dot plus a decimal dot; keep only the last
	if strings.Count(s, ".") > 1 {
		last := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "0"
	}
	return s
}

// parseYear extracts a plausible production year, 0 when absent.
func parseYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}

// resolveColumns matches a header row against the alias table. Returns nil
// when fewer than two columns are recognized, which means the sheet has no
// header row and positional layout applies.
func resolveColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for idx, cell := range header {
		cell = strings.ToLower(strings.TrimSpace(cell))
		if cell == "" {
			continue
		}
		for _, key := range columnOrder {
			if _, taken := cols[key]; taken {
				continue
			}
			for _, alias := range columnAliases[key] {
				if strings.HasPrefix(cell, alias) {
					cols[key] = idx
					break
				}
			}
		}
	}
	if len(cols) < 2 {
		return nil
	}
	return cols
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseRows converts raw sheet rows into ProductRows. The first row is
// treated as headers when recognizable, otherwise as data in positional
// layout. Rows missing both brand and model are skipped with a VALIDATION
// error; a missing brand alone becomes "Unknown" so the product is not lost.
func ParseRows(raw [][]string) ([]ProductRow, []models.ImportRowError) {
	var rows []ProductRow
	var errs []models.ImportRowError

	if len(raw) == 0 {
		return rows, errs
	}

	cols := resolveColumns(raw[0])
	start := 1
	if cols == nil {
		cols = make(map[string]int)
		for idx, key := range positionalColumns {
			cols[key] = idx
		}
		start = 0
	}

	get := func(row []string, key string) string {
		idx, ok := cols[key]
		if !ok {
			return ""
		}
		return cellAt(row, idx)
	}

	for i := start; i < len(raw); i++ {
		row := raw[i]
		rowNum := i + 1

		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		brand := get(row, colBrand)
		name := get(row, colModel)
		if brand == "" && name == "" {
			errs = append(errs, models.ImportRowError{
				Row:     rowNum,
				Code:    models.ImportErrValidation,
				Message: "row has neither brand nor model",
			})
			continue
		}
		if brand == "" {
			brand = "Unknown"
		}
		if name == "" {
			name = brand
		}

		sizeRaw := get(row, colSize)
		width, profile, diameter, ok := ParseSize(sizeRaw)
		if !ok {
			// size may be buried in the model name itself
			width, profile, diameter, ok = ParseSize(name)
		}
		if !ok && sizeRaw != "" {
			// keep the raw token visible so the admin can spot it
			name = fmt.Sprintf("%s [%s]", name, sizeRaw)
		}

		season := ParseSeason(get(row, colSeason))
		if season == models.SeasonAllSeason && get(row, colSeason) == "" {
			season = ParseSeason(name)
		}

		rows = append(rows, ProductRow{
			Row:      rowNum,
			Brand:    brand,
			Name:     name,
			Width:    width,
			Profile:  profile,
			Diameter: diameter,
			Season:   season,
			Cost:     ParsePrice(get(row, colPrice)),
			Quantity: ParseQuantity(get(row, colQuantity)),
			PhotoURL: get(row, colPhoto),
			Country:  get(row, colCountry),
			Year:     parseYear(get(row, colYear)),
		})
	}

	return rows, errs
}
