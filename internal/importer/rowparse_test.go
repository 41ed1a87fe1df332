package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tireshop-service/internal/models"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in       string
		w, p, d  int
		ok       bool
	}{
		{"205/55 R16", 205, 55, 16, true},
		{"205/55R16", 205, 55, 16, true},
		{"205/55 ZR16", 205, 55, 16, true},
		{"205 / 55 R 16", 205, 55, 16, true},
		{"Шина Michelin X-Ice 195/65 R15", 195, 65, 15, true},
		{"175/70R13", 175, 70, 13, true},
		{"95/65 R15", 95, 65, 15, true},
		{"185/65 R9", 185, 65, 9, true},
		{"31/10 R15", 31, 10, 15, true},
		{"", 0, 0, 0, false},
		{"R16", 0, 0, 0, false},
		{"winter tire", 0, 0, 0, false},
	}
	for _, tt := range tests {
		w, p, d, ok := ParseSize(tt.in)
		assert.Equal(t, tt.ok, ok, "ParseSize(%q) ok", tt.in)
		if tt.ok {
			assert.Equal(t, tt.w, w, "width for %q", tt.in)
			assert.Equal(t, tt.p, p, "profile for %q", tt.in)
			assert.Equal(t, tt.d, d, "diameter for %q", tt.in)
		}
	}
}

func TestParseSeason(t *testing.T) {
	assert.Equal(t, models.SeasonWinter, ParseSeason("зима"))
	assert.Equal(t, models.SeasonWinter, ParseSeason("Зимняя"))
	assert.Equal(t, models.SeasonWinter, ParseSeason("winter"))
	assert.Equal(t, models.SeasonSummer, ParseSeason("лето"))
	assert.Equal(t, models.SeasonSummer, ParseSeason("Літня"))
	assert.Equal(t, models.SeasonSummer, ParseSeason("summer"))
	assert.Equal(t, models.SeasonAllSeason, ParseSeason("всесезонная"))
	assert.Equal(t, models.SeasonAllSeason, ParseSeason(""))
	assert.Equal(t, models.SeasonAllSeason, ParseSeason("m+s"))
}

func TestParseQuantity(t *testing.T) {
	assert.Equal(t, 8, ParseQuantity("8"))
	assert.Equal(t, 8, ParseQuantity(" 8 шт "))
	assert.Equal(t, 20, ParseQuantity(">12"))
	assert.Equal(t, 20, ParseQuantity("> 4"))
	assert.Equal(t, 0, ParseQuantity(""))
	assert.Equal(t, 0, ParseQuantity("есть"))
	assert.Equal(t, 0, ParseQuantity("-"))
}

func TestParsePrice(t *testing.T) {
	tests := []struct{ in, want string }{
		{"2499.50", "2499.50"},
		{"2499,50", "2499.50"},
		{"2 499,50", "2499.50"},
		{"1.234.50", "1234.50"},
		{"2499 грн", "2499"},
		{"₴2499", "2499"},
		{"", "0"},
		{"договорная", "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePrice(tt.in), "ParsePrice(%q)", tt.in)
	}
}

func TestParseRowsWithHeaders(t *testing.T) {
	raw := [][]string{
		{"Бренд", "Модель", "Типоразмер", "Сезон", "Цена", "Кол-во"},
		{"Michelin", "X-Ice Snow", "205/55 R16", "зима", "2499,50", "8"},
		{"Rosava", "Itegro", "185/65 R15", "лето", "1100", ">12"},
	}

	rows, errs := ParseRows(raw)

	assert.Empty(t, errs)
	assert.Len(t, rows, 2)

	assert.Equal(t, "Michelin", rows[0].Brand)
	assert.Equal(t, "X-Ice Snow", rows[0].Name)
	assert.Equal(t, 205, rows[0].Width)
	assert.Equal(t, 55, rows[0].Profile)
	assert.Equal(t, 16, rows[0].Diameter)
	assert.Equal(t, models.SeasonWinter, rows[0].Season)
	assert.Equal(t, "2499.50", rows[0].Cost)
	assert.Equal(t, 8, rows[0].Quantity)

	assert.Equal(t, models.SeasonSummer, rows[1].Season)
	assert.Equal(t, 20, rows[1].Quantity)
}

func TestParseRowsPositionalFallback(t *testing.T) {
	// no header row: first row is already data
	raw := [][]string{
		{"Michelin", "Pilot Sport 4", "225/45 R17", "лето", "4200", "4"},
	}

	rows, errs := ParseRows(raw)

	assert.Empty(t, errs)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Michelin", rows[0].Brand)
	assert.Equal(t, 225, rows[0].Width)
}

func TestParseRowsSizeFromName(t *testing.T) {
	raw := [][]string{
		{"Бренд", "Модель", "Цена"},
		{"Nokian", "Шина Nokian Hakkapeliitta 9 205/55 R16", "3100"},
	}

	rows, errs := ParseRows(raw)

	assert.Empty(t, errs)
	assert.Len(t, rows, 1)
	assert.Equal(t, 205, rows[0].Width)
	assert.Equal(t, 55, rows[0].Profile)
	assert.Equal(t, 16, rows[0].Diameter)
}

func TestParseRowsUnparsedSizeKeptInName(t *testing.T) {
	raw := [][]string{
		{"Бренд", "Модель", "Типоразмер"},
		{"Kama", "Euro-129", "нестандарт"},
	}

	rows, errs := ParseRows(raw)

	assert.Empty(t, errs)
	assert.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Width)
	assert.Equal(t, "Euro-129 [нестандарт]", rows[0].Name)
}

func TestParseRowsMissingIdentity(t *testing.T) {
	raw := [][]string{
		{"Бренд", "Модель", "Цена"},
		{"", "", "999"},
		{"", "Orphan Model", "1200"},
	}

	rows, errs := ParseRows(raw)

	assert.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Row)
	assert.Equal(t, models.ImportErrValidation, errs[0].Code)

	assert.Len(t, rows, 1)
	assert.Equal(t, "Unknown", rows[0].Brand)
	assert.Equal(t, "Orphan Model", rows[0].Name)
}

func TestParseRowsSkipsEmptyRows(t *testing.T) {
	raw := [][]string{
		{"Бренд", "Модель"},
		{"", ""},
		{},
		{"Debica", "Frigo 2"},
	}

	rows, errs := ParseRows(raw)

	assert.Empty(t, errs)
	assert.Len(t, rows, 1)
}
