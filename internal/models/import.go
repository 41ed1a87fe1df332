package models

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import row error codes. VALIDATION rows are skipped and counted;
// DB_ERROR rows are rolled back individually and counted as failed.
const (
	ImportErrValidation = "VALIDATION"
	ImportErrDB         = "DB_ERROR"
)

// ImportResult represents the outcome of one import run
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"totalRows"`
	CreatedCount int              `json:"createdCount"`
	UpdatedCount int              `json:"updatedCount"`
	SkippedCount int              `json:"skippedCount"`
	FailedCount  int              `json:"failedCount"`
	Errors       []ImportRowError `json:"errors,omitempty"`
	CreatedIDs   []string         `json:"createdIds,omitempty"`
	UpdatedIDs   []string         `json:"updatedIds,omitempty"`
	ProcessingMs int64            `json:"processingMs"`
}

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// TireImportColumns returns the column definitions for tire import. Header
// names are the ones supplier price lists actually use; the importer also
// accepts the alias spellings listed in each description.
func TireImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "Бренд", Description: "Brand name (aliases: brand, фірма)", Required: true, Type: "string", Example: "Michelin"},
		{Name: "Модель", Description: "Model name (aliases: model, name, назва)", Required: true, Type: "string", Example: "X-Ice Snow"},
		{Name: "Типоразмер", Description: "Tire size (aliases: размер, розмір, size)", Required: false, Type: "string", Example: "205/55 R16"},
		{Name: "Сезон", Description: "Season (aliases: season); free text, keyword matched", Required: false, Type: "string", Example: "зима"},
		{Name: "Цена", Description: "Cost price (aliases: ціна, price)", Required: false, Type: "number", Example: "2499.50"},
		{Name: "Кол-во", Description: "Stock quantity (aliases: кількість, qty, stock); \">12\" means plenty", Required: false, Type: "string", Example: "8"},
		{Name: "Фото", Description: "Photo URL (aliases: photo, image); never overwrites an existing photo", Required: false, Type: "string", Example: ""},
		{Name: "Страна", Description: "Country of origin (aliases: країна, country)", Required: false, Type: "string", Example: "France"},
		{Name: "Год", Description: "Production year (aliases: рік, year)", Required: false, Type: "number", Example: "2024"},
	}
}

// TireImportTemplate returns the template definition for tire import
func TireImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: TireImportColumns(),
	}
}
