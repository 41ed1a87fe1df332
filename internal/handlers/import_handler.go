package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"tireshop-service/internal/clients"
	"tireshop-service/internal/config"
	"tireshop-service/internal/importer"
	"tireshop-service/internal/models"
)

// ImportHandler serves the admin bulk-import surface: template download,
// price-list file upload and Google Sheets sync.
type ImportHandler struct {
	importer *importer.Importer
	sheets   *clients.SheetsClient
	cfg      *config.Config
	log      *logrus.Logger
}

func NewImportHandler(imp *importer.Importer, sheets *clients.SheetsClient, cfg *config.Config, log *logrus.Logger) *ImportHandler {
	return &ImportHandler{importer: imp, sheets: sheets, cfg: cfg, log: log}
}

// GetImportTemplate returns the import template definition or file
// GET /admin/import/template?format=json|csv|xlsx
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.TireImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=tires_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Tires"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col.Name)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)

		example, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheetName, example, col.Example)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=tires_import_template.xlsx")
	if err := f.Write(c.Writer); err != nil {
		h.log.WithError(err).Error("Failed to write XLSX template")
	}
}

// ImportFile handles POST /admin/import: multipart upload of an XLSX or CSV
// price list.
func (h *ImportHandler) ImportFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "file is required"))
		return
	}
	if fileHeader.Size > int64(h.cfg.MaxImportFileMB)<<20 {
		c.JSON(http.StatusRequestEntityTooLarge, models.NewErrorResponse("FILE_TOO_LARGE",
			fmt.Sprintf("File exceeds %d MB limit", h.cfg.MaxImportFileMB)))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "Could not read uploaded file"))
		return
	}
	defer file.Close()

	var raw [][]string
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".xlsx":
		raw, err = parseXLSX(file)
	case ".csv":
		raw, err = parseCSV(file)
	default:
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "Only .xlsx and .csv files are supported"))
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("PARSE_ERROR", err.Error()))
		return
	}

	h.runImport(c, raw)
}

// SyncSheet handles POST /admin/import/sheet: pulls the configured Google
// Sheet and imports it. Any Sheets failure surfaces as one admin error.
func (h *ImportHandler) SyncSheet(c *gin.Context) {
	if !h.sheets.Enabled() {
		c.JSON(http.StatusConflict, models.NewErrorResponse("SHEETS_DISABLED", "Google Sheets sync is not configured"))
		return
	}

	raw, err := h.sheets.FetchRows(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Google Sheets sync failed")
		c.JSON(http.StatusBadGateway, models.NewErrorResponse("SHEETS_ERROR", err.Error()))
		return
	}

	h.runImport(c, raw)
}

func (h *ImportHandler) runImport(c *gin.Context, raw [][]string) {
	rows, parseErrs := importer.ParseRows(raw)
	if len(rows) == 0 && len(parseErrs) == 0 {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "No data rows found"))
		return
	}

	result, err := h.importer.Run(rows, parseErrs)
	if err != nil {
		h.log.WithError(err).Error("Import run failed")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Import failed"))
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseCSV reads a CSV file into raw rows for the importer.
func parseCSV(file io.Reader) ([][]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// parseXLSX reads the first (or "Tires") sheet of an Excel file into raw rows.
func parseXLSX(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Tires") {
			sheetName = name
			break
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return rows, nil
}
