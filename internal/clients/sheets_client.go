package clients

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsClient pulls supplier price lists straight from a Google Sheet using
// a service-account credential. The sheet is read-only from our side.
type SheetsClient struct {
	credentialsFile string
	spreadsheetID   string
	readRange       string
	log             *logrus.Logger
}

func NewSheetsClient(credentialsFile, spreadsheetID, readRange string, log *logrus.Logger) *SheetsClient {
	return &SheetsClient{
		credentialsFile: credentialsFile,
		spreadsheetID:   spreadsheetID,
		readRange:       readRange,
		log:             log,
	}
}

// Enabled reports whether the client is fully configured.
func (c *SheetsClient) Enabled() bool {
	return c.credentialsFile != "" && c.spreadsheetID != ""
}

// FetchRows reads the configured range and returns it as string rows, the
// shape the importer consumes.
func (c *SheetsClient) FetchRows(ctx context.Context) ([][]string, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("sheets: credentials file or spreadsheet id not configured")
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(c.credentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	readRange := c.readRange
	if readRange == "" {
		readRange = "A:Z"
	}

	resp, err := svc.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: read range %s: %w", readRange, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}

	c.log.WithField("rows", len(rows)).Info("Fetched price list from Google Sheets")
	return rows, nil
}
