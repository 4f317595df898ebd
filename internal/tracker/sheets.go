package tracker

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/viralpost-agent/internal/config"
	"github.com/viralpost-agent/internal/models"
	"github.com/viralpost-agent/pkg/logger"
)

// SheetColumns defines the column headers for the generated posts sheet
var SheetColumns = []string{
	"Generated At",
	"Username",
	"User ID",
	"Topic",
	"Length",
	"Prediction",
	"Est. Likes",
	"Est. Retweets",
	"Est. Views",
	"Post Preview",
}

// SheetsTracker mirrors generated posts into a Google Sheet for review
type SheetsTracker struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger
}

// NewSheetsTracker creates a new Google Sheets tracker. Returns (nil, nil)
// when the tracker is disabled in config.
func NewSheetsTracker(cfg config.TrackerConfig, log *logger.Logger) (*SheetsTracker, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	ctx := context.Background()

	var srv *sheets.Service
	var err error

	// Service account JSON wins so credentials can be injected via env
	if cfg.ServiceAccountJSON != "" {
		srv, err = sheets.NewService(ctx, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	} else if cfg.CredentialsFile != "" {
		srv, err = sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	} else {
		return nil, fmt.Errorf("no Google credentials provided: set credentials_file or service_account_json")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Generated Posts"
	}

	return &SheetsTracker{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		log:           log.WithComponent("sheets-tracker"),
	}, nil
}

// InitializeSheet creates the sheet and headers if they don't exist
func (t *SheetsTracker) InitializeSheet(ctx context.Context) error {
	if err := t.ensureSheetExists(ctx); err != nil {
		return err
	}

	readRange := fmt.Sprintf("%s!A1:J1", t.sheetName)
	resp, err := t.service.Spreadsheets.Values.Get(t.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(resp.Values) == 0 {
		t.log.Info().Msg("Initializing sheet with headers")
		return t.writeHeaders(ctx)
	}

	t.log.Debug().Msg("Sheet already has headers")
	return nil
}

// ensureSheetExists creates the sheet if it doesn't exist
func (t *SheetsTracker) ensureSheetExists(ctx context.Context) error {
	spreadsheet, err := t.service.Spreadsheets.Get(t.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == t.sheetName {
			t.log.Debug().Str("sheet", t.sheetName).Msg("Sheet already exists")
			return nil
		}
	}

	t.log.Info().Str("sheet", t.sheetName).Msg("Creating new sheet")
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: t.sheetName,
					},
				},
			},
		},
	}

	_, err = t.service.Spreadsheets.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	return nil
}

// writeHeaders writes column headers to the first row
func (t *SheetsTracker) writeHeaders(ctx context.Context) error {
	var headerRow []interface{}
	for _, col := range SheetColumns {
		headerRow = append(headerRow, col)
	}

	writeRange := fmt.Sprintf("%s!A1", t.sheetName)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{headerRow},
	}

	_, err := t.service.Spreadsheets.Values.Update(t.spreadsheetID, writeRange, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	t.log.Info().Msg("Sheet headers initialized")
	return nil
}

// RecordGenerated appends a generated post to the sheet
func (t *SheetsTracker) RecordGenerated(ctx context.Context, req models.GeneratedRecord, post *models.GeneratedPost) error {
	preview := post.Post
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}

	row := []interface{}{
		time.Now().Format(time.RFC3339),
		req.Username,
		req.UserID,
		req.Topic,
		req.Length,
		string(post.EngagementPrediction),
		post.EstimatedMetrics.Likes,
		post.EstimatedMetrics.Retweets,
		post.EstimatedMetrics.Views,
		preview,
	}

	writeRange := fmt.Sprintf("%s!A:J", t.sheetName)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	_, err := t.service.Spreadsheets.Values.Append(t.spreadsheetID, writeRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	t.log.Info().
		Str("username", req.Username).
		Str("topic", req.Topic).
		Msg("Recorded generated post in sheet")

	return nil
}
