package export

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Publisher creates one spreadsheet per export in the service account's
// drive and shares it with the configured address. Without the share the
// file is unreachable, so a failed share fails the whole publish.
type Publisher struct {
	sheets    *sheets.Service
	drive     *drive.Service
	shareWith string
	logger    *slog.Logger
}

// NewPublisher builds the Sheets and Drive clients. Credentials and
// scopes come in through opts so tests can point at a fake endpoint.
func NewPublisher(ctx context.Context, shareWith string, logger *slog.Logger, opts ...option.ClientOption) (*Publisher, error) {
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("export: sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("export: drive client: %w", err)
	}
	return &Publisher{sheets: sheetsSvc, drive: driveSvc, shareWith: shareWith, logger: logger}, nil
}

// Publish creates a spreadsheet named title, writes the table starting at
// A1 and shares it. Returns the spreadsheet URL.
func (p *Publisher) Publish(ctx context.Context, title string, table Table) (string, error) {
	table = Sanitize(table)

	created, err := p.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("export: create spreadsheet: %w", err)
	}

	values := make([][]interface{}, 0, len(table.Rows)+1)
	values = append(values, toAny(table.Header))
	for _, row := range table.Rows {
		values = append(values, toAny(row))
	}
	_, err = p.sheets.Spreadsheets.Values.Update(created.SpreadsheetId, "A1", &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("export: write values: %w", err)
	}

	if p.shareWith != "" {
		_, err = p.drive.Permissions.Create(created.SpreadsheetId, &drive.Permission{
			Type:         "user",
			Role:         "writer",
			EmailAddress: p.shareWith,
		}).SendNotificationEmail(false).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("export: share spreadsheet with %s: %w", p.shareWith, err)
		}
	}

	p.logger.Info("spreadsheet published", "title", title, "rows", len(table.Rows), "url", created.SpreadsheetUrl)
	return created.SpreadsheetUrl, nil
}

func toAny(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
