package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// ValuesBackend executes raw range operations against a spreadsheet.
// The production implementation talks to the Google Sheets API; tests use
// an in-memory fake.
type ValuesBackend interface {
	Get(ctx context.Context, spreadsheetID, readRange string) ([][]string, error)
	Append(ctx context.Context, spreadsheetID, writeRange string, row []string) error
	Update(ctx context.Context, spreadsheetID, writeRange string, row []string) error
}

type googleBackend struct {
	svc *gsheets.Service
}

// NewGoogleBackend builds a ValuesBackend over the Google Sheets API using
// service account credentials from credentialsFile.
func NewGoogleBackend(ctx context.Context, credentialsFile string) (ValuesBackend, error) {
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &googleBackend{svc: svc}, nil
}

func (b *googleBackend) Get(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	resp, err := b.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *googleBackend) Append(ctx context.Context, spreadsheetID, writeRange string, row []string) error {
	_, err := b.svc.Spreadsheets.Values.
		Append(spreadsheetID, writeRange, valueRange(row)).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (b *googleBackend) Update(ctx context.Context, spreadsheetID, writeRange string, row []string) error {
	_, err := b.svc.Spreadsheets.Values.
		Update(spreadsheetID, writeRange, valueRange(row)).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func valueRange(row []string) *gsheets.ValueRange {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return &gsheets.ValueRange{Values: [][]interface{}{cells}}
}
