package google

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"
)

// DefaultRange appends after the last row of the first sheet.
const DefaultRange = "A1"

// Header is the column layout of the mirror sheet.
var Header = []interface{}{"標題", "描述", "優先級", "狀態", "部門", "負責人", "截止日期", "派發時間"}

// SheetsMirror appends task rows to a spreadsheet.
type SheetsMirror struct {
	srv           *sheets.Service
	spreadsheetID string
	rng           string
	log           *zap.Logger
}

// NewSheetsMirror returns a mirror for spreadsheetID. An empty range selects
// DefaultRange.
func NewSheetsMirror(srv *sheets.Service, spreadsheetID, rng string, log *zap.Logger) (*SheetsMirror, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	if rng == "" {
		rng = DefaultRange
	}
	return &SheetsMirror{srv: srv, spreadsheetID: spreadsheetID, rng: rng, log: nopIfNil(log)}, nil
}

// AppendRows appends rows as user-entered values.
func (m *SheetsMirror) AppendRows(ctx context.Context, rows [][]interface{}) error {
	resp, err := m.srv.Spreadsheets.Values.Append(m.spreadsheetID, m.rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append rows: %w", err)
	}
	if resp.Updates != nil {
		m.log.Info("rows appended", zap.String("range", resp.Updates.UpdatedRange), zap.Int64("rows", resp.Updates.UpdatedRows))
	}
	return nil
}

// EnsureHeader writes Header into the first row when the sheet is empty.
func (m *SheetsMirror) EnsureHeader(ctx context.Context) error {
	existing, err := m.srv.Spreadsheets.Values.Get(m.spreadsheetID, "A1:H1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(existing.Values) > 0 {
		return nil
	}
	_, err = m.srv.Spreadsheets.Values.Update(m.spreadsheetID, "A1", &sheets.ValueRange{Values: [][]interface{}{Header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}
