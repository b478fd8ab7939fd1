// Package sheets adapts the Google Sheets API to records.Store.
package sheets

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/stake-plus/activity-tickets/src/google"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/slots"
)

var (
	_ records.Store       = (*Client)(nil)
	_ records.Resizer     = (*Client)(nil)
	_ records.Highlighter = (*Client)(nil)
)

// Client wraps the Sheets values API with rate limiting and retry.
type Client struct {
	svc     *gsheets.Service
	limiter *rate.Limiter
	retry   google.RetryPolicy

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	RequestsPerSecond float64
	Burst             int
	Retry             google.RetryPolicy
}

// New creates a Sheets client from service account credentials.
func New(ctx context.Context, creds google.Credentials, opts Options) (*Client, error) {
	clientOpts, err := creds.ClientOptions()
	if err != nil {
		return nil, err
	}
	svc, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return NewWithService(svc, opts), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheets.Service, opts Options) *Client {
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 5
	}
	retry := opts.Retry
	if retry.Attempts == 0 {
		retry = google.DefaultRetry
	}
	return &Client{
		svc:      svc,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		retry:    retry,
		sheetIDs: make(map[string]int64),
	}
}

func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	err := c.retry.Do(ctx, op, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return fn()
	})
	return classify(err)
}

// classify maps missing sheets and spreadsheets onto records.ErrNotFound.
// A range naming an unknown sheet comes back as a 400 parse error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	code := google.StatusCode(err)
	if code == http.StatusNotFound {
		return fmt.Errorf("%w: %v", records.ErrNotFound, err)
	}
	if code == http.StatusBadRequest && strings.Contains(err.Error(), "Unable to parse range") {
		return fmt.Errorf("%w: %v", records.ErrNotFound, err)
	}
	return err
}

func (c *Client) GetRange(ctx context.Context, tableID, rangeSpec string) ([][]string, error) {
	var resp *gsheets.ValueRange
	err := c.call(ctx, "get "+rangeSpec, func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.Get(tableID, rangeSpec).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		out[i] = cells
	}
	return out, nil
}

func (c *Client) UpdateRange(ctx context.Context, tableID, rangeSpec string, values [][]interface{}, mode records.WriteMode) error {
	body := &gsheets.ValueRange{Values: values}
	return c.call(ctx, "update "+rangeSpec, func() error {
		_, err := c.svc.Spreadsheets.Values.Update(tableID, rangeSpec, body).
			ValueInputOption(string(mode)).
			Context(ctx).
			Do()
		return err
	})
}

func (c *Client) BatchClearRanges(ctx context.Context, tableID string, rangeSpecs []string) error {
	if len(rangeSpecs) == 0 {
		return nil
	}
	body := &gsheets.BatchClearValuesRequest{Ranges: rangeSpecs}
	return c.call(ctx, "batch clear", func() error {
		_, err := c.svc.Spreadsheets.Values.BatchClear(tableID, body).Context(ctx).Do()
		return err
	})
}

func (c *Client) AppendRow(ctx context.Context, tableID, tableName string, values []interface{}) error {
	body := &gsheets.ValueRange{Values: [][]interface{}{values}}
	rng := slots.QuoteTable(tableName)
	return c.call(ctx, "append "+tableName, func() error {
		_, err := c.svc.Spreadsheets.Values.Append(tableID, rng, body).
			ValueInputOption(string(records.WriteUserEntered)).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return err
	})
}

// SheetID resolves the numeric id of a sheet by title.
func (c *Client) SheetID(ctx context.Context, tableID, tableName string) (int64, error) {
	key := tableID + "/" + tableName
	c.mu.Lock()
	id, ok := c.sheetIDs[key]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	var doc *gsheets.Spreadsheet
	err := c.call(ctx, "get spreadsheet", func() error {
		var err error
		doc, err = c.svc.Spreadsheets.Get(tableID).Fields("sheets.properties").Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, err
	}
	for _, sheet := range doc.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == tableName {
			c.mu.Lock()
			c.sheetIDs[key] = sheet.Properties.SheetId
			c.mu.Unlock()
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheets: sheet %q: %w", tableName, records.ErrNotFound)
}

// AutoResizeColumns fits the first n columns of a sheet to their content.
func (c *Client) AutoResizeColumns(ctx context.Context, tableID, tableName string, columns int) error {
	sheetID, err := c.SheetID(ctx, tableID, tableName)
	if err != nil {
		return err
	}
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AutoResizeDimensions: &gsheets.AutoResizeDimensionsRequest{
				Dimensions: &gsheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "COLUMNS",
					StartIndex:      0,
					EndIndex:        int64(columns),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	return c.call(ctx, "auto resize", func() error {
		_, err := c.svc.Spreadsheets.BatchUpdate(tableID, req).Context(ctx).Do()
		return err
	})
}

// FillCells sets the background of the given rows in column col with one
// batch update.
func (c *Client) FillCells(ctx context.Context, tableID, tableName string, col int, rows []int, fill records.Color) error {
	if len(rows) == 0 {
		return nil
	}
	sheetID, err := c.SheetID(ctx, tableID, tableName)
	if err != nil {
		return err
	}
	req := &gsheets.BatchUpdateSpreadsheetRequest{Requests: fillRequests(sheetID, col, rows, fill)}
	return c.call(ctx, "fill cells", func() error {
		_, err := c.svc.Spreadsheets.BatchUpdate(tableID, req).Context(ctx).Do()
		return err
	})
}

func fillRequests(sheetID int64, col int, rows []int, fill records.Color) []*gsheets.Request {
	cell := &gsheets.CellData{
		UserEnteredFormat: &gsheets.CellFormat{
			BackgroundColorStyle: &gsheets.ColorStyle{
				RgbColor: &gsheets.Color{
					Red:             fill.Red,
					Green:           fill.Green,
					Blue:            fill.Blue,
					ForceSendFields: []string{"Red", "Green", "Blue"},
				},
			},
		},
	}
	requests := make([]*gsheets.Request, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, &gsheets.Request{
			RepeatCell: &gsheets.RepeatCellRequest{
				Range: &gsheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(row - 1),
					EndRowIndex:      int64(row),
					StartColumnIndex: int64(col),
					EndColumnIndex:   int64(col + 1),
					ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				Cell:   cell,
				Fields: "userEnteredFormat.backgroundColorStyle",
			},
		})
	}
	return requests
}
