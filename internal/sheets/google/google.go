package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"spendcast/internal/core"
	"spendcast/internal/ports"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options selects the spreadsheet and the two tabs the backend works on.
type Options struct {
	SpreadsheetID     string
	TransactionsSheet string
	PredictionsSheet  string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	predictionsSheet  string
	logger            *slog.Logger

	// appends read-then-write the next row, so they are serialised per client.
	mu sync.Mutex
}

var (
	_ ports.HistoryReader      = (*Client)(nil)
	_ ports.PredictionWriter   = (*Client)(nil)
	_ ports.PredictionLister   = (*Client)(nil)
	_ ports.TransactionWriter  = (*Client)(nil)
	_ ports.TransactionLister  = (*Client)(nil)
	_ ports.TransactionDeleter = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if opts.TransactionsSheet == "" {
		opts.TransactionsSheet = "Transactions"
	}
	if opts.PredictionsSheet == "" {
		opts.PredictionsSheet = "Predictions"
	}

	svc, err := newSheetsService(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:               svc,
		spreadsheetID:     opts.SpreadsheetID,
		transactionsSheet: opts.TransactionsSheet,
		predictionsSheet:  opts.PredictionsSheet,
		logger:            logger,
	}, nil
}

func newSheetsService(ctx context.Context, logger *slog.Logger) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ListObservations implements ports.HistoryReader
func (c *Client) ListObservations(ctx context.Context, category core.Category) ([]core.Observation, error) {
	txs, err := c.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.Observation
	for _, t := range txs {
		if t.Category == category {
			out = append(out, t.Observation())
		}
	}
	return out, nil
}

// ListTransactions implements ports.TransactionLister
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	values, err := c.read(ctx, c.transactionsSheet, "A:E")
	if err != nil {
		return nil, err
	}
	txs, skipped := parseTransactionRows(values)
	if skipped > 0 {
		c.logger.WarnContext(ctx, "Skipped unparseable transaction rows", "sheet", c.transactionsSheet, "skipped", skipped)
	}
	sortTransactionsNewestFirst(txs)
	return txs, nil
}

// CreateTransaction implements ports.TransactionWriter
func (c *Client) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validation failed: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.read(ctx, c.transactionsSheet, "A:A")
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = maxID(values) + 1

	ref, err := c.writeRow(ctx, c.transactionsSheet, len(values)+1, "A", "E", transactionRow(t))
	if err != nil {
		return core.Transaction{}, err
	}
	c.logger.InfoContext(ctx, "Transaction appended to sheet", "id", t.ID, "sheets_ref", ref)
	return t, nil
}

// DeleteTransaction implements ports.TransactionDeleter
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.read(ctx, c.transactionsSheet, "A:A")
	if err != nil {
		return err
	}
	row := rowOfID(values, id)
	if row < 0 {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrTransactionNotFound)
	}

	sheetID, err := c.sheetID(ctx, c.transactionsSheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row),
					EndIndex:   int64(row + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in sheet %s: %w", row+1, c.transactionsSheet, err)
	}
	return nil
}

// SavePrediction implements ports.PredictionWriter
func (c *Client) SavePrediction(ctx context.Context, p core.Prediction) (core.Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.read(ctx, c.predictionsSheet, "A:A")
	if err != nil {
		return core.Prediction{}, err
	}
	p.ID = maxID(values) + 1

	ref, err := c.writeRow(ctx, c.predictionsSheet, len(values)+1, "A", "H", predictionRow(p))
	if err != nil {
		return core.Prediction{}, err
	}
	c.logger.InfoContext(ctx, "Prediction appended to sheet", "id", p.ID, "sheets_ref", ref)
	return p, nil
}

// ListPredictions implements ports.PredictionLister
func (c *Client) ListPredictions(ctx context.Context, category core.Category, limit int) ([]core.Prediction, error) {
	values, err := c.read(ctx, c.predictionsSheet, "A:H")
	if err != nil {
		return nil, err
	}
	preds, skipped := parsePredictionRows(values)
	if skipped > 0 {
		c.logger.WarnContext(ctx, "Skipped unparseable prediction rows", "sheet", c.predictionsSheet, "skipped", skipped)
	}
	return filterPredictions(preds, category, limit), nil
}

// Ping reads the transactions header cell to prove credentials and sheet
// access.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.read(ctx, c.transactionsSheet, "A1:A1")
	return err
}

func (c *Client) read(ctx context.Context, sheet, cols string) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) writeRow(ctx context.Context, sheet string, row int, from, to string, cells []interface{}) (string, error) {
	rng := fmt.Sprintf("%s!%s%d:%s%d", sheet, from, row, to, row)
	vr := &gsheet.ValueRange{Values: [][]interface{}{cells}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}
	return rng, nil
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", title)
}

func maxID(values [][]interface{}) int64 {
	var max int64
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		if id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64); err == nil && id > max {
			max = id
		}
	}
	return max
}

// rowOfID returns the zero-based row index holding id in column A, or -1.
func rowOfID(values [][]interface{}, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i
		}
	}
	return -1
}
