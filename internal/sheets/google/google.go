package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"juku/internal/core"
	"juku/internal/log"
	ports "juku/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	summaryBase   string
	ledgerBase    string
}

// Ensure interface conformance
var _ ports.Exporter = (*Client)(nil)

// Options configures the Sheets client. Credentials come from CredentialsJSON,
// then CredentialsFile, then GOOGLE_APPLICATION_CREDENTIALS.
type Options struct {
	SpreadsheetID   string
	SummarySheet    string
	LedgerSheet     string
	CredentialsJSON string
	CredentialsFile string

	// ClientOptions replace the credential lookup when set (tests, emulators).
	ClientOptions []goption.ClientOption
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if opts.SummarySheet == "" {
		opts.SummarySheet = ports.SummarySheet
	}
	if opts.LedgerSheet == "" {
		opts.LedgerSheet = ports.LedgerSheet
	}

	clientOpts := opts.ClientOptions
	if len(clientOpts) == 0 {
		creds, err := credentials(ctx, opts)
		if err != nil {
			return nil, err
		}
		clientOpts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		summaryBase:   opts.SummarySheet,
		ledgerBase:    opts.LedgerSheet,
	}, nil
}

func credentials(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", log.FieldComponent, log.ComponentSheets)
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

func (c *Client) WriteMonthly(ctx context.Context, year int, rows []core.MonthlySummary) error {
	return c.replace(ctx, ports.SheetName(c.summaryBase, year), ports.MonthlyValues(rows))
}

func (c *Client) WriteStudents(ctx context.Context, year int, rows []core.StudentSummary) error {
	return c.replace(ctx, ports.SheetName(c.ledgerBase, year), ports.LedgerValues(rows))
}

// replace clears the sheet and writes grid from A1.
func (c *Client) replace(ctx context.Context, sheet string, grid [][]interface{}) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:Z", sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}

	rng := fmt.Sprintf("%s!A1", sheet)
	vr := &gsheet.ValueRange{Values: grid}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", sheet, err)
	}

	slog.InfoContext(ctx, "Sheet updated",
		log.FieldComponent, log.ComponentSheets,
		log.FieldSheetsRange, rng,
		"rows", len(grid))
	return nil
}
