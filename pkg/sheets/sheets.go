package sheets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"tpcollect/pkg/config"
	"tpcollect/pkg/store"
)

const (
	maxReadAttempts = 3
	maxBackoff      = 8 * time.Second
)

// Store is a store.Store backed by Google Sheets. Every resource key maps to
// a spreadsheet URL and rows live on its first sheet.
type Store struct {
	cfg          *config.Config
	opts         []option.ClientOption
	authenticate func(ctx context.Context) ([]option.ClientOption, error)
	sleep        func(context.Context, time.Duration) error
}

// NewStore returns a Sheets store. Extra client options are appended after
// the credential option.
func NewStore(cfg *config.Config, opts ...option.ClientOption) *Store {
	s := &Store{
		cfg:   cfg,
		opts:  opts,
		sleep: sleepContext,
	}
	s.authenticate = s.serviceAccount
	return s
}

func (s *Store) serviceAccount(ctx context.Context) ([]option.ClientOption, error) {
	creds, err := Credentials(ctx, s.cfg.Store.Connections.GSheets)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// SheetClient addresses one sheet of one spreadsheet.
type SheetClient struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

// open resolves the resource, authenticates and finds the first sheet.
func (s *Store) open(ctx context.Context, resource string) (*SheetClient, error) {
	ref, ok := s.cfg.ResourceURL(resource)
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownResource, resource)
	}
	id, err := SpreadsheetID(ref)
	if err != nil {
		return nil, err
	}
	opts, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	srv, err := sheets.NewService(ctx, append(opts, s.opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	ss, err := srv.Spreadsheets.Get(id).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return nil, fmt.Errorf("spreadsheet %s has no sheet", id)
	}
	return &SheetClient{
		service:       srv,
		spreadsheetID: id,
		sheetName:     ss.Sheets[0].Properties.Title,
	}, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := s.cfg.RequestTimeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// Append adds rec as the new last row of the resource's first sheet.
func (s *Store) Append(ctx context.Context, resource string, rec store.Record) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sheet, err := s.open(ctx, resource)
	if err != nil {
		return &store.RemoteWriteError{Resource: resource, Err: err}
	}
	if s.cfg.Store.CheckHeader {
		header, err := sheet.Header(ctx)
		if err != nil {
			return &store.RemoteWriteError{Resource: resource, Err: err}
		}
		if len(header) > 0 && len(header) != len(rec) {
			return &store.RemoteWriteError{
				Resource: resource,
				Err:      fmt.Errorf("%w: %d columns, record has %d", store.ErrColumnMismatch, len(header), len(rec)),
			}
		}
	}
	if err := sheet.AppendRow(ctx, rec.Values()); err != nil {
		return &store.RemoteWriteError{Resource: resource, Err: err}
	}
	log.WithFields(log.Fields{"resource": resource, "sheet": sheet.sheetName}).Debug("row appended")
	return nil
}

// ReadAll returns the header and every row of the resource's first sheet.
func (s *Store) ReadAll(ctx context.Context, resource string) (store.Table, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		sheet  *SheetClient
		values [][]interface{}
		err    error
	)
	for attempt := 0; attempt < maxReadAttempts; attempt++ {
		sheet, err = s.open(ctx, resource)
		if err == nil {
			values, err = sheet.Values(ctx)
		}
		if err == nil {
			return toTable(values), nil
		}
		if !rateLimited(err) {
			break
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		log.Printf("Rate limited by Google Sheets API, retrying in %v...", backoff)
		if serr := s.sleep(ctx, backoff); serr != nil {
			return store.Table{}, &store.RemoteReadError{Resource: resource, Err: serr}
		}
	}
	return store.Table{}, &store.RemoteReadError{Resource: resource, Err: err}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func rateLimited(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == http.StatusTooManyRequests
}

// AppendRow appends one row of raw values. Nothing is parsed by Sheets, so
// "1-2" stays text instead of turning into a date.
func (c *SheetClient) AppendRow(ctx context.Context, row []interface{}) error {
	_, err := c.service.Spreadsheets.Values.Append(
		c.spreadsheetID,
		quoteSheet(c.sheetName)+"!A1",
		&sheets.ValueRange{Values: [][]interface{}{row}},
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

// Header returns the first row of the sheet.
func (c *SheetClient) Header(ctx context.Context) ([]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(
		c.spreadsheetID,
		quoteSheet(c.sheetName)+"!1:1",
	).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return resp.Values[0], nil
}

// Values returns every non-empty row of the sheet, header first.
func (c *SheetClient) Values(ctx context.Context) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(
		c.spreadsheetID,
		quoteSheet(c.sheetName),
	).ValueRenderOption("FORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
