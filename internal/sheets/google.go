package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/AlenaMolokova/circlepay/internal/models"
)

// GoogleBackend talks to one spreadsheet through the Sheets v4 API.
type GoogleBackend struct {
	svc           *gsheets.Service
	spreadsheetID string
}

func NewGoogleBackend(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*GoogleBackend, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse service account: %v", models.ErrCredentialFailure, err)
	}
	svc, err := gsheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &GoogleBackend{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (b *GoogleBackend) Get(ctx context.Context, rng string) ([][]string, error) {
	resp, err := b.svc.Spreadsheets.Values.Get(b.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = fmt.Sprint(v)
		}
	}
	return rows, nil
}

func (b *GoogleBackend) Append(ctx context.Context, rng string, rows [][]string) error {
	_, err := b.svc.Spreadsheets.Values.Append(b.spreadsheetID, rng, &gsheets.ValueRange{Values: toValues(rows)}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return classify(err)
}

func (b *GoogleBackend) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	data := make([]*gsheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &gsheets.ValueRange{Range: u.Range, Values: toValues(u.Values)})
	}
	_, err := b.svc.Spreadsheets.Values.BatchUpdate(b.spreadsheetID, &gsheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	return classify(err)
}

func (b *GoogleBackend) SheetTitles(ctx context.Context) ([]string, error) {
	ss, err := b.svc.Spreadsheets.Get(b.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err)
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

func (b *GoogleBackend) AddSheet(ctx context.Context, title string) error {
	_, err := b.svc.Spreadsheets.BatchUpdate(b.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	return classify(err)
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		out[i] = make([]interface{}, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %v", models.ErrCredentialFailure, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", models.ErrCredentialFailure, err)
		case http.StatusBadRequest, http.StatusNotFound:
			return Permanent(err)
		}
	}
	return err
}
