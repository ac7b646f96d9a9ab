package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// TokenSource supplies a bearer token for each request. Short-lived service
// account tokens rotate, so the client asks every time instead of caching.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed token, mainly for tests and
// short-lived tooling.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) { return string(t), nil }

// RESTStore talks to the Google Sheets v4 values API over plain HTTP.
type RESTStore struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewRESTStore builds a Sheets values-API client. A nil httpClient falls
// back to http.DefaultClient.
func NewRESTStore(tokens TokenSource, httpClient *http.Client) *RESTStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RESTStore{
		baseURL: defaultBaseURL,
		http:    httpClient,
		tokens:  tokens,
	}
}

// WithBaseURL points the client at a different endpoint (test servers).
func (s *RESTStore) WithBaseURL(base string) *RESTStore {
	s.baseURL = base
	return s
}

type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values,omitempty"`
}

type batchUpdateRequest struct {
	ValueInputOption string       `json:"valueInputOption"`
	Data             []valueRange `json:"data"`
}

type spreadsheetMeta struct {
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

func (s *RESTStore) Tabs(ctx context.Context, sheetID string) ([]string, error) {
	var meta spreadsheetMeta
	path := fmt.Sprintf("%s/%s?fields=sheets.properties.title", s.baseURL, url.PathEscape(sheetID))
	if err := s.do(ctx, http.MethodGet, path, nil, &meta); err != nil {
		return nil, fmt.Errorf("sheets: get spreadsheet %s: %w", sheetID, err)
	}
	titles := make([]string, 0, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		titles = append(titles, sh.Properties.Title)
	}
	return titles, nil
}

func (s *RESTStore) Header(ctx context.Context, ref SheetRef) ([]string, error) {
	rows, err := s.getValues(ctx, ref, fmt.Sprintf("%s!1:1", ref.TabName))
	if err != nil {
		return nil, fmt.Errorf("sheets: get header: %w", err)
	}
	if len(rows) == 0 {
		return []string{}, nil
	}
	return rows[0], nil
}

func (s *RESTStore) Rows(ctx context.Context, ref SheetRef) ([][]string, error) {
	rows, err := s.getValues(ctx, ref, fmt.Sprintf("%s!A2:ZZ", ref.TabName))
	if err != nil {
		return nil, fmt.Errorf("sheets: get rows: %w", err)
	}
	return rows, nil
}

func (s *RESTStore) Row(ctx context.Context, ref SheetRef, rowIndex int) ([]string, error) {
	rows, err := s.getValues(ctx, ref, RowRange(ref, rowIndex))
	if err != nil {
		return nil, fmt.Errorf("sheets: get row %d: %w", rowIndex, err)
	}
	if len(rows) == 0 {
		return []string{}, nil
	}
	return rows[0], nil
}

func (s *RESTStore) UpdateCell(ctx context.Context, ref SheetRef, u CellUpdate) error {
	rng := CellRange(ref, u.RowIndex, u.Column)
	path := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW", s.baseURL, url.PathEscape(ref.SheetID), url.PathEscape(rng))
	body := valueRange{Values: [][]string{{u.Value}}}
	if err := s.do(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("sheets: update cell %s: %w", rng, err)
	}
	return nil
}

func (s *RESTStore) BatchUpdate(ctx context.Context, ref SheetRef, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	data := make([]valueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, valueRange{
			Range:  CellRange(ref, u.RowIndex, u.Column),
			Values: [][]string{{u.Value}},
		})
	}
	path := fmt.Sprintf("%s/%s/values:batchUpdate", s.baseURL, url.PathEscape(ref.SheetID))
	body := batchUpdateRequest{ValueInputOption: "RAW", Data: data}
	if err := s.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("sheets: batch update %d cells: %w", len(updates), err)
	}
	return nil
}

func (s *RESTStore) AppendRow(ctx context.Context, ref SheetRef, values []string) error {
	path := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		s.baseURL, url.PathEscape(ref.SheetID), url.PathEscape(ref.TabName))
	body := valueRange{Values: [][]string{values}}
	if err := s.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("sheets: append row: %w", err)
	}
	return nil
}

func (s *RESTStore) getValues(ctx context.Context, ref SheetRef, rng string) ([][]string, error) {
	path := fmt.Sprintf("%s/%s/values/%s", s.baseURL, url.PathEscape(ref.SheetID), url.PathEscape(rng))
	var vr valueRange
	if err := s.do(ctx, http.MethodGet, path, nil, &vr); err != nil {
		return nil, err
	}
	return vr.Values, nil
}

func (s *RESTStore) do(ctx context.Context, method, rawURL string, body, out any) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
