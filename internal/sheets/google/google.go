package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"donations/internal/core"
	ports "donations/internal/sheets"
	"donations/internal/storage/csvfile"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.DonationMirror = (*Client)(nil)

// Config selects the target spreadsheet and how to authenticate. A service
// account wins when both it and an OAuth client are configured.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string

	// OAuth user credentials, as written by donations-oauth-init.
	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenFile  string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Sheets client authenticated with a service account or a
// stored OAuth user token.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Donations"
	}

	base := newHTTPClient()
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, base)
	ts, err := tokenSource(authCtx, cfg)
	if err != nil {
		return nil, err
	}
	client := oauth2.NewClient(authCtx, ts)
	client.Timeout = base.Timeout

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets mirror ready", "spreadsheet_id", spreadsheetID, "sheet", sheetName)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// tokenSource picks service account credentials when present and falls
// back to a stored OAuth user token.
func tokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	userAuth := strings.TrimSpace(cfg.OAuthClientJSON) != "" || strings.TrimSpace(cfg.OAuthClientFile) != ""
	creds, err := loadCredentials(ctx, cfg)
	if err != nil {
		if !userAuth {
			return nil, err
		}
		return userTokenSource(ctx, cfg)
	}
	jwt, err := googleauth.JWTConfigFromJSON(creds, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	return jwt.TokenSource(ctx), nil
}

func userTokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	conf, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	tokenFile := strings.TrimSpace(cfg.OAuthTokenFile)
	if tokenFile == "" {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_FILE)")
	}
	tok, err := ReadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Using OAuth user credentials", "token_file", tokenFile)
	return conf.TokenSource(ctx, tok), nil
}

// ReadToken loads an OAuth token saved by WriteToken.
func ReadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	return &tok, nil
}

// WriteToken saves tok to path readable only by the owner.
func WriteToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		_ = f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// OAuthConfig parses an OAuth client for the Sheets scope.
func OAuthConfig(cfg Config) (*oauth2.Config, error) {
	clientJSON, err := readInlineOrFile(cfg.OAuthClientJSON, cfg.OAuthClientFile, "oauth client")
	if err != nil {
		return nil, err
	}
	conf, err := googleauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return conf, nil
}

func readInlineOrFile(inline, file, what string) ([]byte, error) {
	if v := strings.TrimSpace(inline); v != "" {
		return []byte(v), nil
	}
	if f := strings.TrimSpace(file); f != "" {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s file: %w", what, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("missing %s", what)
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// newHTTPClient returns a pooled client with bounded timeouts for the Sheets API.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// Append writes d as the next row, adding the header first when the sheet is empty.
func (c *Client) Append(ctx context.Context, d core.Donation) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read sheet %s: %w", c.sheetName, err)
	}

	rows := nextRows(len(resp.Values), d)
	first := len(resp.Values) + 1
	last := first + len(rows) - 1
	target := fmt.Sprintf("%s!A%d:E%d", c.sheetName, first, last)

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, target, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", target, err)
	}

	ref := fmt.Sprintf("%s!A%d:E%d", c.sheetName, last, last)
	slog.InfoContext(ctx, "Donation mirrored to sheet", "ref", ref, "location", d.Location, "purpose", string(d.Purpose))
	return ref, nil
}

// nextRows is what to write given the current row count: the header too
// when the sheet is empty.
func nextRows(existing int, d core.Donation) [][]any {
	var rows [][]any
	if existing == 0 {
		head := make([]any, len(csvfile.Header))
		for i, h := range csvfile.Header {
			head[i] = h
		}
		rows = append(rows, head)
	}
	return append(rows, rowValues(d))
}

// rowValues sends the amount as a number so sheet formulas can sum it.
func rowValues(d core.Donation) []any {
	cols := csvfile.Row(d)
	return []any{cols[0], d.Amount.Float(), cols[2], cols[3], cols[4]}
}
