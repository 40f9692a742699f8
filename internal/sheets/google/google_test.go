package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"donations/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("err = %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadCredentials_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	b, err := loadCredentials(context.Background(), Config{CredentialsFile: path})
	if err != nil {
		t.Fatalf("loadCredentials: %v", err)
	}
	if !strings.Contains(string(b), "service_account") {
		t.Errorf("unexpected credentials %q", b)
	}

	if _, err := loadCredentials(context.Background(), Config{CredentialsFile: path + ".missing"}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAppend_NoService(t *testing.T) {
	c := &Client{spreadsheetID: "x", sheetName: "Donations"}
	if _, err := c.Append(context.Background(), core.Donation{}); err == nil {
		t.Error("expected error without a service")
	}
}

func TestNextRows(t *testing.T) {
	d := core.Donation{
		Name:     "Ravi",
		Amount:   core.Money{Paise: 15050},
		Purpose:  core.PurposeHealth,
		Location: "Delhi",
		Date:     time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC),
	}

	rows := nextRows(0, d)
	if len(rows) != 2 {
		t.Fatalf("empty sheet should get header plus row, got %d rows", len(rows))
	}
	if rows[0][0] != "Name" || rows[0][4] != "Date" {
		t.Errorf("header = %v", rows[0])
	}
	want := []any{"Ravi", 150.5, "Health", "Delhi", "2024-03-01 09:05:00"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("col %d = %v, want %v", i, rows[1][i], v)
		}
	}

	if rows := nextRows(7, d); len(rows) != 1 {
		t.Errorf("non-empty sheet should get one row, got %d", len(rows))
	}
}

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func TestNew_OAuthUser(t *testing.T) {
	ctx := context.Background()
	tokenFile := filepath.Join(t.TempDir(), "token.json")

	_, err := New(ctx, Config{SpreadsheetID: "sheet-id", OAuthClientJSON: testOAuthClient})
	if err == nil || !strings.Contains(err.Error(), "missing oauth token") {
		t.Fatalf("err = %v, want missing token", err)
	}

	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	if err := WriteToken(tokenFile, tok); err != nil {
		t.Fatalf("WriteToken: %v", err)
	}
	info, err := os.Stat(tokenFile)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := ReadToken(tokenFile)
	if err != nil || got.RefreshToken != "refresh" {
		t.Fatalf("ReadToken = %+v, %v", got, err)
	}

	c, err := New(ctx, Config{SpreadsheetID: "sheet-id", OAuthClientJSON: testOAuthClient, OAuthTokenFile: tokenFile})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.sheetName != "Donations" {
		t.Errorf("sheetName = %q", c.sheetName)
	}
}

func TestNew_InvalidServiceAccount(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet-id", CredentialsJSON: "not json"})
	if err == nil || !strings.Contains(err.Error(), "parse service account credentials") {
		t.Fatalf("err = %v", err)
	}
}

func TestOAuthConfig(t *testing.T) {
	if _, err := OAuthConfig(Config{}); err == nil {
		t.Error("expected error without a client")
	}
	if _, err := OAuthConfig(Config{OAuthClientJSON: "not json"}); err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Errorf("err = %v", err)
	}
	conf, err := OAuthConfig(Config{OAuthClientJSON: testOAuthClient})
	if err != nil {
		t.Fatal(err)
	}
	if conf.ClientID != "test" {
		t.Errorf("ClientID = %q", conf.ClientID)
	}
}
