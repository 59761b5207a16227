package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/steamguard-web/telegram-bot/internal/config"
	"github.com/steamguard-web/telegram-bot/internal/domain"
)

func testClient(url string) *Client {
	return NewClient(config.Config{
		BackendURL:     url,
		BotToken:       "secret-token",
		BackendTimeout: 5 * time.Second,
	})
}

func TestErrorMessageFieldIsExtracted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no such code"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Codes(context.Background(), "42")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	var backendErr *Error
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if backendErr.Message != "no such code" {
		t.Fatalf("expected message from body, got %q", backendErr.Message)
	}
	if backendErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", backendErr.StatusCode)
	}
}

func TestErrorNonObjectBodyIsStringified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`["boom"]`))
	}))
	defer srv.Close()

	err := testClient(srv.URL).Link(context.Background(), "c", "42", "user")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if err.Error() != `["boom"]` {
		t.Fatalf("expected raw body as message, got %q", err.Error())
	}
}

func TestNonJSONSuccessBodyIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Accounts(context.Background(), "42")
	if err == nil {
		t.Fatal("expected error for non-JSON success body")
	}
	if err.Error() != "<html>oops</html>" {
		t.Fatalf("expected raw text as message, got %q", err.Error())
	}
}

func TestAuthTokenAttachedToEveryCall(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("x-telegram-bot-token")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).Accounts(context.Background(), "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotToken != "secret-token" {
		t.Fatalf("expected shared-secret header, got %q", gotToken)
	}
}

func TestLinkSendsExpectedBody(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if err := testClient(srv.URL).Link(context.Background(), "XYZ", "42", "rene"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/telegram/bot/link" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody["code"] != "XYZ" || gotBody["telegramUserId"] != "42" || gotBody["username"] != "rene" {
		t.Fatalf("unexpected body %v", gotBody)
	}
}

func TestConfirmOmitsEmptyNonce(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	confirmation := domain.PendingConfirmation{AccountID: 7, ConfirmationID: "991"}
	if err := testClient(srv.URL).Confirm(context.Background(), "42", confirmation); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := gotBody["nonce"]; ok {
		t.Fatalf("expected nonce omitted, got body %v", gotBody)
	}
	if gotBody["confirmationId"] != "991" || gotBody["telegramUserId"] != "42" {
		t.Fatalf("unexpected body %v", gotBody)
	}
}

func TestTransportFailureYieldsGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := testClient(srv.URL).OAuth(context.Background(), "c", "42", "user")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if err.Error() != "backend request failed" {
		t.Fatalf("expected generic transport message, got %q", err.Error())
	}
}

func TestPendingConfirmationsDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"account_id":1,"confirmation_id":"a","nonce":"n1"},{"account_id":2,"confirmation_id":"b"}]}`))
	}))
	defer srv.Close()

	items, err := testClient(srv.URL).PendingConfirmations(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].AccountID != 1 || items[0].ConfirmationID != "a" || items[0].Nonce != "n1" {
		t.Fatalf("unexpected first item %+v", items[0])
	}
}
