package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTelegram serves one update on the first getUpdates call and empty
// batches afterwards.
func fakeTelegram(t *testing.T) *httptest.Server {
	t.Helper()
	var polls int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/getUpdates") {
			if atomic.AddInt32(&polls, 1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[{"update_id":1,"message":{"message_id":1,"from":{"id":42,"username":"rene"},"chat":{"id":42},"text":"/codes"}}]}`))
				return
			}
			w.Write([]byte(`{"ok":true,"result":[]}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
}

func TestPollUpdatesFinishesInFlightHandlerOnCancel(t *testing.T) {
	srv := fakeTelegram(t)
	defer srv.Close()

	api := NewAPI("test-token", 5*time.Second, 10*time.Millisecond)
	api.apiBase = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	release := make(chan struct{})
	handlerCtxErr := make(chan error, 1)

	done := make(chan error, 1)
	go func() {
		done <- api.PollUpdates(ctx, func(handlerCtx context.Context, _ Update) {
			close(started)
			<-release
			handlerCtxErr <- handlerCtx.Err()
		})
	}()

	<-started
	cancel()

	// The loop must wait for the running handler, not abandon it.
	select {
	case <-done:
		t.Fatal("PollUpdates returned while a handler was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected PollUpdates error: %v", err)
	}
	if err := <-handlerCtxErr; err != nil {
		t.Fatalf("handler context was cancelled by shutdown: %v", err)
	}
}

func TestPollUpdatesDispatchesMessage(t *testing.T) {
	srv := fakeTelegram(t)
	defer srv.Close()

	api := NewAPI("test-token", 5*time.Second, 10*time.Millisecond)
	api.apiBase = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Update, 1)
	done := make(chan error, 1)
	go func() {
		done <- api.PollUpdates(ctx, func(_ context.Context, u Update) {
			got <- u
		})
	}()

	select {
	case update := <-got:
		if update.Message == nil || update.Message.Text != "/codes" || update.Message.From.ID != 42 {
			t.Fatalf("unexpected update %+v", update)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatched update")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected PollUpdates error: %v", err)
	}
}
