package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/steamguard-web/telegram-bot/internal/ports"
)

func TestRecordAndCountCommands(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	records := []ports.CommandRecord{
		{TelegramUserID: 42, Intent: "codes", Outcome: "ok"},
		{TelegramUserID: 42, Intent: "codes", Outcome: "ok"},
		{TelegramUserID: 7, Intent: "confirm", Outcome: "error"},
	}
	for _, record := range records {
		if err := store.RecordCommand(ctx, record); err != nil {
			t.Fatalf("record command: %v", err)
		}
	}

	counts, err := store.CommandCounts(ctx)
	if err != nil {
		t.Fatalf("command counts: %v", err)
	}
	if counts["codes"] != 2 || counts["confirm"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
