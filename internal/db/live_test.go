package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// TestLiveArchive reads the real archive and prints the latest sessions.
// Skipped if the archive doesn't exist.
func TestLiveArchive(t *testing.T) {
	dbPath := DefaultDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Skip("archive not found at", dbPath)
	}

	store, err := OpenReadOnly(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	entries, err := store.Entries(ctx, 5)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No sessions in archive")
		return
	}

	for _, e := range entries {
		fmt.Printf("  %s  %-30s %5ds  %d notes\n",
			e.EndedAt.Format("2006-01-02 15:04"), e.Name, e.Duration, len(e.Notes))
	}

	total, err := store.TotalSeconds(ctx, time.Now().Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("TotalSeconds: %v", err)
	}
	fmt.Printf("Tracked in the last 7 days: %ds\n", total)
}
