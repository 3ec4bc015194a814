package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteConformance(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "webhooks.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()
	conformance(t, s)
}

// Reopening the same file must see previously written rows and Init must
// not clobber them.
func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webhooks.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	w, err := s.InsertWebhook(context.Background(), testHook("message"))
	if err != nil {
		t.Fatalf("InsertWebhook: %v", err)
	}
	_ = s.Close()

	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if err := s2.Init(context.Background()); err != nil {
		t.Fatalf("Init after reopen: %v", err)
	}
	got, err := s2.ListWebhooks(context.Background())
	if err != nil {
		t.Fatalf("ListWebhooks: %v", err)
	}
	if len(got) != 1 || got[0].ID != w.ID {
		t.Fatalf("row did not survive reopen: %+v", got)
	}
}
