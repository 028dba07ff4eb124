package storage

import (
	"context"
	"testing"
)

func TestNoopLister_Name(t *testing.T) {
	l := NewNoopLister()
	if l.Name() != "noop" {
		t.Errorf("expected 'noop', got %q", l.Name())
	}
}

func TestNoopLister_List(t *testing.T) {
	l := NewNoopLister()
	entries, err := l.List(context.Background(), "/logs/2021/01/01/*")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestNoopLister_Close(t *testing.T) {
	if err := NewNoopLister().Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
