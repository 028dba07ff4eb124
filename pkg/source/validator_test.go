package source

import (
	"context"
	"errors"
	"testing"

	"github.com/txn2/timepath/pkg/storage"
)

func TestExistenceValidator(t *testing.T) {
	lister := &fakeLister{entries: map[string][]storage.Entry{
		"/logs/2021/01/01/*": {{Name: "part-00000"}},
	}}
	v := ExistenceValidator{Lister: lister}

	good, err := v.Good(context.Background(), "/logs/2021/01/01/*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !good {
		t.Error("expected existing partition to be good")
	}

	good, err = v.Good(context.Background(), "/logs/2021/01/02/*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if good {
		t.Error("expected missing partition to be bad")
	}
}

func TestMarkerValidator(t *testing.T) {
	lister := &fakeLister{entries: map[string][]storage.Entry{
		"/complete/*":   {{Name: "part-00000"}, {Name: "_SUCCESS"}},
		"/incomplete/*": {{Name: "part-00000"}},
		"/custom/*":     {{Name: "part-00000"}, {Name: "_DONE"}},
	}}

	tests := []struct {
		name   string
		marker string
		path   string
		want   bool
	}{
		{"marker present", "", "/complete/*", true},
		{"marker absent", "", "/incomplete/*", false},
		{"empty partition", "", "/missing/*", false},
		{"custom marker", "_DONE", "/custom/*", true},
		{"custom marker ignores default", "_DONE", "/complete/*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := MarkerValidator{Lister: lister, Marker: tt.marker}
			good, err := v.Good(context.Background(), tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if good != tt.want {
				t.Errorf("expected %v, got %v", tt.want, good)
			}
		})
	}
}

func TestValidatorErrorPropagates(t *testing.T) {
	backendErr := errors.New("unavailable")
	lister := &fakeLister{err: backendErr}

	if _, err := (ExistenceValidator{Lister: lister}).Good(context.Background(), "/p/*"); !errors.Is(err, backendErr) {
		t.Errorf("expected backend error, got %v", err)
	}
	if _, err := (MarkerValidator{Lister: lister}).Good(context.Background(), "/p/*"); !errors.Is(err, backendErr) {
		t.Errorf("expected backend error, got %v", err)
	}
}
