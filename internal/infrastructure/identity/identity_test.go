package identity

import (
	"context"
	"errors"
	"testing"
)

func TestContextProvider(t *testing.T) {
	p := NewContextProvider()

	if _, ok := p.CurrentUserID(context.Background()); ok {
		t.Error("CurrentUserID() on empty context should report anonymous")
	}

	id, ok := p.CurrentUserID(WithUser(context.Background(), 42))
	if !ok || id != 42 {
		t.Errorf("CurrentUserID() = %d, %v; want 42, true", id, ok)
	}
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"7", 7, false},
		{" 12 ", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseUserID(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidUserID) {
					t.Errorf("ParseUserID(%q) error = %v, want %v", tt.raw, err, ErrInvalidUserID)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseUserID(%q) = %d, %v", tt.raw, got, err)
			}
		})
	}
}
