package entity

import (
	"errors"
	"strings"
	"testing"

	"github.com/vlaamswoordenboek/woordenboek/pkg/utils"
)

func strPtr(s string) *string { return &s }

func TestStripParagraphTags(t *testing.T) {
	a := &Article{Example: "<p>Da's nen plezanten</p><p>tweede</p>"}
	if got := a.DisplayExample(); got != "Da's nen plezantentweede" {
		t.Errorf("DisplayExample() = %q", got)
	}
}

func TestArticleChanges_ApplyTo(t *testing.T) {
	a := &Article{Word: "old", Description: "desc", Example: "ex"}
	changes := ArticleChanges{Word: strPtr("new"), Example: strPtr("")}

	if changes.IsEmpty() {
		t.Fatal("IsEmpty() = true, want false")
	}
	changes.ApplyTo(a)

	if a.Word != "new" || a.Description != "desc" || a.Example != "" {
		t.Errorf("ApplyTo() result = %+v", a)
	}
	if !(ArticleChanges{}).IsEmpty() {
		t.Error("zero ArticleChanges should be empty")
	}
}

func TestSuggestion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   Suggestion
		wantErr bool
	}{
		{"valid", Suggestion{Word: "ambetant", Description: "vervelend"}, false},
		{"missing word", Suggestion{Description: "vervelend"}, true},
		{"missing description", Suggestion{Word: "ambetant"}, true},
		{"word too long", Suggestion{Word: strings.Repeat("a", MaxWordLength+1), Description: "x"}, true},
		{"example too long", Suggestion{Word: "a", Description: "x", Example: strings.Repeat("e", MaxExampleLength+1)}, true},
		{"characteristics at limit", Suggestion{Word: "a", Description: "x", Characteristics: strings.Repeat("c", MaxCharacteristicsLength)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr && !errors.Is(err, utils.ErrValidation) {
				t.Errorf("Validate() error = %v, want %v", err, utils.ErrValidation)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestArticleChanges_Validate(t *testing.T) {
	if err := (ArticleChanges{Example: strPtr("kort")}).Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
	if err := (ArticleChanges{Description: strPtr(" ")}).Validate(); err == nil {
		t.Error("Validate() should reject a blank description")
	}
}
