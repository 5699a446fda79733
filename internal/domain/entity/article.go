package entity

import (
	"strings"
	"time"

	"github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
	"github.com/vlaamswoordenboek/woordenboek/pkg/utils"
)

// Article represents a dictionary entry under editorial review
type Article struct {
	ID              int64          `json:"id"`
	Word            string         `json:"word"`
	Description     string         `json:"description"`
	Example         string         `json:"example"`
	Characteristics string         `json:"characteristics"`
	State           workflow.State `json:"state"`
	EditorID        *int64         `json:"editor_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// DisplayExample returns the example without the paragraph tags the rich text editor wraps it in.
func (a *Article) DisplayExample() string {
	return StripParagraphTags(a.Example)
}

// StripParagraphTags removes <p> and </p> markers.
func StripParagraphTags(s string) string {
	return strings.NewReplacer("<p>", "", "</p>", "").Replace(s)
}

// ArticleChanges holds user-supplied field edits. Nil fields are left untouched.
type ArticleChanges struct {
	Word            *string `json:"word,omitempty"`
	Description     *string `json:"description,omitempty"`
	Example         *string `json:"example,omitempty"`
	Characteristics *string `json:"characteristics,omitempty"`
}

// IsEmpty reports whether no field is edited
func (c ArticleChanges) IsEmpty() bool {
	return c.Word == nil && c.Description == nil && c.Example == nil && c.Characteristics == nil
}

// ApplyTo copies the edited fields onto an article
func (c ArticleChanges) ApplyTo(a *Article) {
	if c.Word != nil {
		a.Word = *c.Word
	}
	if c.Description != nil {
		a.Description = *c.Description
	}
	if c.Example != nil {
		a.Example = *c.Example
	}
	if c.Characteristics != nil {
		a.Characteristics = *c.Characteristics
	}
}

// Suggestion is a word submitted by a visitor; it becomes an article in the New state
type Suggestion struct {
	Word            string `json:"word"`
	Description     string `json:"description"`
	Example         string `json:"example"`
	Characteristics string `json:"characteristics"`
}

// StateCount is the number of articles in one state
type StateCount struct {
	State workflow.State `json:"state"`
	Label string         `json:"label"`
	Count int            `json:"count"`
}

// ArticleFilter narrows article listings
type ArticleFilter struct {
	State  *workflow.State
	Limit  int
	Offset int
}

// Validate checks a suggestion against the article form limits
func (s Suggestion) Validate() error {
	var v utils.ValidationErrors
	v.Required("word", s.Word)
	v.MaxLength("word", s.Word, MaxWordLength)
	v.Required("description", s.Description)
	v.MaxLength("example", s.Example, MaxExampleLength)
	v.MaxLength("characteristics", s.Characteristics, MaxCharacteristicsLength)
	return v.Err()
}

// Validate checks the edited fields against the article form limits
func (c ArticleChanges) Validate() error {
	var v utils.ValidationErrors
	if c.Word != nil {
		v.Required("word", *c.Word)
		v.MaxLength("word", *c.Word, MaxWordLength)
	}
	if c.Description != nil {
		v.Required("description", *c.Description)
	}
	if c.Example != nil {
		v.MaxLength("example", *c.Example, MaxExampleLength)
	}
	if c.Characteristics != nil {
		v.MaxLength("characteristics", *c.Characteristics, MaxCharacteristicsLength)
	}
	return v.Err()
}
