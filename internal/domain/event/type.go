package event

// Type identifies the type of domain event
type Type string

const (
	TypeArticleCreated Type = "article.created"
	TypeStateChanged   Type = "article.state_changed"
	TypeArticleEdited  Type = "article.edited"
	TypeEditorRemoved  Type = "article.editor_removed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeArticleCreated,
		TypeStateChanged,
		TypeArticleEdited,
		TypeEditorRemoved:
		return true
	default:
		return false
	}
}
