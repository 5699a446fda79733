package entity

// History actions besides the lifecycle trigger names
const (
	ActionCreated       = "created"
	ActionEdited        = "edited"
	ActionEditorRemoved = "editor_removed"
)

// Field limits of the article form
const (
	MaxWordLength            = 255
	MaxCharacteristicsLength = 255
	MaxExampleLength         = 255
)
