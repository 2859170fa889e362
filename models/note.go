package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultNoteTitle = "Untitled text"

type Note struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Title       string             `json:"title" bson:"title"`
	Text        string             `json:"text" bson:"text"`
	IsTodo      bool               `json:"isTodo" bson:"isTodo"`
	Completed   bool               `json:"completed" bson:"completed"`
	CompletedAt *int64             `json:"completedAt" bson:"completedAt"`
}

// NewNote builds a note from the client supplied text with every default applied.
func NewNote(text string) *Note {
	return &Note{
		Title: DefaultNoteTitle,
		Text:  strings.TrimSpace(text),
	}
}

func (n *Note) Validate() error {
	v := &ValidationError{}
	n.Text = strings.TrimSpace(n.Text)
	if n.Text == "" {
		v.add("text", "text is required")
	}
	if !n.Completed && n.CompletedAt != nil {
		v.add("completedAt", "completedAt must be empty unless completed")
	}
	return v.err()
}

// NoteUpdate is the allow-listed set of fields a partial update may touch.
// Completed and CompletedAt are always written.
type NoteUpdate struct {
	Title       *string
	Text        *string
	IsTodo      *bool
	Completed   bool
	CompletedAt *int64
}

// NewNoteUpdate derives the completion fields: only a literal boolean true marks
// the note completed and stamps it with now, anything else clears both fields.
func NewNoteUpdate(title, text *string, isTodo *bool, completed any, now time.Time) NoteUpdate {
	u := NoteUpdate{Title: title, IsTodo: isTodo}
	if text != nil {
		t := strings.TrimSpace(*text)
		u.Text = &t
	}
	if b, ok := completed.(bool); ok && b {
		ms := now.UnixMilli()
		u.Completed = true
		u.CompletedAt = &ms
	}
	return u
}

func (u NoteUpdate) Validate() error {
	v := &ValidationError{}
	if u.Text != nil && *u.Text == "" {
		v.add("text", "text is required")
	}
	return v.err()
}

// Apply copies the update onto n.
func (u NoteUpdate) Apply(n *Note) {
	if u.Title != nil {
		n.Title = *u.Title
	}
	if u.Text != nil {
		n.Text = *u.Text
	}
	if u.IsTodo != nil {
		n.IsTodo = *u.IsTodo
	}
	n.Completed = u.Completed
	n.CompletedAt = u.CompletedAt
}

// SetDoc renders the update as a $set document.
func (u NoteUpdate) SetDoc() bson.M {
	set := bson.M{
		"completed":   u.Completed,
		"completedAt": u.CompletedAt,
	}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Text != nil {
		set["text"] = *u.Text
	}
	if u.IsTodo != nil {
		set["isTodo"] = *u.IsTodo
	}
	return set
}
