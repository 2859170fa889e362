package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestNewNote(t *testing.T) {
	n := NewNote("  buy milk  ")

	assert.Equal(t, DefaultNoteTitle, n.Title)
	assert.Equal(t, "buy milk", n.Text)
	assert.False(t, n.IsTodo)
	assert.False(t, n.Completed)
	assert.Nil(t, n.CompletedAt)
	assert.NoError(t, n.Validate())
}

func TestNoteValidate(t *testing.T) {
	cases := []struct {
		title    string
		note     Note
		expField string
	}{
		{title: "empty-text", note: Note{Text: ""}, expField: "text"},
		{title: "blank-text", note: Note{Text: " \t\n"}, expField: "text"},
		{title: "completedAt-without-completed", note: Note{Text: "x", CompletedAt: new(int64)}, expField: "completedAt"},
		{title: "valid", note: Note{Text: "x"}},
		{title: "valid-completed", note: Note{Text: "x", Completed: true, CompletedAt: new(int64)}},
	}

	for _, c := range cases {
		t.Run(c.title, func(t *testing.T) {
			err := c.note.Validate()
			if c.expField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			require.Len(t, ve.Errors, 1)
			assert.Equal(t, c.expField, ve.Errors[0].Field)
		})
	}
}

func TestNewNoteUpdate(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	cases := []struct {
		title        string
		completed    any
		expCompleted bool
	}{
		{title: "true", completed: true, expCompleted: true},
		{title: "false", completed: false},
		{title: "absent", completed: nil},
		{title: "string-true", completed: "true"},
		{title: "number", completed: float64(1)},
	}

	for _, c := range cases {
		t.Run(c.title, func(t *testing.T) {
			u := NewNoteUpdate(nil, nil, nil, c.completed, now)
			assert.Equal(t, c.expCompleted, u.Completed)
			if c.expCompleted {
				require.NotNil(t, u.CompletedAt)
				assert.Equal(t, int64(1700000000123), *u.CompletedAt)
			} else {
				assert.Nil(t, u.CompletedAt)
			}
		})
	}
}

func TestNoteUpdateText(t *testing.T) {
	u := NewNoteUpdate(nil, strPtr("  new text "), nil, nil, time.Now())
	require.NotNil(t, u.Text)
	assert.Equal(t, "new text", *u.Text)
	assert.NoError(t, u.Validate())

	u = NewNoteUpdate(nil, strPtr("   "), nil, nil, time.Now())
	assert.Error(t, u.Validate())
}

func TestNoteUpdateSetDoc(t *testing.T) {
	u := NewNoteUpdate(nil, nil, nil, false, time.Now())
	set := u.SetDoc()
	assert.Len(t, set, 2)
	assert.Equal(t, false, set["completed"])
	assert.Nil(t, set["completedAt"])

	u = NewNoteUpdate(strPtr("t"), strPtr("x"), boolPtr(true), true, time.Now())
	set = u.SetDoc()
	assert.Len(t, set, 5)
	assert.Equal(t, "t", set["title"])
	assert.Equal(t, "x", set["text"])
	assert.Equal(t, true, set["isTodo"])
	assert.Equal(t, true, set["completed"])
	assert.NotNil(t, set["completedAt"])
}

func TestNoteUpdateApply(t *testing.T) {
	at := int64(333)
	n := &Note{Title: "a", Text: "b", Completed: true, CompletedAt: &at}

	NewNoteUpdate(strPtr("c"), nil, boolPtr(true), nil, time.Now()).Apply(n)

	assert.Equal(t, "c", n.Title)
	assert.Equal(t, "b", n.Text)
	assert.True(t, n.IsTodo)
	assert.False(t, n.Completed)
	assert.Nil(t, n.CompletedAt)
}

func TestParseID(t *testing.T) {
	_, err := ParseID("123abc")
	assert.ErrorIs(t, err, ErrMalformedID)

	_, err = ParseID("")
	assert.ErrorIs(t, err, ErrMalformedID)

	id, err := ParseID("5f1d7a3b9c8e4a2b1c0d9e8f")
	require.NoError(t, err)
	assert.Equal(t, "5f1d7a3b9c8e4a2b1c0d9e8f", id.Hex())
}
