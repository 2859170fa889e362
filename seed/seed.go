// Package seed holds the fixture records used by tests and by `notes-api -seed`.
package seed

import (
	"context"
	"fmt"

	"notes-api/auth"
	"notes-api/db"
	"notes-api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserFixture struct {
	ID        primitive.ObjectID
	Email     string
	Password  string
	WithToken bool
}

var (
	UserOneID = primitive.NewObjectID()
	UserTwoID = primitive.NewObjectID()

	secondCompletedAt int64 = 333

	Notes = []models.Note{
		{ID: primitive.NewObjectID(), Title: models.DefaultNoteTitle, Text: "first test note"},
		{
			ID:          primitive.NewObjectID(),
			Title:       models.DefaultNoteTitle,
			Text:        "second test note",
			Completed:   true,
			CompletedAt: &secondCompletedAt,
		},
	}

	Users = []UserFixture{
		{ID: UserOneID, Email: "luis@test.com", Password: "userOnePass", WithToken: true},
		{ID: UserTwoID, Email: "javier@test.com", Password: "userTwoPass"},
	}
)

// PopulateNotes replaces every note in store with Notes.
func PopulateNotes(ctx context.Context, store db.NoteStore) error {
	if err := store.DeleteAllNotes(ctx); err != nil {
		return fmt.Errorf("clear notes: %w", err)
	}
	for _, n := range Notes {
		n := n
		if n.CompletedAt != nil {
			at := *n.CompletedAt
			n.CompletedAt = &at
		}
		if err := store.InsertNote(ctx, &n); err != nil {
			return err
		}
	}
	return nil
}

// PopulateUsers replaces every user in store with Users, saved through svc so
// passwords are hashed. Users with WithToken hold one auth token signed by svc.
func PopulateUsers(ctx context.Context, store db.UserStore, svc *auth.Service) ([]*models.User, error) {
	if err := store.DeleteAllUsers(ctx); err != nil {
		return nil, fmt.Errorf("clear users: %w", err)
	}

	users := make([]*models.User, 0, len(Users))
	for _, f := range Users {
		u := models.NewUser(f.Email, f.Password)
		u.ID = f.ID
		if f.WithToken {
			token, err := svc.Signer().Sign(f.ID.Hex(), models.AccessAuth)
			if err != nil {
				return nil, err
			}
			u.Tokens = []models.Token{{Access: models.AccessAuth, Token: token}}
		}
		if err := svc.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("create %s: %w", f.Email, err)
		}
		users = append(users, u)
	}
	return users, nil
}
