package db

import (
	"context"
	"errors"
	"fmt"
	"notes-api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type NoteStore interface {
	InsertNote(ctx context.Context, n *models.Note) error
	ListNotes(ctx context.Context) ([]models.Note, error)
	FindNote(ctx context.Context, id primitive.ObjectID) (*models.Note, error)
	DeleteNote(ctx context.Context, id primitive.ObjectID) (*models.Note, error)
	UpdateNote(ctx context.Context, id primitive.ObjectID, u models.NoteUpdate) (*models.Note, error)
	DeleteAllNotes(ctx context.Context) error
}

type UserStore interface {
	InsertUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// FindUserByToken matches the id and the exact {access, token} pair in one lookup.
	FindUserByToken(ctx context.Context, id primitive.ObjectID, access, token string) (*models.User, error)
	PushToken(ctx context.Context, id primitive.ObjectID, t models.Token) error
	PullToken(ctx context.Context, id primitive.ObjectID, token string) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	DeleteAllUsers(ctx context.Context) error
}

// Store is the single process wide handle built at startup and injected into handlers.
type Store interface {
	NoteStore
	UserStore
	Close(ctx context.Context) error
}

type Config struct {
	Driver   string
	MongoURI string
	MySQLDSN string
}

func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMongo, "":
		s, err := ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMySQL:
		s, err := ConnectMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
