package db

import (
	"context"
	"notes-api/models"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps everything in process. Records are copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	notes []models.Note
	users []models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func copyNote(n models.Note) *models.Note {
	if n.CompletedAt != nil {
		at := *n.CompletedAt
		n.CompletedAt = &at
	}
	return &n
}

func copyUser(u models.User) *models.User {
	u.Tokens = append([]models.Token{}, u.Tokens...)
	return &u
}

func (s *MemoryStore) noteIndex(id primitive.ObjectID) int {
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) userIndex(id primitive.ObjectID) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) InsertNote(ctx context.Context, n *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	s.notes = append(s.notes, *copyNote(*n))
	return nil
}

func (s *MemoryStore) ListNotes(ctx context.Context) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notes := make([]models.Note, 0, len(s.notes))
	for _, n := range s.notes {
		notes = append(notes, *copyNote(n))
	}
	return notes, nil
}

func (s *MemoryStore) FindNote(ctx context.Context, id primitive.ObjectID) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.noteIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return copyNote(s.notes[i]), nil
}

func (s *MemoryStore) DeleteNote(ctx context.Context, id primitive.ObjectID) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.noteIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	n := s.notes[i]
	s.notes = append(s.notes[:i], s.notes[i+1:]...)
	return &n, nil
}

func (s *MemoryStore) UpdateNote(ctx context.Context, id primitive.ObjectID, u models.NoteUpdate) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.noteIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	u.Apply(&s.notes[i])
	return copyNote(s.notes[i]), nil
}

func (s *MemoryStore) DeleteAllNotes(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = nil
	return nil
}

func (s *MemoryStore) InsertUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Tokens == nil {
		u.Tokens = []models.Token{}
	}
	stored := copyUser(*u)
	s.users = append(s.users, models.User{
		ID:       stored.ID,
		Email:    stored.Email,
		Password: stored.Password,
		Tokens:   stored.Tokens,
	})
	return nil
}

func (s *MemoryStore) findUser(match func(u *models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.users {
		if match(&s.users[i]) {
			return copyUser(s.users[i]), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.ID == id })
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Email == email })
}

func (s *MemoryStore) FindUserByToken(ctx context.Context, id primitive.ObjectID, access, token string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.ID == id && u.HasToken(access, token) })
}

func (s *MemoryStore) updateUser(id primitive.ObjectID, fn func(u *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	fn(&s.users[i])
	return nil
}

func (s *MemoryStore) PushToken(ctx context.Context, id primitive.ObjectID, t models.Token) error {
	return s.updateUser(id, func(u *models.User) {
		u.Tokens = append(u.Tokens, t)
	})
}

func (s *MemoryStore) PullToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return s.updateUser(id, func(u *models.User) {
		kept := []models.Token{}
		for _, t := range u.Tokens {
			if t.Token != token {
				kept = append(kept, t)
			}
		}
		u.Tokens = kept
	})
}

func (s *MemoryStore) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateUser(id, func(u *models.User) {
		u.Password = hash
	})
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	u := s.users[i]
	s.users = append(s.users[:i], s.users[i+1:]...)
	return &u, nil
}

func (s *MemoryStore) DeleteAllUsers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = nil
	return nil
}
