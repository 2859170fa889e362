// Package auth implements password hashing, auth token issuance and the
// user lookups built on them.
//
// A user may hold multiple valid tokens (multiple sessions). A token is valid
// while it verifies against the signing secret AND is still present in its
// owner's token list; logging out removes it from that list.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"notes-api/db"
	"notes-api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnauthenticated is returned for any token that does not resolve to a user.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	users  db.UserStore
	signer *Signer
	cost   int

	// dummyHash is compared against when the email is unknown so both
	// credential failures cost the same.
	dummyHash string
}

// NewService creates a new Service. A cost of 0 means bcrypt.DefaultCost.
func NewService(users db.UserStore, signer *Signer, cost int) (*Service, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, err := HashPassword("dummy-password", cost)
	if err != nil {
		return nil, err
	}
	return &Service{users: users, signer: signer, cost: cost, dummyHash: dummy}, nil
}

func (s *Service) Signer() *Signer {
	return s.signer
}

// hashIfModified hashes a staged plaintext password. A user loaded from the
// store has nothing staged, so its stored hash is never hashed again.
func (s *Service) hashIfModified(u *models.User) error {
	if !u.PasswordModified() {
		return nil
	}
	hash, err := HashPassword(u.PlainPassword(), s.cost)
	if err != nil {
		return err
	}
	u.PasswordHashed(hash)
	return nil
}

// CreateUser validates u, hashes its password and inserts it.
// A duplicate email comes back as a *models.ValidationError.
func (s *Service) CreateUser(ctx context.Context, u *models.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if err := s.hashIfModified(u); err != nil {
		return err
	}
	if err := s.users.InsertUser(ctx, u); err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			return models.NewValidationError("email", u.Email+" is already registered")
		}
		return err
	}
	return nil
}

func (s *Service) Register(ctx context.Context, email, password string) (*models.User, string, error) {
	u := models.NewUser(email, password)
	if err := s.CreateUser(ctx, u); err != nil {
		return nil, "", err
	}
	token, err := s.GenerateAuthToken(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// GenerateAuthToken signs a new auth token for u and appends it to u's token
// list. The token is returned only once it has been persisted.
func (s *Service) GenerateAuthToken(ctx context.Context, u *models.User) (string, error) {
	token, err := s.signer.Sign(u.ID.Hex(), models.AccessAuth)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	t := models.Token{Access: models.AccessAuth, Token: token}
	if err := s.users.PushToken(ctx, u.ID, t); err != nil {
		return "", fmt.Errorf("save token: %w", err)
	}
	u.Tokens = append(u.Tokens, t)
	return token, nil
}

func (s *Service) FindByToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.Access != models.AccessAuth {
		return nil, ErrUnauthenticated
	}
	id, err := models.ParseID(claims.UserID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.FindUserByToken(ctx, id, models.AccessAuth, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return u, nil
}

func (s *Service) FindByCredentials(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, db.ErrNotFound) {
		CheckPassword(s.dummyHash, password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.FindByCredentials(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.GenerateAuthToken(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// RemoveToken revokes token. Removing a token that is not there is a no-op.
func (s *Service) RemoveToken(ctx context.Context, u *models.User, token string) error {
	if err := s.users.PullToken(ctx, u.ID, token); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	kept := u.Tokens[:0]
	for _, t := range u.Tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
	return nil
}

// ChangePassword stages plain on a copy of u, so a rejected password never
// stays pending on u.
func (s *Service) ChangePassword(ctx context.Context, u *models.User, plain string) error {
	staged := *u
	staged.SetPassword(plain)
	if err := staged.Validate(); err != nil {
		return err
	}
	if err := s.hashIfModified(&staged); err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, staged.Password); err != nil {
		return err
	}
	u.PasswordHashed(staged.Password)
	return nil
}

// DeleteUser removes the user record together with every token it holds.
func (s *Service) DeleteUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.DeleteUser(ctx, id)
}
