package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"notes-api/models"
	"strings"

	"github.com/go-sql-driver/mysql"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	errDuplicateEntry   = 1062
	errNoReferencedRow2 = 1452
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		id CHAR(24) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		text TEXT NOT NULL,
		is_todo BOOLEAN NOT NULL DEFAULT FALSE,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at BIGINT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(24) PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_tokens (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id CHAR(24) NOT NULL,
		access VARCHAR(32) NOT NULL,
		token VARCHAR(512) NOT NULL,
		INDEX idx_user_tokens_user (user_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
}

// MySQLStore is the relational backend. Documents are flattened into the
// notes and users tables, a user's token array lives in user_tokens.
type MySQLStore struct {
	DB *sql.DB
}

func ConnectMySQL(ctx context.Context, dsn string) (*MySQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	s := &MySQLStore{DB: db}
	if err := s.CreateTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) CreateTables(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

func (s *MySQLStore) Close(ctx context.Context) error {
	return s.DB.Close()
}

func isMySQLError(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}

type rowScanner interface {
	Scan(dest ...any) error
}

func parseHex(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("corrupt id %q: %w", hex, err)
	}
	return id, nil
}

const noteColumns = "id, title, text, is_todo, completed, completed_at"

func scanNote(row rowScanner) (*models.Note, error) {
	var (
		n           models.Note
		hex         string
		completedAt sql.NullInt64
	)
	if err := row.Scan(&hex, &n.Title, &n.Text, &n.IsTodo, &n.Completed, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	id, err := parseHex(hex)
	if err != nil {
		return nil, err
	}
	n.ID = id
	if completedAt.Valid {
		n.CompletedAt = &completedAt.Int64
	}
	return &n, nil
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func (s *MySQLStore) InsertNote(ctx context.Context, n *models.Note) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO notes ("+noteColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		n.ID.Hex(), n.Title, n.Text, n.IsTodo, n.Completed, nullInt(n.CompletedAt))
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *MySQLStore) ListNotes(ctx context.Context) ([]models.Note, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+noteColumns+" FROM notes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("find notes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func (s *MySQLStore) FindNote(ctx context.Context, id primitive.ObjectID) (*models.Note, error) {
	return scanNote(s.DB.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id.Hex()))
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (s *MySQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *MySQLStore) DeleteNote(ctx context.Context, id primitive.ObjectID) (*models.Note, error) {
	var n *models.Note
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = scanNote(tx.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ? FOR UPDATE", id.Hex()))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id.Hex())
		return err
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *MySQLStore) UpdateNote(ctx context.Context, id primitive.ObjectID, u models.NoteUpdate) (*models.Note, error) {
	var n *models.Note
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = scanNote(tx.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ? FOR UPDATE", id.Hex()))
		if err != nil {
			return err
		}
		u.Apply(n)
		_, err = tx.ExecContext(ctx,
			"UPDATE notes SET title = ?, text = ?, is_todo = ?, completed = ?, completed_at = ? WHERE id = ?",
			n.Title, n.Text, n.IsTodo, n.Completed, nullInt(n.CompletedAt), id.Hex())
		return err
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *MySQLStore) DeleteAllNotes(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM notes")
	return err
}

func (s *MySQLStore) InsertUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)",
			u.ID.Hex(), u.Email, u.Password)
		if err != nil {
			return err
		}
		for _, t := range u.Tokens {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO user_tokens (user_id, access, token) VALUES (?, ?, ?)",
				u.ID.Hex(), t.Access, t.Token)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isMySQLError(err, errDuplicateEntry) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if u.Tokens == nil {
		u.Tokens = []models.Token{}
	}
	return nil
}

func (s *MySQLStore) loadUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var (
		u   models.User
		hex string
	)
	err := s.DB.QueryRowContext(ctx, query, args...).Scan(&hex, &u.Email, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if u.ID, err = parseHex(hex); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, "SELECT access, token FROM user_tokens WHERE user_id = ? ORDER BY id", hex)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	u.Tokens = []models.Token{}
	for rows.Next() {
		var t models.Token
		if err := rows.Scan(&t.Access, &t.Token); err != nil {
			return nil, err
		}
		u.Tokens = append(u.Tokens, t)
	}
	return &u, rows.Err()
}

func (s *MySQLStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.loadUser(ctx, "SELECT id, email, password_hash FROM users WHERE id = ?", id.Hex())
}

func (s *MySQLStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.loadUser(ctx, "SELECT id, email, password_hash FROM users WHERE email = ?", email)
}

func (s *MySQLStore) FindUserByToken(ctx context.Context, id primitive.ObjectID, access, token string) (*models.User, error) {
	q := strings.Join([]string{
		"SELECT u.id, u.email, u.password_hash FROM users u",
		"JOIN user_tokens t ON t.user_id = u.id",
		"WHERE u.id = ? AND t.access = ? AND t.token = ? LIMIT 1",
	}, " ")
	return s.loadUser(ctx, q, id.Hex(), access, token)
}

func (s *MySQLStore) userExists(ctx context.Context, id primitive.ObjectID) error {
	var one int
	err := s.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", id.Hex()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *MySQLStore) PushToken(ctx context.Context, id primitive.ObjectID, t models.Token) error {
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO user_tokens (user_id, access, token) VALUES (?, ?, ?)",
		id.Hex(), t.Access, t.Token)
	if isMySQLError(err, errNoReferencedRow2) {
		return ErrNotFound
	}
	return err
}

func (s *MySQLStore) PullToken(ctx context.Context, id primitive.ObjectID, token string) error {
	if err := s.userExists(ctx, id); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx, "DELETE FROM user_tokens WHERE user_id = ? AND token = ?", id.Hex(), token)
	return err
}

func (s *MySQLStore) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	if err := s.userExists(ctx, id); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id.Hex())
	return err
}

func (s *MySQLStore) DeleteUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id.Hex()); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *MySQLStore) DeleteAllUsers(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM users")
	return err
}
