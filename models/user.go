package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AccessAuth        = "auth"
	MinPasswordLength = 6

	// MaxPasswordLength is the bcrypt input limit in bytes.
	MaxPasswordLength = 72
)

var validate = validator.New()

type Token struct {
	Access string `json:"access" bson:"access"`
	Token  string `json:"token" bson:"token"`
}

// User is serialized to clients as {_id, email}; Password holds the bcrypt hash.
type User struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Email    string             `json:"email" bson:"email"`
	Password string             `json:"-" bson:"password"`
	Tokens   []Token            `json:"-" bson:"tokens"`

	plain    string
	modified bool
}

func NewUser(email, password string) *User {
	u := &User{Email: strings.TrimSpace(email), Tokens: []Token{}}
	u.SetPassword(password)
	return u
}

// SetPassword stages a plaintext password. It is hashed on the next save.
func (u *User) SetPassword(plain string) {
	u.plain = plain
	u.modified = true
}

func (u *User) PasswordModified() bool {
	return u.modified
}

func (u *User) PlainPassword() string {
	return u.plain
}

// PasswordHashed replaces the staged plaintext with its hash and clears the modified flag.
func (u *User) PasswordHashed(hash string) {
	u.Password = hash
	u.plain = ""
	u.modified = false
}

func (u *User) HasToken(access, token string) bool {
	for _, t := range u.Tokens {
		if t.Access == access && t.Token == token {
			return true
		}
	}
	return false
}

func (u *User) Validate() error {
	v := &ValidationError{}
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" {
		v.add("email", "email is required")
	} else if !IsEmail(u.Email) {
		v.add("email", u.Email+" is not a valid email")
	}
	if u.modified && len(u.plain) < MinPasswordLength {
		v.add("password", "password must be at least 6 characters")
	}
	if u.modified && len(u.plain) > MaxPasswordLength {
		v.add("password", "password must be at most 72 bytes")
	}
	if !u.modified && u.Password == "" {
		v.add("password", "password is required")
	}
	return v.err()
}

// IsEmail accepts bare addresses only, no display names or angle brackets.
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}
