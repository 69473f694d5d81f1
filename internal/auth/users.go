// Package auth provides user accounts, password and passkey login, and sessions.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UserType is the role a user plays in the system.
type UserType string

const (
	Institution UserType = "institution"
	Owner       UserType = "owner"
	Tenant      UserType = "tenant"
	Investor    UserType = "investor"
)

// ValidUserTypes is the set of allowed user types.
var ValidUserTypes = []UserType{Institution, Owner, Tenant, Investor}

// IsValid checks if a user type is recognized.
func (t UserType) IsValid() bool {
	for _, v := range ValidUserTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the user type.
func (t UserType) Label() string {
	switch t {
	case Institution:
		return "Institution"
	case Owner:
		return "Owner"
	case Tenant:
		return "Tenant"
	case Investor:
		return "Investor"
	default:
		return string(t)
	}
}

// DashboardPath returns the dashboard route for the user type.
func (t UserType) DashboardPath() string {
	if !t.IsValid() {
		return "/"
	}
	return "/" + string(t) + "_dashboard/"
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// User is an account that can log in.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Type      UserType  `json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Is reports whether the user has one of the given types.
func (u *User) Is(types ...UserType) bool {
	if u == nil {
		return false
	}
	for _, t := range types {
		if u.Type == t {
			return true
		}
	}
	return false
}

// UserStore manages user accounts in SQLite.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Add creates a new user with a bcrypt-hashed password.
func (s *UserStore) Add(username, password string, userType UserType) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if !userType.IsValid() {
		return nil, fmt.Errorf("invalid user type: %q", userType)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	result, err := s.db.Exec(
		"INSERT INTO users (username, password_hash, user_type) VALUES (?, ?, ?)",
		username, string(hash), string(userType),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user ID: %w", err)
	}

	return s.GetByID(id)
}

// Authenticate checks a username and password and returns the user.
func (s *UserStore) Authenticate(username, password string) (*User, error) {
	var u User
	var hash, userType string
	err := s.db.QueryRow(
		"SELECT id, username, user_type, created_at, password_hash FROM users WHERE username = ?",
		strings.TrimSpace(username),
	).Scan(&u.ID, &u.Username, &userType, &u.CreatedAt, &hash)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	u.Type = UserType(userType)
	return &u, nil
}

const userColumns = "id, username, user_type, created_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	var userType string
	if err := row.Scan(&u.ID, &u.Username, &userType, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Type = UserType(userType)
	return &u, nil
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(id int64) (*User, error) {
	u, err := scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// GetByUsername returns a user by username.
func (s *UserStore) GetByUsername(username string) (*User, error) {
	u, err := scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", strings.TrimSpace(username)))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// List returns all users ordered by username.
func (s *UserStore) List() ([]*User, error) {
	rows, err := s.db.Query("SELECT " + userColumns + " FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("warning: closing rows: %v\n", cerr)
		}
	}()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// Count returns the number of users.
func (s *UserStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
