package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type RegisterUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// UpdateUserInput is a partial update: nil fields keep the stored value.
// A non-nil Password is re-hashed before storage.
type UpdateUserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

// UserService manages accounts. Passwords are bcrypt-hashed before storage and
// never leave the service in plaintext.
type UserService interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, userID int) (*User, error)
	// Register creates an account, rejecting duplicate usernames and emails.
	Register(ctx context.Context, in RegisterUserInput) (*User, error)
	// Authenticate verifies credentials. It returns the same unauthorized error
	// whether the username is unknown or the password is wrong.
	Authenticate(ctx context.Context, username, password string) (*User, error)
	UpdateUser(ctx context.Context, userID int, in UpdateUserInput) (*User, error)
	DeleteUser(ctx context.Context, userID int) error
}

type userService struct {
	pool *pgxpool.Pool
}

func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

const userColumns = "user_id, username, password_hash, email, role, created_at, updated_at"

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, userID int) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id = $1", userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("user %d not found", userID)
		}
		return nil, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}
	return u, nil
}

func (s *userService) Register(ctx context.Context, in RegisterUserInput) (*User, error) {
	if in.Username == "" || in.Password == "" || in.Email == "" {
		return nil, Invalidf("username, password, and email are required")
	}

	if err := s.checkUsernameFree(ctx, in.Username, 0); err != nil {
		return nil, err
	}
	if err := s.checkEmailFree(ctx, in.Email, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = "user"
	}

	var userID int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, email, role)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id
	`, in.Username, string(hash), in.Email, role).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return s.GetUser(ctx, userID)
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, Invalidf("username and password are required")
	}

	u, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Unauthorizedf("invalid username or password")
		}
		return nil, fmt.Errorf("failed to fetch user %q: %w", username, err)
	}

	// bcrypt compares in constant time.
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, Unauthorizedf("invalid username or password")
	}
	return u, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID int, in UpdateUserInput) (*User, error) {
	cur, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil && *in.Username != cur.Username {
		if err := s.checkUsernameFree(ctx, *in.Username, userID); err != nil {
			return nil, err
		}
		cur.Username = *in.Username
	}
	if in.Email != nil && *in.Email != cur.Email {
		if err := s.checkEmailFree(ctx, *in.Email, userID); err != nil {
			return nil, err
		}
		cur.Email = *in.Email
	}
	if in.Role != nil {
		cur.Role = *in.Role
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		cur.PasswordHash = string(hash)
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE users
		SET username = $1, email = $2, role = $3, password_hash = $4, updated_at = NOW()
		WHERE user_id = $5
	`, cur.Username, cur.Email, cur.Role, cur.PasswordHash, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}
	return s.GetUser(ctx, userID)
}

func (s *userService) DeleteUser(ctx context.Context, userID int) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM users WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	return nil
}

func (s *userService) checkUsernameFree(ctx context.Context, username string, excludeID int) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND user_id <> $2)",
		username, excludeID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return Conflictf("username %s already exists", username)
	}
	return nil
}

func (s *userService) checkEmailFree(ctx context.Context, email string, excludeID int) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND user_id <> $2)",
		email, excludeID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user email: %w", err)
	}
	if exists {
		return Conflictf("email %s already exists", email)
	}
	return nil
}
