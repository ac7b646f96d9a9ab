package auth

import "time"

type Role string

const (
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User is the domain representation of an agent or admin account.
// It mirrors the users table and carries no JSON annotations so it can be
// reused by different presentation layers.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenPair bundles the access and refresh JWTs issued on login.
type TokenPair struct {
	Access  string
	Refresh string
}

// LoginResult bundles the tokens and domain user returned after a
// successful login.
type LoginResult struct {
	Tokens TokenPair
	User   User
}

// LoginRequest contains user login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserRequest contains the fields an admin supplies when adding a
// user to the roster. When GeneratePassword is set the service mints a
// temporary password and returns it once in CreateUserResult.
type CreateUserRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Role             Role   `json:"role"`
	GeneratePassword bool   `json:"generate_password"`
}

// CreateUserResult carries the created user and, when one was generated,
// the plaintext temporary password.
type CreateUserResult struct {
	User         User
	TempPassword string
}

// UpdateUserRequest applies a partial update; nil fields are left as-is.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Role     *Role   `json:"role"`
	Status   *Status `json:"status"`
	Password *string `json:"password"`
}
