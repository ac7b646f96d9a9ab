package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrInactiveUser signals a login attempt on a deactivated account.
	ErrInactiveUser = errors.New("auth: user is inactive")
	// ErrInvalidToken signals a malformed, expired, or wrong-type JWT.
	ErrInvalidToken = errors.New("auth: invalid token")
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
	resetTokenTTL   = 30 * time.Minute

	tempPasswordLen      = 12
	tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Service handles authentication and roster management.
type Service struct {
	repo      Repository
	jwtSecret []byte
	now       func() time.Time
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// Login authenticates a user, records the login time, and returns an
// access/refresh token pair.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.Status == StatusInactive {
		return LoginResult{}, ErrInactiveUser
	}

	loginAt := s.now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, loginAt); err != nil {
		return LoginResult{}, err
	}
	user.LastLogin = &loginAt

	tokens, err := s.issueTokenPair(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: issue tokens: %w", err)
	}

	return LoginResult{Tokens: tokens, User: user}, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, _, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return TokenPair{}, err
	}

	// Role is re-read so a role change invalidates stale refresh claims.
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}
	if user.Status == StatusInactive {
		return TokenPair{}, ErrInactiveUser
	}

	pair, err := s.issueTokenPair(user.ID, user.Role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: issue tokens: %w", err)
	}
	return pair, nil
}

// CreateUser adds a user to the roster. Role defaults to agent, status to
// active. With GeneratePassword set, a temporary password is minted and
// returned once.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (CreateUserResult, error) {
	if req.Email == "" || req.Name == "" {
		return CreateUserResult{}, fmt.Errorf("auth: name and email are required")
	}

	password := req.Password
	temp := ""
	if req.GeneratePassword {
		generated, err := generateTempPassword()
		if err != nil {
			return CreateUserResult{}, fmt.Errorf("auth: generate password: %w", err)
		}
		password = generated
		temp = generated
	}
	if len(password) < 8 {
		return CreateUserResult{}, ErrWeakPassword
	}

	role := Role(strings.TrimSpace(string(req.Role)))
	if role == "" {
		role = RoleAgent
	}
	if !isValidRole(role) {
		return CreateUserResult{}, fmt.Errorf("auth: invalid role %q", role)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return CreateUserResult{}, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Role:         role,
		Status:       StatusActive,
	})
	if err != nil {
		return CreateUserResult{}, err
	}

	return CreateUserResult{User: user, TempPassword: temp}, nil
}

// ListUsers returns the roster.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateUser applies a partial update to a user.
func (s *Service) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) (User, error) {
	params := UpdateUserParams{Name: req.Name}

	if req.Role != nil {
		if !isValidRole(*req.Role) {
			return User{}, fmt.Errorf("auth: invalid role %q", *req.Role)
		}
		params.Role = req.Role
	}
	if req.Status != nil {
		if *req.Status != StatusActive && *req.Status != StatusInactive {
			return User{}, fmt.Errorf("auth: invalid status %q", *req.Status)
		}
		params.Status = req.Status
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return User{}, ErrWeakPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("auth: hash password: %w", err)
		}
		h := string(hash)
		params.PasswordHash = &h
	}

	return s.repo.UpdateUser(ctx, userID, params)
}

// GetUserByID retrieves user information by ID.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RequestPasswordReset issues a single-use reset token for the account.
// Only the sha256 of the token is stored; delivery (email) is a caller
// concern.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	if err := s.repo.StoreResetToken(ctx, user.ID, hashResetToken(token), s.now().Add(resetTokenTTL)); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	userID, err := s.repo.ConsumeResetToken(ctx, hashResetToken(token), s.now())
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	h := string(hash)
	_, err = s.repo.UpdateUser(ctx, userID, UpdateUserParams{PasswordHash: &h})
	return err
}

// VerifyToken validates an access JWT and returns the user id and role.
func (s *Service) VerifyToken(tokenString string) (string, Role, error) {
	return s.parseToken(tokenString, "access")
}

func (s *Service) issueTokenPair(userID string, role Role) (TokenPair, error) {
	access, err := s.signToken(userID, role, "access", accessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.signToken(userID, role, "refresh", refreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Service) signToken(userID string, role Role, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id":    userID,
		"role":       role,
		"token_type": tokenType,
		"exp":        now.Add(ttl).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *Service) parseToken(tokenString, wantType string) (string, Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidToken
	}

	if tokenType, _ := claims["token_type"].(string); tokenType != wantType {
		return "", "", fmt.Errorf("%w: expected %s token", ErrInvalidToken, wantType)
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", "", fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return "", "", fmt.Errorf("%w: missing role", ErrInvalidToken)
	}
	role := Role(roleStr)
	if !isValidRole(role) {
		return "", "", fmt.Errorf("%w: unknown role %q", ErrInvalidToken, roleStr)
	}

	return userID, role, nil
}

func generateTempPassword() (string, error) {
	out := make([]byte, tempPasswordLen)
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func isValidRole(role Role) bool {
	switch role {
	case RoleAgent, RoleAdmin:
		return true
	default:
		return false
	}
}
