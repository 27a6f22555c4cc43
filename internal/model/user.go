package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Base
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

// UserStats is the denormalized per-user task counters refreshed by the
// hourly statistics job.
type UserStats struct {
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	TotalTasks     int       `db:"total_tasks" json:"total_tasks"`
	PendingTasks   int       `db:"pending_tasks" json:"pending_tasks"`
	CompletedTasks int       `db:"completed_tasks" json:"completed_tasks"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}
