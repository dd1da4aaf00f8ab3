package models

import (
	"strings"
	"time"
)

// UserProfile is keyed by wallet address. Username and email are optional
// but unique when set.
type UserProfile struct {
	WalletAddress string    `gorm:"size:64;primaryKey" json:"wallet_address"`
	Username      *string   `gorm:"size:50;uniqueIndex:idx_profile_username" json:"username"`
	Email         *string   `gorm:"size:100;uniqueIndex:idx_profile_email" json:"email"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PublicProfile is what other wallets may read of a profile.
type PublicProfile struct {
	WalletAddress string  `json:"wallet_address"`
	Username      *string `json:"username"`
}

// Public drops the private fields.
func (p *UserProfile) Public() PublicProfile {
	return PublicProfile{WalletAddress: p.WalletAddress, Username: p.Username}
}

// ProfileInput is the payload for creating or updating the caller's profile.
// Blank fields clear the stored value.
type ProfileInput struct {
	Username string `json:"username" label:"Username" validate:"omitempty,min=3,max=50,username"`
	Email    string `json:"email" label:"Email" validate:"omitempty,email,max=100"`
}

func (in *ProfileInput) Trim() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

// ProfileOption configures a UserProfile.
type ProfileOption func(*UserProfile)

func WithUsername(username string) ProfileOption {
	return func(p *UserProfile) { p.Username = optional(username) }
}

func WithEmail(email string) ProfileOption {
	return func(p *UserProfile) { p.Email = optional(strings.ToLower(email)) }
}

// NewUserProfile builds a profile for wallet.
func NewUserProfile(wallet string, opts ...ProfileOption) *UserProfile {
	p := &UserProfile{WalletAddress: wallet}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DisplayUsername returns the username or "" when none is set.
func (p *UserProfile) DisplayUsername() string {
	if p == nil || p.Username == nil {
		return ""
	}
	return *p.Username
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
