package database

import (
	"errors"
	"time"
)

// Bot is a stored subscription-gate bot definition. The ID is immutable
// once created; everything else can be edited.
type Bot struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Token         string    `json:"token"`
	ChannelID     int64     `json:"channel_id"`
	InviteLink    string    `json:"invite_link"`
	WelcomeMsg    string    `json:"welcome_msg"`
	ButtonText    string    `json:"button_text"`
	NotSubMsg     string    `json:"not_sub_msg"`
	SuccessMsg    string    `json:"success_msg"`
	WelcomeImgKey string    `json:"welcome_img_key"`
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SystemVitalLog is one sampled row of host resource usage.
type SystemVitalLog struct {
	ID               int
	Timestamp        time.Time
	CPUPercent       float64
	MemoryPercent    float64
	DiskUsagePercent float64
}

var (
	// ErrNotFound is returned when a bot with the given ID does not exist.
	ErrNotFound = errors.New("bot not found")

	// ErrConflict is returned when creating a bot whose ID is already taken.
	ErrConflict = errors.New("bot id already exists")
)
