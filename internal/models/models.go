package models

import (
	"encoding/json"
	"time"
)

// Account represents a registered user account
type Account struct {
	ID           int64      `json:"id" db:"id"`
	Handle       string     `json:"handle" db:"handle"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Hash is never sent to client
	FullName     string     `json:"full_name" db:"full_name"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	AccountUUID  string     `json:"account_uuid" db:"account_uuid"`
}

// Profile is the client-visible view of an account.
type Profile struct {
	Handle      string     `json:"handle"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	AccountUUID string     `json:"account_uuid"`
}

// Profile strips the credential fields from an account.
func (a *Account) Profile() *Profile {
	return &Profile{
		Handle:      a.Handle,
		Email:       a.Email,
		FullName:    a.FullName,
		CreatedAt:   a.CreatedAt,
		LastLogin:   a.LastLogin,
		AccountUUID: a.AccountUUID,
	}
}

// ActivityCategory classifies a recorded user action
type ActivityCategory string

const (
	ActivityAuthentication    ActivityCategory = "authentication"
	ActivityImageGeneration   ActivityCategory = "image_generation"
	ActivityImageEditing      ActivityCategory = "image_editing"
	ActivityProjectManagement ActivityCategory = "project_management"
	ActivityFeatureUsage      ActivityCategory = "feature_usage"
)

// ActivityEntry represents one recorded user action. Entries are append-only.
type ActivityEntry struct {
	ID          int64                  `json:"id" db:"id"`
	AccountID   int64                  `json:"account_id" db:"account_id"`
	Category    ActivityCategory       `json:"category" db:"category"`
	Description string                 `json:"description" db:"description"`
	Details     map[string]interface{} `json:"details,omitempty"`
	DetailsJSON *string                `json:"-" db:"details"`
	Timestamp   time.Time              `json:"timestamp" db:"timestamp"`
}

// MarshalDetails serializes the detail payload for storage
func (e *ActivityEntry) MarshalDetails() error {
	if e.Details == nil {
		e.DetailsJSON = nil
		return nil
	}
	data, err := json.Marshal(e.Details)
	if err != nil {
		return err
	}
	s := string(data)
	e.DetailsJSON = &s
	return nil
}

// UnmarshalDetails restores the detail payload from its stored form
func (e *ActivityEntry) UnmarshalDetails() error {
	if e.DetailsJSON == nil || *e.DetailsJSON == "" {
		e.Details = map[string]interface{}{}
		return nil
	}
	return json.Unmarshal([]byte(*e.DetailsJSON), &e.Details)
}

// Counter names accepted by the usage counters table
const (
	CounterImagesGenerated = "images_generated"
	CounterImagesEdited    = "images_edited"
	CounterProjects        = "projects"
	CounterSessionMinutes  = "session_minutes"
)

// UsageCounters holds per-account aggregate usage statistics.
// Exactly one row exists per account, created alongside the account.
type UsageCounters struct {
	AccountID       int64     `json:"account_id" db:"account_id"`
	ImagesGenerated int64     `json:"images_generated" db:"images_generated"`
	ImagesEdited    int64     `json:"images_edited" db:"images_edited"`
	Projects        int64     `json:"projects" db:"projects"`
	SessionMinutes  int64     `json:"session_minutes" db:"session_minutes"`
	FavoriteFeature string    `json:"favorite_feature" db:"favorite_feature"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Session represents a logged-in browser session
type Session struct {
	ID        string    `json:"id" db:"id"`
	AccountID int64     `json:"account_id" db:"account_id"`
	Token     string    `json:"token" db:"token"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// PasswordResetToken is the persisted form of a recovery token.
// Only the digest of the raw value is ever stored.
type PasswordResetToken struct {
	TokenDigest string    `json:"-" db:"token_digest"`
	Email       string    `json:"email" db:"email"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
	Used        bool      `json:"used" db:"used"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ImageKind distinguishes generated results from edited ones for the counters
type ImageKind string

const (
	ImageGenerated     ImageKind = "generated"
	ImageHDGeneration  ImageKind = "hd_generation"
	ImagePackshot      ImageKind = "packshot"
	ImageShadow        ImageKind = "shadow"
	ImageFill          ImageKind = "generative_fill"
	ImageErase         ImageKind = "erase_foreground"
	ImageLifestyle     ImageKind = "lifestyle"
	ImageLifestyleText ImageKind = "lifestyle_text"
)

// CountsAsGeneration reports whether the kind increments the generated counter
// rather than the edited one.
func (k ImageKind) CountsAsGeneration() bool {
	return k == ImageGenerated || k == ImageHDGeneration
}

// ImageRecord represents one saved image result
type ImageRecord struct {
	ID           string                 `json:"id" db:"id"`
	AccountID    int64                  `json:"account_id" db:"account_id"`
	ProjectID    *int64                 `json:"project_id,omitempty" db:"project_id"`
	URL          string                 `json:"url" db:"url"`
	Kind         ImageKind              `json:"kind" db:"kind"`
	Prompt       string                 `json:"prompt" db:"prompt"`
	Settings     map[string]interface{} `json:"settings,omitempty"`
	SettingsJSON *string                `json:"-" db:"settings"`
	ArchiveKey   *string                `json:"archive_key,omitempty" db:"archive_key"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
}

// MarshalSettings serializes the generation settings for storage
func (r *ImageRecord) MarshalSettings() error {
	if r.Settings == nil {
		r.SettingsJSON = nil
		return nil
	}
	data, err := json.Marshal(r.Settings)
	if err != nil {
		return err
	}
	s := string(data)
	r.SettingsJSON = &s
	return nil
}

// UnmarshalSettings restores the generation settings from their stored form
func (r *ImageRecord) UnmarshalSettings() error {
	if r.SettingsJSON == nil || *r.SettingsJSON == "" {
		r.Settings = map[string]interface{}{}
		return nil
	}
	return json.Unmarshal([]byte(*r.SettingsJSON), &r.Settings)
}

// Project groups image work under a user-chosen name
type Project struct {
	ID          int64     `json:"id" db:"id"`
	AccountID   int64     `json:"account_id" db:"account_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}
