package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/database"
	"github.com/AdSnap-Studio/adsnap/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCredential   = errors.New("invalid credentials")
	ErrAccountInactive = errors.New("account is deactivated")
	ErrWeakPassword    = errors.New("password does not meet requirements")
	ErrInvalidEmail    = errors.New("invalid email address")
)

// CreateAccount registers a new account. The raw password is hashed with
// bcrypt before anything touches the store; the clear form is never persisted.
func CreateAccount(handle, email, rawPassword, fullName string) (*models.Account, error) {
	if !ValidateEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !ValidatePassword(rawPassword) {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return database.CreateAccount(handle, email, string(hash), fullName)
}

// Authenticate resolves the identifier against handles first, then emails,
// and verifies the password. On success the last-login stamp is updated and
// the account's public profile is returned.
func Authenticate(handleOrEmail, rawPassword string) (*models.Profile, error) {
	account, err := database.GetAccountByHandle(handleOrEmail)
	if errors.Is(err, database.ErrNotFound) {
		account, err = database.GetAccountByEmail(handleOrEmail)
	}
	if err != nil {
		return nil, err
	}

	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(rawPassword)); err != nil {
		return nil, ErrBadCredential
	}

	if err := database.UpdateLastLogin(account.ID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	account.LastLogin = &now

	return account.Profile(), nil
}

// UpdateProfile mutates display name and email for the owning account
func UpdateProfile(accountID int64, fullName, email string) error {
	if !ValidateEmail(email) {
		return ErrInvalidEmail
	}
	return database.UpdateProfile(accountID, fullName, email)
}

// ChangePassword verifies the current password before overwriting the hash
func ChangePassword(accountID int64, oldRawPassword, newRawPassword string) error {
	account, err := database.GetAccountByID(accountID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(oldRawPassword)); err != nil {
		return ErrBadCredential
	}

	if !ValidatePassword(newRawPassword) {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newRawPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return database.UpdatePasswordHash(accountID, string(hash))
}

// setPasswordByEmail overwrites the password for the account bound to an
// email address. Only the reset flow goes through here, after token
// verification.
func setPasswordByEmail(email, newRawPassword string) error {
	if !ValidatePassword(newRawPassword) {
		return ErrWeakPassword
	}

	account, err := database.GetAccountByEmail(email)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newRawPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return database.UpdatePasswordHash(account.ID, string(hash))
}

// --- Validation Helpers ---

const minPasswordLength = 6

// ValidatePassword checks if a password meets the minimum requirements
func ValidatePassword(password string) bool {
	return len(password) >= minPasswordLength
}

// ValidateEmail checks if an email has a valid format
func ValidateEmail(email string) bool {
	// A very basic email validation check
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}
