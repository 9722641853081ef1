package auth

import (
	"os"
	"strconv"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// Useful for CI and one-off scripting where no keychain exists.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	sessionCookie := os.Getenv("IGFOLLOW_SESSION_COOKIE")
	csrfToken := os.Getenv("IGFOLLOW_CSRF_TOKEN")
	userAgent := os.Getenv("IGFOLLOW_USER_AGENT")

	if sessionCookie == "" || csrfToken == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables don't carry a username, so fall back to "default"
	if username == "" {
		username = "default"
	}

	var accountID int64
	if raw := os.Getenv("IGFOLLOW_ACCOUNT_ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			accountID = id
		}
	}

	return &Account{
		Username:      username,
		AccountID:     accountID,
		SessionCookie: sessionCookie,
		CSRFToken:     csrfToken,
		UserAgent:     userAgent,
		LastModified:  time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	return os.Getenv("IGFOLLOW_SESSION_COOKIE") != "" && os.Getenv("IGFOLLOW_CSRF_TOKEN") != ""
}
