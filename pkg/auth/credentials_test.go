package auth

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// memoryStore is an in-memory CredentialStore for exercising the manager's
// fallback chain without touching the keyring or disk
type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]Account
	listErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: make(map[string]Account)}
}

func (s *memoryStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Username] = *account
	return nil
}

func (s *memoryStore) Retrieve(username string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (s *memoryStore) List() ([]*Account, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var accounts []*Account
	for _, account := range s.accounts {
		a := account
		accounts = append(accounts, &a)
	}
	return accounts, nil
}

func (s *memoryStore) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(s.accounts, username)
	return nil
}

func (s *memoryStore) Exists(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[username]
	return ok
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

func newTestManager(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

func TestCredentialManager(t *testing.T) {
	store := newMemoryStore()
	manager := newTestManager(store)

	account := &Account{
		Username:      "janedoe",
		AccountID:     7,
		SessionCookie: "test_session_cookie_12345",
		CSRFToken:     "test_csrf_token_67890",
		UserAgent:     "TestAgent/1.0",
		LastModified:  time.Now(),
	}

	err := manager.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("janedoe")
	if err != nil {
		t.Errorf("Failed to retrieve account: %v", err)
	}

	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.AccountID != account.AccountID {
		t.Errorf("AccountID mismatch: got %d, want %d", retrieved.AccountID, account.AccountID)
	}
	if retrieved.SessionCookie != account.SessionCookie {
		t.Errorf("SessionCookie mismatch: got %s, want %s", retrieved.SessionCookie, account.SessionCookie)
	}
	if retrieved.CSRFToken != account.CSRFToken {
		t.Errorf("CSRFToken mismatch: got %s, want %s", retrieved.CSRFToken, account.CSRFToken)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	sanitized := SanitizeAccount(account)
	if sanitized.SessionCookie == account.SessionCookie {
		t.Error("SessionCookie should be masked")
	}
	if sanitized.CSRFToken == account.CSRFToken {
		t.Error("CSRFToken should be masked")
	}
	if sanitized.Username != account.Username {
		t.Error("Username should not be masked")
	}

	err = manager.Delete("janedoe")
	if err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	_, err = manager.Retrieve("janedoe")
	if err == nil {
		t.Error("Expected error retrieving deleted account")
	}

	if store.count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", store.count())
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager := newTestManager(newMemoryStore())

	if err := manager.Store(&Account{SessionCookie: "x", CSRFToken: "y"}); err == nil {
		t.Error("Expected error for missing username")
	}
	if err := manager.Store(&Account{Username: "u", CSRFToken: "y"}); err == nil {
		t.Error("Expected error for missing session cookie")
	}
	if err := manager.Store(&Account{Username: "u", SessionCookie: "x"}); err == nil {
		t.Error("Expected error for missing CSRF token")
	}
}

func TestManagerListSkipsFailingStore(t *testing.T) {
	broken := newMemoryStore()
	broken.listErr = fmt.Errorf("keyring locked")

	healthy := newMemoryStore()
	if err := healthy.Store(&Account{Username: "janedoe", SessionCookie: "s", CSRFToken: "c"}); err != nil {
		t.Fatal(err)
	}

	manager := newTestManager(broken, healthy)

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("List must survive a failing store: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account from the healthy store, got %d", len(accounts))
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv("IGFOLLOW_PASSPHRASE", "test_passphrase_123")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Username:      "encrypted_user",
		AccountID:     42,
		SessionCookie: "encrypted_session",
		CSRFToken:     "encrypted_csrf",
	}

	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("encrypted_user")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.SessionCookie != account.SessionCookie {
		t.Errorf("SessionCookie mismatch after seal/unseal")
	}
	if retrieved.CSRFToken != account.CSRFToken {
		t.Errorf("CSRFToken mismatch after seal/unseal")
	}
	if retrieved.AccountID != account.AccountID {
		t.Errorf("AccountID mismatch after seal/unseal: got %d, want %d", retrieved.AccountID, account.AccountID)
	}

	// The file on disk must not contain plaintext credentials
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Contains(fileContent, []byte("encrypted_session")) {
		t.Error("File contains plaintext session cookie")
	}
	if bytes.Contains(fileContent, []byte("encrypted_csrf")) {
		t.Error("File contains plaintext CSRF token")
	}
}

func TestEncryptedFileStoreDeleteLastRemovesFile(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv("IGFOLLOW_PASSPHRASE", "test_passphrase_delete")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	if err := store.Store(&Account{Username: "only_user", SessionCookie: "s", CSRFToken: "c"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("only_user"); err != nil {
		t.Fatalf("Failed to delete account: %v", err)
	}

	if _, err := os.Stat(tempFile); !os.IsNotExist(err) {
		t.Error("Deleting the last account must remove the vault file")
	}
	if store.Exists("only_user") {
		t.Error("Deleted account must not exist")
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("IGFOLLOW_SESSION_COOKIE", "env_session")
	t.Setenv("IGFOLLOW_CSRF_TOKEN", "env_csrf")
	t.Setenv("IGFOLLOW_ACCOUNT_ID", "42")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if account.SessionCookie != "env_session" {
		t.Errorf("SessionCookie mismatch: got %s, want env_session", account.SessionCookie)
	}
	if account.CSRFToken != "env_csrf" {
		t.Errorf("CSRFToken mismatch: got %s, want env_csrf", account.CSRFToken)
	}
	if account.AccountID != 42 {
		t.Errorf("AccountID mismatch: got %d, want 42", account.AccountID)
	}
	if account.Username != "default" {
		t.Errorf("Username should default to 'default', got %s", account.Username)
	}

	err = store.Store(&Account{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	t.Setenv("IGFOLLOW_PASSPHRASE", "test_passphrase_real_manager")

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := newTestManager(encryptedStore)

	account := &Account{
		Username:      "realuser",
		SessionCookie: "real_session_cookie",
		CSRFToken:     "real_csrf_token",
		UserAgent:     "RealAgent/1.0",
		LastModified:  time.Now(),
	}

	err = manager.Store(account)
	if err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account in list, got %d", len(accounts))
	}

	retrieved, err := manager.Retrieve("realuser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.SessionCookie != account.SessionCookie {
		t.Errorf("SessionCookie mismatch: got %s, want %s", retrieved.SessionCookie, account.SessionCookie)
	}
}
