package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	vaultVersion    = 1
	vaultSaltSize   = 32
	vaultKeySize    = 32
	vaultIterations = 100000
)

// vaultRecord is the sealed form of one account's credentials. The session
// cookie and CSRF token are the payload; the rest is bookkeeping.
type vaultRecord struct {
	AccountID     int64     `json:"account_id,omitempty"`
	SessionCookie string    `json:"session_cookie"`
	CSRFToken     string    `json:"csrf_token"`
	UserAgent     string    `json:"user_agent,omitempty"`
	LastModified  time.Time `json:"last_modified"`
}

// account rehydrates the full Account from a sealed record
func (r vaultRecord) account(username string) *Account {
	return &Account{
		Username:      username,
		AccountID:     r.AccountID,
		SessionCookie: r.SessionCookie,
		CSRFToken:     r.CSRFToken,
		UserAgent:     r.UserAgent,
		LastModified:  r.LastModified,
	}
}

// vaultFile is the on-disk envelope: a fresh salt per write and a single
// AES-GCM sealed blob (nonce prefixed) holding the records keyed by username
type vaultFile struct {
	Version  int       `json:"version"`
	Salt     string    `json:"salt"`
	Sealed   string    `json:"sealed"`
	Modified time.Time `json:"modified"`
}

// EncryptedFileStore keeps credentials in an AES-GCM sealed vault file for
// hosts without a usable keychain. The key is derived from a passphrase with
// PBKDF2; the passphrase comes from IGFOLLOW_PASSPHRASE or a per-user file.
type EncryptedFileStore struct {
	path       string
	passphrase string
	mu         sync.RWMutex
}

// NewEncryptedFileStore creates a vault store at the given path
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	passphrase, err := resolvePassphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve passphrase: %w", err)
	}

	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

// Store seals the account's credentials into the vault
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	records, err := e.open()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if records == nil {
		records = make(map[string]vaultRecord)
	}

	records[account.Username] = vaultRecord{
		AccountID:     account.AccountID,
		SessionCookie: account.SessionCookie,
		CSRFToken:     account.CSRFToken,
		UserAgent:     account.UserAgent,
		LastModified:  account.LastModified,
	}
	return e.seal(records)
}

// Retrieve unseals the vault and returns one account's credentials
func (e *EncryptedFileStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	records, err := e.open()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, err
	}

	record, ok := records[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return record.account(username), nil
}

// List returns all accounts in the vault
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	records, err := e.open()
	if err != nil {
		if os.IsNotExist(err) {
			return []*Account{}, nil
		}
		return nil, err
	}

	var accounts []*Account
	for username, record := range records {
		accounts = append(accounts, record.account(username))
	}
	return accounts, nil
}

// Delete removes one account from the vault
func (e *EncryptedFileStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	records, err := e.open()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrCredentialsNotFound
		}
		return err
	}

	if _, ok := records[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(records, username)

	// An empty vault leaves no file behind
	if len(records) == 0 {
		return os.Remove(e.path)
	}
	return e.seal(records)
}

// Exists checks if the vault holds credentials for a username
func (e *EncryptedFileStore) Exists(username string) bool {
	account, err := e.Retrieve(username)
	return err == nil && account != nil
}

// open reads and unseals the vault. Callers must hold the lock.
func (e *EncryptedFileStore) open() (map[string]vaultRecord, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}

	var file vaultFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vault file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(file.Sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sealed data: %w", err)
	}

	gcm, err := e.cipherFor(salt)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("sealed data too short")
	}
	plaintext, err := gcm.Open(nil, sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal vault: %w", err)
	}

	var records map[string]vaultRecord
	if err := json.Unmarshal(plaintext, &records); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	return records, nil
}

// seal encrypts the records and writes the vault atomically. Callers must
// hold the lock. Every write uses a fresh salt and nonce.
func (e *EncryptedFileStore) seal(records map[string]vaultRecord) error {
	plaintext, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	salt := make([]byte, vaultSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := e.cipherFor(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)

	content, err := json.MarshalIndent(vaultFile{
		Version:  vaultVersion,
		Salt:     base64.StdEncoding.EncodeToString(salt),
		Sealed:   base64.StdEncoding.EncodeToString(sealed),
		Modified: time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vault file: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write vault file: %w", err)
	}
	return os.Rename(tmp, e.path)
}

// cipherFor derives the key for a salt and builds the AEAD
func (e *EncryptedFileStore) cipherFor(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(e.passphrase), salt, vaultIterations, vaultKeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// resolvePassphrase prefers IGFOLLOW_PASSPHRASE, then a per-user passphrase
// file, generating and persisting one on first use
func resolvePassphrase() (string, error) {
	if pass := os.Getenv("IGFOLLOW_PASSPHRASE"); pass != "" {
		return pass, nil
	}

	configDir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	passphraseFile := filepath.Join(configDir, ".passphrase")

	if content, err := os.ReadFile(passphraseFile); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)

	if err := os.WriteFile(passphraseFile, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}
