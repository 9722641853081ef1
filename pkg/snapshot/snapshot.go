package snapshot

import (
	"fmt"
	"strings"
	"time"
)

// Snapshot types accepted by the service
const (
	TypeFollowers = "followers"
	TypeFollowing = "following"
)

// Export formats accepted by the service
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// FreeExportLimit is the number of profiles a free account may export.
// Larger exports are answered with a paywall redirect by the server.
const FreeExportLimit = 600

// Entry is a single row of a follower or following list
type Entry struct {
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

// Snapshot is a captured follower/following list at a point in time
type Snapshot struct {
	ID        string    `json:"id"`
	Account   string    `json:"account"`
	Type      string    `json:"snapshot_type"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// Usernames returns the usernames of all entries in order
func (s *Snapshot) Usernames() []string {
	names := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		names[i] = e.Username
	}
	return names
}

// NormalizeUsername cleans a raw handle: surrounding whitespace and any
// leading "@" characters are removed and the result is lowercased.
func NormalizeUsername(username string) string {
	cleaned := strings.TrimLeft(strings.TrimSpace(username), "@")
	return strings.ToLower(cleaned)
}

// ValidateType checks a raw snapshot type value
func ValidateType(value string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized != TypeFollowers && normalized != TypeFollowing {
		return "", fmt.Errorf("snapshot type must be either 'followers' or 'following'")
	}
	return normalized, nil
}

// ValidateFormat checks a raw export format value
func ValidateFormat(value string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized != FormatCSV && normalized != FormatXLSX {
		return "", fmt.Errorf("format must be CSV or XLSX")
	}
	return normalized, nil
}

// ExceedsFreeLimit reports whether an export of the given size requires a
// subscription
func ExceedsFreeLimit(count int) bool {
	return count > FreeExportLimit
}
