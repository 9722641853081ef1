package api

import "fmt"

// ExportPath returns the export endpoint for a tracked account
func ExportPath(accountID int64) string {
	return fmt.Sprintf("/accounts/%d/export", accountID)
}

// UploadPath returns the snapshot upload endpoint for a tracked account
func UploadPath(accountID int64) string {
	return fmt.Sprintf("/accounts/%d/upload", accountID)
}
