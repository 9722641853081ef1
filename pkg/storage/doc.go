// Package storage manages files downloaded from the follower tracking
// service, primarily export spreadsheets and cached avatar images.
//
// The Manager type is the primary interface. It writes files atomically
// using a temporary file plus rename, keeps an in-memory index for fast
// duplicate detection, and never overwrites an earlier download: name
// collisions get a numeric suffix instead.
//
// Usage:
//
//	manager, err := storage.NewManager("exports")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	name := storage.FilenameFromContentDisposition(resp.Header.Get("Content-Disposition"))
//	if name == "" {
//	    name = storage.DefaultExportName("csv")
//	}
//	path, err := manager.Save(resp.Body, name)
package storage
