// Package storage provides filesystem capabilities for partition validation.
package storage

import "time"

// Entry describes one filesystem entry resolved under a partition path.
type Entry struct {
	Name         string     `json:"name"`
	Size         int64      `json:"size,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}
