// Package ops implements the document operations shared by the CLI and the
// MCP server: detect, read, write, convert, render, and the recent list.
package ops

import (
	"path/filepath"
	"strings"

	"github.com/guangnotepad/guang/internal/errors"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Target is a validated reference to a recent-documents row.
type Target struct {
	ByID bool
	ID   string
	Path string // absolute, cleaned
}

// ValidateTarget validates addressing parameters for the recent list.
// Rules:
// - Exactly one of id or path must be given
// - A relative path is made absolute
func ValidateTarget(id, path string) (*Target, error) {
	id = strings.TrimSpace(id)
	path = strings.TrimSpace(path)

	if id != "" && path != "" {
		return nil, errors.NewInvalidRequest("specify either id or path, not both")
	}
	if id == "" && path == "" {
		return nil, errors.NewInvalidRequest("must specify either id or path")
	}

	if id != "" {
		return &Target{ByID: true, ID: id}, nil
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, errors.NewInvalidRequest("invalid path: " + err.Error())
	}
	return &Target{Path: abs}, nil
}
