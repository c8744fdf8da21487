package handlers

import (
	"context"
	"time"

	"diskspace-examiner/internal/database"
	"diskspace-examiner/internal/scanner"
	"diskspace-examiner/internal/tree"
)

// Scans is the view of the scan supervisor the handlers need.
type Scans interface {
	Roots() []string
	Tree(root string) *tree.Node
	Status() []scanner.RootStatus
	IsReady() bool
	Healthy() bool
	Uptime() time.Duration
	Cycles() int
	Trigger() error
}

// Store is the read side of the database.
type Store interface {
	Tree(ctx context.Context, path string) (*tree.Node, error)
	Roots(ctx context.Context) ([]database.RootInfo, error)
	GetLastSave(ctx context.Context) (time.Time, error)
}

// Handlers serves the HTTP API.
type Handlers struct {
	scans Scans
	store Store
}

// New creates the API handlers.
func New(scans Scans, store Store) *Handlers {
	return &Handlers{scans: scans, store: store}
}
