package storage

import (
	"context"
	"errors"
)

// Keys used by the task store. Each holds a serialized snapshot of the
// whole collection so a write never depends on a prior write.
const (
	KeyActiveTasks    = "tasks:active"
	KeyCompletedTasks = "tasks:completed"
	KeySortCriterion  = "prefs:sort"
)

var ErrKeyNotFound = errors.New("key not found")

// Gateway is a string-valued key-value store scoped to the installation.
// Get returns ErrKeyNotFound for keys that were never written.
type Gateway interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
