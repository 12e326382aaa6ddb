package repository

import (
	"context"
	"errors"

	"github.com/openclaw/designdesk/internal/model"
)

// ErrNoChange may be returned by an UpdateFunc to end Update successfully
// without writing.
var ErrNoChange = errors.New("no change")

// UpdateFunc mutates the loaded aggregate in place. Returning an error
// discards the mutation.
type UpdateFunc func(root *model.ConfigRoot) error

// ClientRepository stores the role -> client mapping.
// Implementations must serialize Update calls against each other so a
// load-decide-save cycle never loses a concurrent increment.
type ClientRepository interface {
	// Load reads and validates the whole aggregate. A missing or malformed
	// store yields a CONFIG_INTEGRITY error.
	Load(ctx context.Context) (*model.ConfigRoot, error)
	// Save overwrites the whole aggregate.
	Save(ctx context.Context, root *model.ConfigRoot) error
	// Update runs fn between a locked load and save.
	Update(ctx context.Context, fn UpdateFunc) error
}
