package v1

import (
	"context"

	crosstune "github.com/crosstune/crosstune"
	"github.com/crosstune/crosstune/pkg/migrate"
)

// SyncClientFn builds a sync-capable client for a named token store
// user.
type SyncClientFn func(ctx context.Context, user string) (migrate.SyncClient, error)

// SyncEvent selects the two accounts to level.
type SyncEvent struct {
	UserA           string   `json:"userA"`
	UserB           string   `json:"userB"`
	AvoidDuplicates bool     `json:"avoidDuplicates"`
	Playlists       []string `json:"playlists,omitempty"`
}

// Sync levels the shared playlists of two accounts.
type Sync struct {
	Clients SyncClientFn
}

// Handle executes the sync and returns per-playlist counts.
func (h *Sync) Handle(ctx context.Context, in SyncEvent) (*migrate.SyncReport, error) {
	if in.UserA == "" {
		return nil, crosstune.InvalidInputError{Field: "userA", Reason: "required"}
	}
	if in.UserB == "" {
		return nil, crosstune.InvalidInputError{Field: "userB", Reason: "required"}
	}
	clientA, err := h.Clients(ctx, in.UserA)
	if err != nil {
		return nil, err
	}
	clientB, err := h.Clients(ctx, in.UserB)
	if err != nil {
		return nil, err
	}
	sync := &migrate.TidalSync{
		A:               clientA,
		B:               clientB,
		AvoidDuplicates: in.AvoidDuplicates,
		Playlists:       in.Playlists,
	}
	return sync.Run(ctx)
}
