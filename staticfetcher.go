package crosstune

import (
	"context"
)

// StaticFetcher is an implementation of the Fetcher that maintains a static
// mapping of names to Function instances. The migration functions are compiled
// into the binary and registered at start, which is the Go analogue of a
// deployment image that declares a fixed module.function entry point. There is
// no live update feature: adding, removing, or changing a function means a new
// build and a redeploy, and all functions deploy together.
//
// In exchange the runtime performs no orchestration of external systems. All
// invocations happen in process and share the runtime's resources, which keeps
// the operational surface small.
type StaticFetcher struct {
	// Functions is the underlying static map of function names to executable
	// functions. The keys of the map will be used as the name of the Function.
	Functions map[string]Function
}

// Fetch resolves the name using the internal mapping.
func (f *StaticFetcher) Fetch(ctx context.Context, name string) (Function, error) {
	h, ok := f.Functions[name]
	if !ok {
		return nil, NotFoundError{ID: name}
	}
	return h, nil
}
