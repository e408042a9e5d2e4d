// Package v1 contains the Lambda functions served by the runtime:
// playlist sync between two accounts, library migration, and favorites
// insertion. Handlers receive their logger and metrics client through
// the context installed by the fetcher decorators.
package v1
