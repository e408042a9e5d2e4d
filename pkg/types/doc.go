// Package types is a container of the domain types that are shared across
// multiple packages within the service.
//
// Generally speaking, this package contains no executable code. All elements
// are expected to be pure data containers that have no associated methods so
// that provider packages can exchange values without importing each other.
package types
