// ABOUTME: Sentinel errors returned by graph extraction
// ABOUTME: Callers match them with errors.Is

package graph

import "errors"

var (
	// ErrInvalidAnchor is returned when the anchor does not designate a
	// live object of the population. It is raised before any traversal.
	ErrInvalidAnchor = errors.New("anchor is not an object of the population")

	// ErrPopulationTooLarge is returned when the population exceeds the
	// configured node limit.
	ErrPopulationTooLarge = errors.New("population exceeds node limit")

	// ErrInvalidPattern is returned when a kind exclusion pattern is malformed
	ErrInvalidPattern = errors.New("invalid kind pattern")

	// ErrNilProvider is returned when Build is called without a provider
	ErrNilProvider = errors.New("nil provider")

	errMemberPanic = errors.New("member enumeration panicked")
)
