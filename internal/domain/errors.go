package domain

import "errors"

var (
	// ErrSearchFailed is returned when the USDA search request cannot be completed
	ErrSearchFailed = errors.New("Network/API error during search")

	// ErrNoResults is returned when the search succeeds but yields no candidates
	ErrNoResults = errors.New("No USDA results found")

	// ErrDetailUnavailable marks a skipped or failed detail fetch; never surfaced to callers
	ErrDetailUnavailable = errors.New("food detail unavailable")

	// ErrProductNotFound is returned when a food cannot be found in USDA database
	ErrProductNotFound = errors.New("product not found in USDA database")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUSDAAPIFailure is returned when USDA API request fails
	ErrUSDAAPIFailure = errors.New("USDA API request failed")
)

// UserMessage is the text shown to a person for a report error
func UserMessage(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return EmptyQueryHint
	}
	return err.Error()
}
