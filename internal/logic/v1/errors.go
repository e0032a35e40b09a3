// Package v1 provides session lifecycle business logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors for common session failures.
// Storage faults are never translated into sentinels; they wrap and
// propagate as-is, since they mean the durable layer itself is down.
// An unknown, mismatched, or expired token is NOT an error: Validate
// reports it as false and payload reads come back empty.
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrInvalidArgument):
//	    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	default:
//	    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
//	}
package v1

import "errors"

// Sentinel errors for session operations.
// These errors should be wrapped with context using fmt.Errorf("%w") when returned.
var (
	// ErrInvalidArgument indicates the caller supplied input the
	// lifecycle engine refuses to act on (e.g. an empty uid).
	// HTTP Status: 400 Bad Request
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSessionNotFound indicates a point lookup found no session row.
	// HTTP Status: 404 Not Found
	ErrSessionNotFound = errors.New("session not found")
)
