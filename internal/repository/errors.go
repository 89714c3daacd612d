// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto HTTP status codes: ErrForbidden becomes 403, the not-found
// values become 404, and the conflict values become 400/409 responses.
package repository

import "errors"

// ErrUserExists is returned when a signup collides with an existing
// username or email.
var ErrUserExists = errors.New("user already exists")

// ErrUserNotFound is returned when a user id or email has no row.
var ErrUserNotFound = errors.New("user not found")

// ErrModelNotFound is returned when a model id does not exist, including
// the case where a moderation decision already removed it. Moderation
// transitions are one-shot: a second approve or reject on the same id
// surfaces this error.
var ErrModelNotFound = errors.New("model not found")

// ErrNotApproved is returned when a purchase targets a model that is not
// in the approved status.
var ErrNotApproved = errors.New("model not available for purchase")

// ErrAlreadyPurchased is returned when a buyer attempts a second purchase
// of the same model.
var ErrAlreadyPurchased = errors.New("model already purchased")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")
