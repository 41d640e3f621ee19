package accounts

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidStatusTransition is returned when a requested status change is not allowed.
var ErrInvalidStatusTransition = goerrors.New("invalid account status transition", goerrors.CategoryValidation).
	WithTextCode("INVALID_STATUS_TRANSITION").
	WithCode(goerrors.CodeBadRequest)

// statusTransitions holds the allowed lifecycle moves. A status maps to the
// set of statuses it may move into; anything absent is rejected.
var statusTransitions = map[AccountStatus]map[AccountStatus]struct{}{
	StatusActive: {
		StatusInactive:  {},
		StatusSuspended: {},
	},
	StatusInactive: {
		StatusActive: {},
	},
	StatusSuspended: {
		StatusActive:   {},
		StatusInactive: {},
	},
}

// ValidateStatusTransition reports whether an account may move from one
// status to another. Same-status updates are a no-op and always allowed.
func ValidateStatusTransition(from, to AccountStatus) error {
	if from == to {
		return nil
	}

	if !to.IsValid() {
		return ErrInvalidStatusTransition.WithMetadata(map[string]any{
			"from":   from,
			"to":     to,
			"reason": "unknown target status",
		})
	}

	allowed, ok := statusTransitions[from]
	if !ok {
		return ErrInvalidStatusTransition.WithMetadata(map[string]any{
			"from":   from,
			"to":     to,
			"reason": "unknown source status",
		})
	}

	if _, ok := allowed[to]; !ok {
		return ErrInvalidStatusTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   to,
		})
	}

	return nil
}
