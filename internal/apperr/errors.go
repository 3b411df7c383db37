package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNotInitialized     = errors.New("worklog store not initialized")
	ErrAlreadyInitialized = errors.New("worklog store already initialized")
	ErrDraftNotFound      = errors.New("draft.md not found")
	ErrMissingSummaryTag  = errors.New("missing <summary> tag in draft.md")
	ErrEmptySummary       = errors.New("summary cannot be empty; fill in the <summary> tag")
	ErrEmptyBody          = errors.New("draft body is empty; document your changes")
)
