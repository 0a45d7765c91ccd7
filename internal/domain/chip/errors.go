package chip

import "errors"

var (
	ErrUnknownChip       = errors.New("unknown chip")
	ErrChipLocked        = errors.New("chip is locked for this gameweek")
	ErrChipUnavailable   = errors.New("chip unavailable")
	ErrIncompatibleChips = errors.New("incompatible chips")
	ErrChipNotApplicable = errors.New("chip not applicable")
)
