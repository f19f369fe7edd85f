package reminder

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoHeader means no plausible header row was detected in the sheet.
var ErrNoHeader = errors.New("no plausible header row found")

// ErrMailDelivery means every configured recipient failed.
var ErrMailDelivery = errors.New("failed to send reminder to any recipient")

// FetchError reports that no candidate URL yielded a spreadsheet.
type FetchError struct {
	Attempts   []string
	LastStatus int
	LastErr    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("no candidate URL yielded a spreadsheet (%d tried)", len(e.Attempts))
	if e.LastStatus != 0 {
		msg = fmt.Sprintf("%s, last status %d", msg, e.LastStatus)
	}
	if e.LastErr != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.LastErr)
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.LastErr }

// MissingColumnError names the logical field that could not be resolved
// and the columns that were available, for diagnostics.
type MissingColumnError struct {
	Field     string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found (available: %s)",
		e.Field, strings.Join(e.Available, ", "))
}
