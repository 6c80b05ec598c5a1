package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inr100/offsync/internal/ir"
)

// MissingHandlerError reports action kinds a handler table does not cover.
// New rejects such a table so an unhandled kind is caught at startup
// instead of sitting in the queue forever.
type MissingHandlerError struct {
	Kinds []ir.ActionKind
}

// Error implements the error interface.
func (e *MissingHandlerError) Error() string {
	names := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		names[i] = string(k)
	}
	return fmt.Sprintf("handler table missing kinds: %s", strings.Join(names, ", "))
}

// IsMissingHandler returns true if err reports an incomplete handler table.
// Uses errors.As to handle wrapped errors.
func IsMissingHandler(err error) bool {
	var me *MissingHandlerError
	return errors.As(err, &me)
}

// replayError describes why a replay attempt failed, for logs and
// permanent failure records.
func replayError(res string, err error) string {
	if err != nil {
		return err.Error()
	}
	if res == "" {
		return "rejected by backend"
	}
	return res
}

func missingKinds(h Handlers) []ir.ActionKind {
	var missing []ir.ActionKind
	for _, k := range ir.AllKinds {
		if _, ok := h[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
