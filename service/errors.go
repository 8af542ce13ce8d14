package service

import (
	"github.com/Luismorlan/factfeed/repository"
	"github.com/Luismorlan/factfeed/utils/apperr"
	. "github.com/Luismorlan/factfeed/utils/log"
)

// translate maps repository sentinels onto the error taxonomy. Anything else
// is internal; its cause is logged here and never reaches the client.
func translate(err error, notFoundMsg, duplicateMsg string) error {
	switch {
	case err == nil:
		return nil
	case err == repository.ErrNotFound:
		return apperr.NewNotFound("%s", notFoundMsg)
	case err == repository.ErrDuplicate && duplicateMsg != "":
		return apperr.NewConflict("%s", duplicateMsg)
	}
	if e := apperr.From(err); e.Kind != apperr.Internal {
		return e
	}
	Log.WithError(err).Error("internal error")
	return apperr.NewInternal(err, "internal server error")
}

func internal(err error) error {
	return translate(err, "not found", "")
}
