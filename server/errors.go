package server

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Luismorlan/factfeed/utils/apperr"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// respondError writes err as {"code", "msg", "field"} with the status of its
// kind. Internal causes are logged, never sent.
func respondError(c *gin.Context, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.Internal {
		Log.WithFields(logrus.Fields{"path": c.FullPath(), "cause": e.Cause()}).Error("internal error")
	}
	body := gin.H{"code": e.Kind.Code(), "msg": e.Msg}
	if e.Field != "" {
		body["field"] = e.Field
	}
	c.AbortWithStatusJSON(e.Kind.HTTPStatus(), body)
}

// respondBindError reports a request that could not be bound to its typed
// parameters (wrong type, unknown enum value, missing field) as 422.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
		if fe.Tag() == "oneof" {
			msg = fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
		}
		respondError(c, apperr.NewUnprocessable(fe.Field(), "%s", msg))
		return
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		respondError(c, apperr.NewUnprocessable("", "invalid value %q", numErr.Num))
		return
	}
	respondError(c, apperr.NewUnprocessable("", "%s", err.Error()))
}
