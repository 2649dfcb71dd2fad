package server

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mjhajdugaNext/messenger/internal/apperr"
)

// respondError writes err as {code, error, details}. Internal causes are
// logged and never sent.
func respondError(c *gin.Context, err error) {
	ae := apperr.From(err)
	if ae.Code == apperr.CodeInternal {
		log.Error().Err(ae.Cause).Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(ae.HTTPStatus, ae)
}

var errInvalidPayload = apperr.ValidationError("invalid payload")
