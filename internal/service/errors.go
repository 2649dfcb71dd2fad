package service

import "github.com/mjhajdugaNext/messenger/internal/apperr"

// Business errors the handlers and gateway map to responses or acknowledgments.
var (
	ErrEmailTaken         = apperr.Conflict("User already exist")
	ErrInvalidCredentials = apperr.Unauthorized("invalid credentials")
	ErrNotAUser           = apperr.ValidationError("One of passed friends is not a user")
	ErrSelfReference      = apperr.ValidationError("One of passed friends is the user itself")
	ErrUserNotFound       = apperr.NotFound("User")
	ErrMessageNotFound    = apperr.NotFound("Message")
)
