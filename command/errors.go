package command

import (
	"errors"

	"github.com/goliatone/go-directory/pkg/types"
	goerrors "github.com/goliatone/go-errors"
)

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = types.ErrActorRequired
	// ErrUsernameTaken indicates another identity holds the username.
	ErrUsernameTaken = types.ErrUsernameTaken
	// ErrUsernameRequired indicates an empty username.
	ErrUsernameRequired = types.ErrUsernameRequired
	// ErrUsernameTooLong indicates the username or avatar exceeds its bound.
	ErrUsernameTooLong = types.ErrUsernameTooLong
	// ErrBioTooLong indicates the bio exceeds its bound.
	ErrBioTooLong = types.ErrBioTooLong
	// ErrCounterOverflow indicates the counter register is saturated.
	ErrCounterOverflow = types.ErrCounterOverflow
	// ErrStatsUpdateDisabled indicates stats updates are disabled via feature gate.
	ErrStatsUpdateDisabled = types.ErrStatsUpdateDisabled
	// ErrInvalidPatchOp indicates a text patch carried an unknown op.
	ErrInvalidPatchOp = errors.New("go-directory: invalid patch op")
)

const (
	TextCodeUsernameTaken      = "USERNAME_TAKEN"
	TextCodeUsernameTooLong    = "USERNAME_TOO_LONG"
	TextCodeUsernameRequired   = "USERNAME_REQUIRED"
	TextCodeBioTooLong         = "BIO_TOO_LONG"
	TextCodeCounterOverflow    = "COUNTER_OVERFLOW"
	TextCodeActorRequired      = "ACTOR_REQUIRED"
	TextCodeStatsUpdateOff     = "STATS_UPDATE_DISABLED"
	TextCodeUsernameNotFound   = "USERNAME_NOT_FOUND"
	TextCodeActivityDenied     = "ACTIVITY_ACCESS_DENIED"
	TextCodeInvalidPatch       = "INVALID_PATCH"
	TextCodeUnknownCall        = "UNKNOWN_CALL"
	TextCodeDirectoryFailure   = "DIRECTORY_FAILURE"
	TextCodeServiceUnavailable = "SERVICE_NOT_READY"
)

// RichError maps directory sentinels to go-errors values carrying a category,
// an HTTP-style code and a stable text code for transports. Errors that already
// are *goerrors.Error pass through unchanged.
func RichError(err error) error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return err
	}
	switch {
	case errors.Is(err, types.ErrUsernameTaken):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "go-directory: username already taken").
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeUsernameTaken)
	case errors.Is(err, types.ErrUsernameTooLong):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "go-directory: username exceeds maximum length").
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeUsernameTooLong)
	case errors.Is(err, types.ErrBioTooLong):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "go-directory: bio exceeds maximum length").
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeBioTooLong)
	case errors.Is(err, types.ErrCounterOverflow):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "go-directory: counter overflow").
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeCounterOverflow)
	case errors.Is(err, types.ErrUsernameRequired):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "go-directory: username required").
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeUsernameRequired)
	case errors.Is(err, ErrInvalidPatchOp):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "go-directory: invalid profile patch").
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeInvalidPatch)
	case errors.Is(err, types.ErrActorRequired):
		return goerrors.Wrap(err, goerrors.CategoryAuth, "go-directory: caller identity required").
			WithCode(goerrors.CodeUnauthorized).
			WithTextCode(TextCodeActorRequired)
	case errors.Is(err, types.ErrStatsUpdateDisabled):
		return goerrors.Wrap(err, goerrors.CategoryAuthz, "go-directory: stats updates disabled").
			WithCode(goerrors.CodeForbidden).
			WithTextCode(TextCodeStatsUpdateOff)
	case errors.Is(err, types.ErrActivityAccessDenied):
		return goerrors.Wrap(err, goerrors.CategoryAuthz, "go-directory: activity access denied").
			WithCode(goerrors.CodeForbidden).
			WithTextCode(TextCodeActivityDenied)
	case errors.Is(err, types.ErrUsernameNotFound):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "go-directory: username not found").
			WithCode(goerrors.CodeNotFound).
			WithTextCode(TextCodeUsernameNotFound)
	case errors.Is(err, types.ErrUnknownCall):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "go-directory: unknown call").
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeUnknownCall)
	case errors.Is(err, types.ErrServiceNotReady), errors.Is(err, types.ErrMissingStateStore):
		return goerrors.Wrap(err, goerrors.CategoryInternal, "go-directory: service not ready").
			WithCode(goerrors.CodeInternal).
			WithTextCode(TextCodeServiceUnavailable)
	default:
		return goerrors.Wrap(err, goerrors.CategoryInternal, "go-directory: call failed").
			WithCode(goerrors.CodeInternal).
			WithTextCode(TextCodeDirectoryFailure)
	}
}
