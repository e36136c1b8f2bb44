package service

import (
	"context"
	"errors"
	"fmt"

	"reviewdraw/internal/selection/models"
	dErrors "reviewdraw/pkg/domain-errors"
	"reviewdraw/pkg/platform/sentinel"
)

// translate maps engine kinds and store sentinels to transport codes. The
// typed *models.Error stays reachable with errors.As.
func translate(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}

	var selErr *models.Error
	switch {
	case errors.As(err, &selErr):
		return dErrors.Wrap(err, codeFor(selErr.Kind), selErr.Error())
	case errors.Is(err, sentinel.ErrNotFound):
		nf := models.RecordNotFound()
		return dErrors.Wrap(fmt.Errorf("%w: %w", nf, err), dErrors.CodeNotFound, nf.Error())
	case errors.Is(err, sentinel.ErrConflict):
		c := models.ConcurrentMutationConflict()
		return dErrors.Wrap(fmt.Errorf("%w: %w", c, err), dErrors.CodeConflict, "record was modified concurrently, retry")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "selection record invariant violated")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request ended before the selection completed")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, fallback)
	}
}

func codeFor(kind models.ErrorKind) dErrors.Code {
	switch kind {
	case models.KindInsufficientPool, models.KindNoReplacementAvailable, models.KindConcurrentMutationConflict:
		return dErrors.CodeConflict
	case models.KindEntryNotFound, models.KindRecordNotFound:
		return dErrors.CodeNotFound
	case models.KindInvalidReason, models.KindInvalidRequirement:
		return dErrors.CodeValidation
	default:
		return dErrors.CodeInternal
	}
}

// outcome labels a result for metrics.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := models.KindOf(err); ok {
		return string(kind)
	}
	return string(dErrors.CodeOf(err))
}
