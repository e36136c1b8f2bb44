package record

import (
	"context"
	"time"

	"reviewdraw/pkg/requestcontext"
)

func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC()
}
