package model

import (
	"time"

	"github.com/mobiledna/datakit/internal/errdefs"
)

// TimeRange is a pair of inclusive timestamp bounds scoping a query.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange builds a validated range. Inverted bounds fail fast
// rather than silently matching nothing.
func NewTimeRange(start time.Time, end time.Time) (TimeRange, error) {
	tr := TimeRange{Start: start, End: end}
	if err := tr.Validate(); err != nil {
		return TimeRange{}, err
	}
	return tr, nil
}

func (tr TimeRange) Validate() error {
	if tr.Start.After(tr.End) {
		return errdefs.Wrapf(
			errdefs.ErrTimeRange,
			nil,
			"start %s is after end %s",
			tr.Start.Format(time.RFC3339),
			tr.End.Format(time.RFC3339),
		)
	}
	return nil
}
