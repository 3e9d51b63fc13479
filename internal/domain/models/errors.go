package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoPair is returned by matchers when no candidate clears the cutoff.
var ErrNoPair = errors.New("no matching pair")

// ResolutionError reports a balance whose asset could not be matched to any pair.
type ResolutionError struct {
	Asset string
	Probe string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: no pair matches %q", e.Asset, e.Probe)
}

func (e *ResolutionError) Unwrap() error { return ErrNoPair }

// UpstreamRequestError reports a failed call to the exchange.
type UpstreamRequestError struct {
	Op  string
	Err error
}

func (e *UpstreamRequestError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamRequestError) Unwrap() error { return e.Err }

// DataShapeError reports an upstream payload missing an expected field.
type DataShapeError struct {
	Item  string
	Field string
	Err   error
}

func (e *DataShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payload %s: field %s: %v", e.Item, e.Field, e.Err)
	}
	return fmt.Sprintf("payload %s: missing field %s", e.Item, e.Field)
}

func (e *DataShapeError) Unwrap() error { return e.Err }

// Skip records one item omitted from a batch and why.
type Skip struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// NewSkip builds a Skip from an error.
func NewSkip(id string, err error) Skip {
	s := Skip{ID: id, Err: err}
	if err != nil {
		s.Reason = err.Error()
	}
	return s
}

// PartialBatchFailure lists the items a batch omitted while the rest succeeded.
type PartialBatchFailure struct {
	Skipped []Skip
}

func (e *PartialBatchFailure) Error() string {
	ids := make([]string, len(e.Skipped))
	for i, s := range e.Skipped {
		ids[i] = s.ID
	}
	return fmt.Sprintf("partial batch failure: %d skipped (%s)", len(e.Skipped), strings.Join(ids, ", "))
}

// AsPartial returns a *PartialBatchFailure for a non-empty skip list, nil otherwise.
func AsPartial(skipped []Skip) error {
	if len(skipped) == 0 {
		return nil
	}
	return &PartialBatchFailure{Skipped: skipped}
}

// IsUpstream reports whether err carries an UpstreamRequestError.
func IsUpstream(err error) bool {
	var ue *UpstreamRequestError
	return errors.As(err, &ue)
}
