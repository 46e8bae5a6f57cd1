package outline

import (
	"context"
	"errors"
	"fmt"
)

// ErrLengthMismatch is returned when a ranker does not return exactly one
// heading per candidate.
var ErrLengthMismatch = errors.New("ranked headings do not match candidates")

// Ranker assigns a level to every candidate, preserving order.
type Ranker interface {
	Rank(ctx context.Context, cands []Candidate) ([]RankedHeading, error)
}

// RankerFunc adapts a function to the Ranker interface.
type RankerFunc func(ctx context.Context, cands []Candidate) ([]RankedHeading, error)

func (f RankerFunc) Rank(ctx context.Context, cands []Candidate) ([]RankedHeading, error) {
	return f(ctx, cands)
}

// Assemble ranks the candidates and selects the title. The ranker is not
// called when there are no candidates.
func Assemble(ctx context.Context, cands []Candidate, r Ranker) (Outline, error) {
	if len(cands) == 0 {
		return Empty(), nil
	}

	headings, err := r.Rank(ctx, cands)
	if err != nil {
		return Outline{}, fmt.Errorf("rank headings: %w", err)
	}
	if len(headings) != len(cands) {
		return Outline{}, fmt.Errorf("%w: got %d for %d candidates", ErrLengthMismatch, len(headings), len(cands))
	}
	for i := range headings {
		if headings[i].Text != cands[i].Text || headings[i].Page != cands[i].Page {
			return Outline{}, fmt.Errorf("%w: entry %d reordered", ErrLengthMismatch, i)
		}
	}

	return Outline{
		Title:   SelectTitle(headings),
		Outline: headings,
	}, nil
}

// SelectTitle returns the text of the first H1 heading, or Untitled.
func SelectTitle(headings []RankedHeading) string {
	for _, h := range headings {
		if h.Level == H1 {
			return h.Text
		}
	}
	return Untitled
}
