package runnables

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ajitpratap0/launchpad/pkg/bootstrap"
	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/registry"
)

// Sequence runs its steps one after another
type Sequence struct {
	id    string
	steps []bootstrap.Runnable
}

func newSequence(_ context.Context, spec registry.Spec) (any, error) {
	var props struct {
		Steps []any `mapstructure:"steps"`
	}
	if err := spec.Decode(&props); err != nil {
		return nil, err
	}

	s := &Sequence{id: spec.ID, steps: make([]bootstrap.Runnable, 0, len(props.Steps))}
	for i, step := range props.Steps {
		r, ok := step.(bootstrap.Runnable)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeValidation, "step %d of %s is %T, not a runnable object", i, spec.ID, step).
				WithDetail("id", spec.ID)
		}
		s.steps = append(s.steps, r)
	}
	return s, nil
}

// Len returns the number of steps
func (s *Sequence) Len() int { return len(s.steps) }

// Run runs every step in order and returns the first step error unmodified
func (s *Sequence) Run(ctx context.Context) error {
	l := log("sequence").With(zap.String("id", s.id))
	for i, step := range s.steps {
		l.Debug("running step", zap.Int("step", i), zap.String("type", fmt.Sprintf("%T", step)))
		if err := step.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}
