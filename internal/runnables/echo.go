package runnables

import (
	"context"
	"fmt"
	"io"

	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/registry"
)

// Echo writes Message followed by a newline
type Echo struct {
	Message string `mapstructure:"message"`
	Stream  string `mapstructure:"stream"`

	out io.Writer
}

func newEcho(_ context.Context, spec registry.Spec) (any, error) {
	e := &Echo{}
	if err := spec.Decode(e); err != nil {
		return nil, err
	}

	switch e.Stream {
	case "", "stdout":
		e.out = stdout
	case "stderr":
		e.out = stderr
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unknown stream %q", e.Stream).
			WithDetail("id", spec.ID)
	}
	return e, nil
}

// Run implements bootstrap.Runnable
func (e *Echo) Run(context.Context) error {
	if _, err := fmt.Fprintln(e.out, e.Message); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write message")
	}
	return nil
}
