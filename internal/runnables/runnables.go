// Package runnables registers the built-in object types that can serve as a
// boot target. Importing it for side effects makes them available to every
// object factory that uses the global registry:
//
//	import _ "github.com/ajitpratap0/launchpad/internal/runnables"
package runnables

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ajitpratap0/launchpad/pkg/logger"
	"github.com/ajitpratap0/launchpad/pkg/registry"
)

// Type names
const (
	TypeNoop          = "noop"
	TypeEcho          = "echo"
	TypeSequence      = "sequence"
	TypeSysInfo       = "sysinfo"
	TypeMetricsServer = "metrics.server"
)

// output streams, replaced in tests
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func init() {
	Register(registry.GetRegistry())
}

// Register adds the built-in types to reg
func Register(reg *registry.Registry) {
	reg.MustRegister(TypeNoop, newNoop, registry.TypeInfo{
		Description: "Does nothing and returns immediately",
	})
	reg.MustRegister(TypeEcho, newEcho, registry.TypeInfo{
		Description: "Writes a message to stdout or stderr",
		Properties: map[string]string{
			"message": "text to write",
			"stream":  "stdout (default) or stderr",
		},
	})
	reg.MustRegister(TypeSequence, newSequence, registry.TypeInfo{
		Description: "Runs its steps in order and stops at the first error",
		Properties: map[string]string{
			"steps": "list of runnable objects, usually @references",
		},
	})
	reg.MustRegister(TypeSysInfo, newSysInfo, registry.TypeInfo{
		Description: "Prints a host, CPU and memory summary",
		Properties: map[string]string{
			"format": "text (default) or json",
		},
	})
	reg.MustRegister(TypeMetricsServer, newMetricsServer, registry.TypeInfo{
		Description: "Serves Prometheus metrics until the context ends",
		Properties: map[string]string{
			"addr":             "listen address, default :9090",
			"path":             "handler path, default /metrics",
			"shutdown_timeout": "graceful shutdown timeout, default 5s",
		},
	})
}

func log(component string) *zap.Logger {
	return logger.Get().With(zap.String("component", component))
}

// Noop returns nil without doing anything
type Noop struct{}

func newNoop(context.Context, registry.Spec) (any, error) {
	return Noop{}, nil
}

// Run implements bootstrap.Runnable
func (Noop) Run(context.Context) error { return nil }
