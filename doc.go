// Package launchpad builds an application from layered configuration and
// runs it.
//
// An application is described as a set of named objects in configuration
// files. Launchpad merges the files, creates the object graph and runs the
// target object, so the same binary can start a metrics exporter, a batch
// job or a chain of steps depending only on the configuration it is given.
//
// # Architecture
//
// Startup is split into small collaborators that are wired by a builder:
//
// 1. Class loader: maps namespace prefixes such as "app" to directories so
// that identifiers like "app.jobs.Nightly" resolve to definition files.
//
// 2. Configuration factory: reads a primary document from disk, S3 or GCS,
// follows its imports, substitutes ${VAR} placeholders, merges extra
// fragments on top and caches the result in a compressed file.
//
// 3. Object factory: creates objects from their definitions through the
// type registry, resolving @references between them.
//
// 4. Bootstrapper: a fluent builder that drives the steps above in a fixed
// order and runs the resulting target.
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/ajitpratap0/launchpad/pkg/bootstrap"
//	    _ "github.com/ajitpratap0/launchpad/internal/runnables"
//	)
//
//	err := bootstrap.New().
//	    SetConfigFile("app.yaml").
//	    SetBaseDir("/srv/app").
//	    SetTargetObjectID("app.main").
//	    Boot(context.Background())
//
// with app.yaml:
//
//	imports:
//	  - common.yaml
//	objects:
//	  app.main:
//	    type: sequence
//	    properties:
//	      steps: ["@app.info", "@app.metrics"]
//	  app.info:
//	    type: sysinfo
//	  app.metrics:
//	    type: metrics.server
//	    properties:
//	      addr: ${METRICS_ADDR}
//
// # Key Packages
//
//	pkg/bootstrap     - Builder, Build, Run and Boot
//	pkg/config        - Configuration factory, sources and cache
//	pkg/objects       - Object factory bound to a configuration
//	pkg/registry      - Object type registry
//	pkg/classloader   - Namespace prefix aliases
//	pkg/compression   - Cache codecs
//	pkg/errors        - Structured error handling
//	pkg/logger        - Structured logging
//	pkg/metrics       - Prometheus metrics
//	pkg/observability - OpenTelemetry tracing
//
// # Command Line
//
//	launchpad boot -c app.yaml --base-dir /srv/app -t app.main
//	launchpad build --ext @override.yaml -t app.main
//	launchpad types
//
// Every scalar flag can also be set as LAUNCHPAD_<FLAG>, and a .env file in
// the working directory is loaded on startup.
package launchpad
