package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/launchpad/pkg/logger"
	"github.com/ajitpratap0/launchpad/pkg/observability"
	"github.com/ajitpratap0/launchpad/pkg/registry"
)

const envPrefix = "LAUNCHPAD"

// newEnv returns a viper instance that resolves each flag of cmd from the
// command line first, then from LAUNCHPAD_<FLAG_NAME>, then from the flag
// default
func newEnv(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	return v, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "launchpad",
		Short: "Launchpad - configuration-driven application bootstrapper",
		Long: `Launchpad builds an application object graph from layered configuration
files and runs the target object.

Every flag can also be set through the environment as LAUNCHPAD_<FLAG>,
for example LAUNCHPAD_BASE_DIR or LAUNCHPAD_LOG_LEVEL.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupAmbient,
	}

	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "json", "Log encoding (json, console)")
	root.PersistentFlags().String("log-file", "", "Also write logs to this rotating file")
	root.PersistentFlags().Bool("trace", false, "Export trace spans to stderr")

	root.AddCommand(
		newBootCommand(),
		newBuildCommand(),
		newTypesCommand(),
		newVersionCommand(),
	)
	return root
}

// setupAmbient initializes logging and tracing from the persistent flags
func setupAmbient(cmd *cobra.Command, _ []string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}

	cfg := logger.Config{
		Level:    env.GetString("log-level"),
		Encoding: env.GetString("log-format"),
	}
	if file := env.GetString("log-file"); file != "" {
		cfg.File = &logger.FileConfig{
			Filename:   file,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		}
	}
	if err := logger.Init(cfg); err != nil {
		return err
	}

	if env.GetBool("trace") {
		tc := observability.DefaultConfig()
		tc.ServiceVersion = version
		tc.Writer = os.Stderr
		tc.PrettyPrint = true
		if err := observability.Initialize(tc); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}
	return nil
}

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List registered object types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tDESCRIPTION")
			for _, name := range registry.List() {
				info, err := registry.GetRegistry().Info(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\n", name, info.Description)
			}
			return w.Flush()
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Launchpad v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
