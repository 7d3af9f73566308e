package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/launchpad/pkg/bootstrap"
	"github.com/ajitpratap0/launchpad/pkg/compression"
	"github.com/ajitpratap0/launchpad/pkg/config"
	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/logger"
)

// bootOptions holds the values of the boot and build flags
type bootOptions struct {
	ConfigFile string
	BaseDir    string
	UserDir    string
	Target     string
	Debug      bool
	CacheDir   string
	CacheCodec string
	Ext        []string
	ClassMap   []string
}

func addBootFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("config", "c", "", "Primary configuration file or URL (s3://, gs://)")
	f.String("base-dir", "", "Base directory relative paths are resolved against")
	f.String("user-dir", "", "User directory exposed to configuration as ${USER_DIR}")
	f.StringArray("ext", nil, "Extra configuration fragment, inline YAML/JSON or @path (repeatable, later wins)")
	f.StringP("target", "t", "", "Identifier of the object to build")
	f.Bool("debug", false, "Configuration factory debug mode (bypasses the cache)")
	f.String("cache-dir", "", "Configuration cache directory")
	f.String("cache-codec", "", "Configuration cache compression (none, gzip, lz4, zstd, s2)")
	f.StringArray("class-map", nil, "Namespace alias prefix=path (repeatable)")
}

// loadBootOptions reads the boot flags. Scalar flags fall back to
// LAUNCHPAD_* environment variables; repeatable flags are command line only.
func loadBootOptions(cmd *cobra.Command) (*bootOptions, error) {
	env, err := newEnv(cmd)
	if err != nil {
		return nil, err
	}

	o := &bootOptions{
		ConfigFile: env.GetString("config"),
		BaseDir:    env.GetString("base-dir"),
		UserDir:    env.GetString("user-dir"),
		Target:     env.GetString("target"),
		Debug:      env.GetBool("debug"),
		CacheDir:   env.GetString("cache-dir"),
		CacheCodec: env.GetString("cache-codec"),
	}
	if o.Ext, err = cmd.Flags().GetStringArray("ext"); err != nil {
		return nil, err
	}
	if o.ClassMap, err = cmd.Flags().GetStringArray("class-map"); err != nil {
		return nil, err
	}
	return o, nil
}

// parseExt decodes one --ext value. A leading @ names a file to read.
func parseExt(arg string) (config.Fragment, error) {
	data := []byte(arg)
	source := "inline fragment"
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		b, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read ext fragment").
				WithDetail("path", path)
		}
		data = b
		source = path
	}

	var fragment map[string]any
	if err := yaml.Unmarshal(data, &fragment); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse "+source)
	}
	if fragment == nil {
		return nil, errors.Newf(errors.ErrorTypeValidation, "%s is empty or not a mapping", source)
	}
	return config.Fragment(fragment), nil
}

// parseClassMap decodes --class-map prefix=path entries in order
func parseClassMap(entries []string) ([][2]string, error) {
	out := make([][2]string, 0, len(entries))
	for _, e := range entries {
		prefix, path, ok := strings.Cut(e, "=")
		if !ok || path == "" {
			return nil, errors.Newf(errors.ErrorTypeValidation, "invalid class map entry %q, expected prefix=path", e)
		}
		out = append(out, [2]string{prefix, path})
	}
	return out, nil
}

// newBuilder configures a bootstrap builder from o. The process-wide cache
// codec is set here since the builder has no setter for it.
func (o *bootOptions) newBuilder(log *zap.Logger) (*bootstrap.Builder, error) {
	if o.CacheCodec != "" {
		algo, err := compression.ParseAlgorithm(o.CacheCodec)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid cache codec")
		}
		config.Default().SetCacheCodec(algo)
	}

	ext := make([]config.Fragment, 0, len(o.Ext))
	for _, arg := range o.Ext {
		fragment, err := parseExt(arg)
		if err != nil {
			return nil, err
		}
		ext = append(ext, fragment)
	}

	entries, err := parseClassMap(o.ClassMap)
	if err != nil {
		return nil, err
	}

	b := bootstrap.New(bootstrap.WithLogger(log.With(zap.String("component", "bootstrap")))).
		SetConfigFile(o.ConfigFile).
		SetBaseDir(o.BaseDir).
		SetUserDir(o.UserDir).
		SetExtConfigs(ext).
		SetTargetObjectID(o.Target).
		SetConfigurationFactoryDebug(o.Debug).
		SetConfigurationFactoryCacheDir(o.CacheDir)
	for _, e := range entries {
		b.AddClassMapEntry(e[0], e[1])
	}
	return b, nil
}

// prepare loads the options and returns a builder plus a context carrying
// the run id and target for logging
func prepare(cmd *cobra.Command) (context.Context, *bootstrap.Builder, *zap.Logger, error) {
	o, err := loadBootOptions(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx := context.WithValue(cmd.Context(), logger.RunIDKey, uuid.NewString())
	ctx = context.WithValue(ctx, logger.TargetKey, o.Target)
	log := logger.WithContext(ctx)

	b, err := o.newBuilder(log)
	if err != nil {
		return nil, nil, nil, err
	}
	return ctx, b, log, nil
}

func newBootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boot",
		Short: "Build the target object and run it",
		Long: `Build the target object from configuration and run it.

Example:
  launchpad boot -c app.yaml --base-dir /srv/app -t app.main
  launchpad boot --ext '{objects: {app.main: {type: sysinfo}}}' -t app.main`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, b, log, err := prepare(cmd)
			if err != nil {
				return err
			}

			log.Info("booting")
			if err := b.Boot(ctx); err != nil {
				return err
			}
			log.Info("target finished")
			return nil
		},
	}
	addBootFlags(cmd)
	return cmd
}

func newBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the target object without running it",
		Long: `Build the target object and print its Go type. Useful to validate a
configuration before deploying it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, b, _, err := prepare(cmd)
			if err != nil {
				return err
			}

			target, err := b.Build(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %T\n", b.State().TargetObjectID, target)
			return nil
		},
	}
	addBootFlags(cmd)
	return cmd
}
