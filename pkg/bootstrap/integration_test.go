package bootstrap_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/launchpad/pkg/bootstrap"
	"github.com/ajitpratap0/launchpad/pkg/classloader"
	"github.com/ajitpratap0/launchpad/pkg/config"
	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/objects"
	"github.com/ajitpratap0/launchpad/pkg/registry"
	"github.com/ajitpratap0/launchpad/pkg/testutil"
)

type counter struct {
	runs    *atomic.Int32
	Message string `mapstructure:"message"`
}

func (c *counter) Run(context.Context) error {
	c.runs.Add(1)
	return nil
}

type BootSuite struct {
	testutil.IntegrationTestSuite

	runs     atomic.Int32
	messages []string
	loader   *classloader.Loader
	factory  *config.Factory
}

func TestBootSuite(t *testing.T) {
	testutil.IntegrationTest(t)
	suite.Run(t, new(BootSuite))
}

func (s *BootSuite) SetupTest() {
	s.runs.Store(0)
	s.messages = nil

	reg := registry.NewRegistry()
	reg.MustRegister("test.counter", func(_ context.Context, spec registry.Spec) (any, error) {
		c := &counter{runs: &s.runs}
		if err := spec.Decode(c); err != nil {
			return nil, err
		}
		s.messages = append(s.messages, c.Message)
		return c, nil
	})
	reg.MustRegister("test.plain", func(context.Context, registry.Spec) (any, error) {
		return struct{}{}, nil
	})

	s.loader = classloader.New()
	s.factory = config.NewFactory(
		config.WithObjectFactoryProvider(objects.Provider(reg, s.loader)),
		config.WithLogger(testutil.TestLogger(s.T())),
	)
}

func (s *BootSuite) builder() *bootstrap.Builder {
	return bootstrap.New(
		bootstrap.WithClassLoader(s.loader),
		bootstrap.WithConfigurationFactory(bootstrap.FromConfigFactory(s.factory)),
		bootstrap.WithLogger(testutil.TestLogger(s.T())),
	)
}

func (s *BootSuite) TestBootFromConfigFile() {
	dir := filepath.Join(s.TempDir(), "file")
	s.WriteFile("file/app.yaml", `
objects:
  app.main:
    type: test.counter
    properties:
      message: hello
`)

	err := s.builder().
		SetConfigFile("app.yaml").
		SetBaseDir(dir).
		SetTargetObjectID("app.main").
		Boot(s.Context())
	s.Require().NoError(err)
	s.Equal(int32(1), s.runs.Load())
	s.Equal([]string{"hello"}, s.messages)
}

func (s *BootSuite) TestExtConfigsOverrideFile() {
	dir := filepath.Join(s.TempDir(), "ext")
	s.WriteFile("ext/app.yaml", `
objects:
  app.main:
    type: test.counter
    properties:
      message: from file
`)

	err := s.builder().
		SetConfigFile("app.yaml").
		SetBaseDir(dir).
		SetExtConfigs([]config.Fragment{
			{"objects": map[string]any{"app.main": map[string]any{"properties": map[string]any{"message": "first"}}}},
			{"objects": map[string]any{"app.main": map[string]any{"properties": map[string]any{"message": "second"}}}},
		}).
		SetTargetObjectID("app.main").
		Boot(s.Context())
	s.Require().NoError(err)
	s.Equal([]string{"second"}, s.messages)
}

func (s *BootSuite) TestClassMapLocatesDefinition() {
	objectsDir := filepath.Join(s.TempDir(), "classmap", "objects")
	s.WriteFile("classmap/objects/jobs/Nightly.yaml", `
type: test.counter
properties:
  message: nightly
`)

	err := s.builder().
		AddClassMapEntry("app", objectsDir).
		SetTargetObjectID("app.jobs.Nightly").
		Boot(s.Context())
	s.Require().NoError(err)
	s.Equal(int32(1), s.runs.Load())
	s.Equal(objectsDir, s.loader.Aliases()["app"])
}

func (s *BootSuite) TestSwitchesReachFactory() {
	cacheDir := filepath.Join(s.TempDir(), "cache")

	_, err := s.builder().
		SetExtConfigs([]config.Fragment{{"objects": map[string]any{"app.main": map[string]any{"type": "test.counter"}}}}).
		SetConfigurationFactoryDebug(true).
		SetConfigurationFactoryCacheDir(cacheDir).
		SetTargetObjectID("app.main").
		Build(s.Context())
	s.Require().NoError(err)
	s.True(s.factory.Debug())
	s.Equal(cacheDir, s.factory.CacheDir())

	_, err = s.builder().SetTargetObjectID("test.counter").Build(s.Context())
	s.Require().NoError(err)
	s.False(s.factory.Debug())
	s.Equal(cacheDir, s.factory.CacheDir())
	s.Equal(int32(0), s.runs.Load())
}

func (s *BootSuite) TestUnknownTarget() {
	err := s.builder().SetTargetObjectID("app.missing").Boot(s.Context())
	s.Require().Error(err)
	s.True(errors.IsType(err, errors.ErrorTypeNotFound))
	s.Equal(int32(0), s.runs.Load())
}

func (s *BootSuite) TestMissingConfigFile() {
	err := s.builder().
		SetConfigFile("missing.yaml").
		SetBaseDir(s.TempDir()).
		SetTargetObjectID("app.main").
		Boot(s.Context())
	s.Require().Error(err)
	s.True(errors.IsType(err, errors.ErrorTypeNotFound))
}

func (s *BootSuite) TestTargetNotRunnable() {
	err := s.builder().SetTargetObjectID("test.plain").Boot(s.Context())
	s.Require().Error(err)
	s.True(errors.IsType(err, errors.ErrorTypeCapability))
}
