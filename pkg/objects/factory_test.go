package objects

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/launchpad/pkg/classloader"
	"github.com/ajitpratap0/launchpad/pkg/config"
	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/registry"
	"github.com/ajitpratap0/launchpad/pkg/testutil"
)

type holder struct {
	id    string
	props map[string]any
}

var errBoom = stderrors.New("boom")

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	require.NoError(t, reg.Register("holder", func(_ context.Context, spec registry.Spec) (any, error) {
		return &holder{id: spec.ID, props: spec.Properties}, nil
	}))
	require.NoError(t, reg.Register("failing", func(context.Context, registry.Spec) (any, error) {
		return nil, errBoom
	}))
	return reg
}

func testConfig(t *testing.T, objects map[string]any) *config.Configuration {
	t.Helper()
	cfg, err := config.NewFactory().Create(context.Background(), "", "", "", []config.Fragment{
		{"objects": objects},
	})
	require.NoError(t, err)
	return cfg
}

func def(typ string, props map[string]any) map[string]any {
	return map[string]any{"type": typ, "properties": props}
}

func TestFactory_ConfigDefinition(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"app.main": def("holder", map[string]any{"name": "main"}),
	})
	f := NewFactory(cfg, testRegistry(t), nil, WithLogger(testutil.TestLogger(t)))

	obj, err := f.Create(context.Background(), "App.Main")
	require.NoError(t, err)

	h := obj.(*holder)
	assert.Equal(t, "App.Main", h.id)
	assert.Equal(t, "main", h.props["name"])
}

func TestFactory_ClassLoaderDefinition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "jobs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jobs", "Cleanup.yaml"),
		[]byte("type: holder\nproperties:\n  Retention: 7d\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jobs", "Broken.json"),
		[]byte(`{"properties": {}}`), 0o644))

	loader := classloader.New()
	loader.Load(map[string]string{"app": dir})

	cfg := testConfig(t, map[string]any{
		"app.jobs.override": def("holder", map[string]any{"from": "config"}),
	})
	f := NewFactory(cfg, testRegistry(t), loader)

	obj, err := f.Create(context.Background(), "app.jobs.Cleanup")
	require.NoError(t, err)
	assert.Equal(t, "7d", obj.(*holder).props["Retention"])

	obj, err = f.Create(context.Background(), "app.jobs.override")
	require.NoError(t, err)
	assert.Equal(t, "config", obj.(*holder).props["from"])

	_, err = f.Create(context.Background(), "app.jobs.Broken")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = f.Create(context.Background(), "app.jobs.Missing")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestFactory_RegisteredTypeFallback(t *testing.T) {
	f := NewFactory(nil, testRegistry(t), nil)

	obj, err := f.Create(context.Background(), "holder")
	require.NoError(t, err)
	assert.Empty(t, obj.(*holder).props)
}

func TestFactory_Errors(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"app.unregistered": def("nope", nil),
		"app.failing":      def("failing", nil),
	})
	f := NewFactory(cfg, testRegistry(t), nil)

	_, err := f.Create(context.Background(), "app.unknown")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	_, err = f.Create(context.Background(), "app.unregistered")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	_, err = f.Create(context.Background(), "app.failing")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.ErrorIs(t, err, errBoom)
}

func TestFactory_References(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"app.main": def("holder", map[string]any{
			"child":   "@app.child",
			"list":    []any{"@app.child", "literal", 3},
			"nested":  map[string]any{"inner": "@app.child"},
			"escaped": "@@home",
			"bare":    "@",
		}),
		"app.child": def("holder", map[string]any{"name": "child"}),
	})
	f := NewFactory(cfg, testRegistry(t), nil)

	obj, err := f.Create(context.Background(), "app.main")
	require.NoError(t, err)
	props := obj.(*holder).props

	child, ok := props["child"].(*holder)
	require.True(t, ok)
	assert.Equal(t, "child", child.props["name"])

	list := props["list"].([]any)
	assert.IsType(t, &holder{}, list[0])
	assert.Equal(t, "literal", list[1])
	assert.Equal(t, 3, list[2])

	assert.IsType(t, &holder{}, props["nested"].(map[string]any)["inner"])
	assert.Equal(t, "@home", props["escaped"])
	assert.Equal(t, "@", props["bare"])

	// non-shared references are distinct instances
	assert.NotSame(t, child, list[0])
}

func TestFactory_CircularReferences(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"app.a":    def("holder", map[string]any{"next": "@app.b"}),
		"app.b":    def("holder", map[string]any{"next": []any{"@app.a"}}),
		"app.self": def("holder", map[string]any{"me": "@APP.SELF"}),
	})
	f := NewFactory(cfg, testRegistry(t), nil)

	_, err := f.Create(context.Background(), "app.a")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))

	_, err = f.Create(context.Background(), "app.self")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
}

func TestFactory_SiblingReferencesAreNotCycles(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"app.main": def("holder", map[string]any{"a": "@app.leaf", "b": "@app.leaf"}),
		"app.leaf": def("holder", nil),
	})
	f := NewFactory(cfg, testRegistry(t), nil)

	_, err := f.Create(context.Background(), "app.main")
	require.NoError(t, err)
}

func TestFactory_SharedObjects(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"app.pool":  map[string]any{"type": "holder", "shared": true},
		"app.plain": map[string]any{"type": "holder"},
		"app.user":  def("holder", map[string]any{"pool": "@app.pool"}),
	})
	f := NewFactory(cfg, testRegistry(t), nil)
	ctx := context.Background()

	p1, err := f.Create(ctx, "app.pool")
	require.NoError(t, err)
	p2, err := f.Create(ctx, "app.pool")
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	user, err := f.Create(ctx, "app.user")
	require.NoError(t, err)
	assert.Same(t, p1, user.(*holder).props["pool"])

	a, err := f.Create(ctx, "app.plain")
	require.NoError(t, err)
	b, err := f.Create(ctx, "app.plain")
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	// a new factory has its own shared instances
	other, err := NewFactory(cfg, testRegistry(t), nil).Create(ctx, "app.pool")
	require.NoError(t, err)
	assert.NotSame(t, p1, other)
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		in      string
		ref     string
		literal string
		isRef   bool
	}{
		{in: "@app.main", ref: "app.main", isRef: true},
		{in: "@@app.main", literal: "@app.main"},
		{in: "@", literal: "@"},
		{in: "plain", literal: "plain"},
		{in: "", literal: ""},
	}

	for _, tt := range tests {
		ref, literal, isRef := parseReference(tt.in)
		assert.Equal(t, tt.isRef, isRef, tt.in)
		assert.Equal(t, tt.ref, ref, tt.in)
		assert.Equal(t, tt.literal, literal, tt.in)
	}
}

func TestDefaultProviderIsInstalled(t *testing.T) {
	const typeName = "objects.test.default"
	if !registry.Has(typeName) {
		require.NoError(t, registry.Register(typeName, func(_ context.Context, spec registry.Spec) (any, error) {
			return &holder{id: spec.ID}, nil
		}))
	}

	cfg, err := config.Default().Create(context.Background(), "", "", "", []config.Fragment{
		{"objects": map[string]any{"app.main": map[string]any{"type": typeName}}},
	})
	require.NoError(t, err)

	of := cfg.ObjectFactory()
	assert.IsType(t, &Factory{}, of)

	obj, err := of.Create(context.Background(), "app.main")
	require.NoError(t, err)
	assert.Equal(t, "app.main", obj.(*holder).id)
}
