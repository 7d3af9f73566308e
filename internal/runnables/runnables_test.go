package runnables

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/launchpad/pkg/bootstrap"
	"github.com/ajitpratap0/launchpad/pkg/config"
	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/objects"
	"github.com/ajitpratap0/launchpad/pkg/registry"
	"github.com/ajitpratap0/launchpad/pkg/testutil"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr := stdout, stderr
	stdout, stderr = out, errOut
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return out, errOut
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	Register(reg)
	return reg
}

func create(t *testing.T, reg *registry.Registry, typ string, props map[string]any) (any, error) {
	t.Helper()
	return reg.Create(context.Background(), registry.Spec{ID: "test." + typ, Type: typ, Properties: props})
}

func TestRegister_GlobalTypes(t *testing.T) {
	for _, typ := range []string{TypeNoop, TypeEcho, TypeSequence, TypeSysInfo, TypeMetricsServer} {
		assert.True(t, registry.Has(typ), typ)
	}

	info, err := testRegistry(t).Info(TypeEcho)
	require.NoError(t, err)
	assert.NotEmpty(t, info.Description)
	assert.Contains(t, info.Properties, "message")
}

func TestNoop(t *testing.T) {
	obj, err := create(t, testRegistry(t), TypeNoop, nil)
	require.NoError(t, err)
	assert.NoError(t, obj.(bootstrap.Runnable).Run(context.Background()))
}

func TestEcho(t *testing.T) {
	tests := []struct {
		name    string
		props   map[string]any
		wantOut string
		wantErr string
	}{
		{name: "default stream", props: map[string]any{"message": "hello"}, wantOut: "hello\n"},
		{name: "stdout", props: map[string]any{"message": "out", "stream": "stdout"}, wantOut: "out\n"},
		{name: "stderr", props: map[string]any{"message": "err", "stream": "stderr"}, wantErr: "err\n"},
		{name: "empty message", props: map[string]any{}, wantOut: "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := captureOutput(t)

			obj, err := create(t, testRegistry(t), TypeEcho, tt.props)
			require.NoError(t, err)
			require.NoError(t, obj.(bootstrap.Runnable).Run(context.Background()))

			assert.Equal(t, tt.wantOut, out.String())
			assert.Equal(t, tt.wantErr, errOut.String())
		})
	}
}

func TestEcho_UnknownStream(t *testing.T) {
	_, err := create(t, testRegistry(t), TypeEcho, map[string]any{"stream": "syslog"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSequence(t *testing.T) {
	rec := &testutil.Recorder{}
	step := func(name string, err error) bootstrap.Runnable {
		return bootstrap.RunnableFunc(func(context.Context) error {
			rec.Record(name)
			return err
		})
	}

	t.Run("runs in order", func(t *testing.T) {
		rec.Reset()
		obj, err := create(t, testRegistry(t), TypeSequence, map[string]any{
			"steps": []any{step("a", nil), step("b", nil), step("c", nil)},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, obj.(*Sequence).Len())

		require.NoError(t, obj.(bootstrap.Runnable).Run(context.Background()))
		assert.Equal(t, []string{"a", "b", "c"}, rec.Names())
	})

	t.Run("stops at first error", func(t *testing.T) {
		rec.Reset()
		boom := stderrors.New("boom")
		obj, err := create(t, testRegistry(t), TypeSequence, map[string]any{
			"steps": []any{step("a", nil), step("b", boom), step("c", nil)},
		})
		require.NoError(t, err)

		err = obj.(bootstrap.Runnable).Run(context.Background())
		assert.True(t, err == boom)
		assert.Equal(t, []string{"a", "b"}, rec.Names())
	})

	t.Run("empty", func(t *testing.T) {
		obj, err := create(t, testRegistry(t), TypeSequence, nil)
		require.NoError(t, err)
		assert.NoError(t, obj.(bootstrap.Runnable).Run(context.Background()))
	})

	t.Run("non-runnable step", func(t *testing.T) {
		_, err := create(t, testRegistry(t), TypeSequence, map[string]any{
			"steps": []any{"plain string"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a runnable object")
	})
}

func TestSequence_FromConfiguration(t *testing.T) {
	out, _ := captureOutput(t)

	cfg, err := config.NewFactory().Create(context.Background(), "", "", "", []config.Fragment{{
		"objects": map[string]any{
			"app.main": map[string]any{
				"type":       TypeSequence,
				"properties": map[string]any{"steps": []any{"@app.hello", "@app.bye"}},
			},
			"app.hello": map[string]any{"type": TypeEcho, "properties": map[string]any{"message": "hello"}},
			"app.bye":   map[string]any{"type": TypeEcho, "properties": map[string]any{"message": "bye"}},
		},
	}})
	require.NoError(t, err)

	f := objects.NewFactory(cfg, testRegistry(t), nil, objects.WithLogger(testutil.TestLogger(t)))
	obj, err := f.Create(context.Background(), "app.main")
	require.NoError(t, err)

	require.NoError(t, obj.(bootstrap.Runnable).Run(context.Background()))
	assert.Equal(t, "hello\nbye\n", out.String())
}

func TestSysInfo(t *testing.T) {
	if _, err := Collect(context.Background()); err != nil {
		t.Skipf("host information unavailable: %v", err)
	}

	t.Run("json", func(t *testing.T) {
		out, _ := captureOutput(t)
		obj, err := create(t, testRegistry(t), TypeSysInfo, map[string]any{"format": "json"})
		require.NoError(t, err)
		require.NoError(t, obj.(bootstrap.Runnable).Run(context.Background()))

		var summary Summary
		require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
		assert.Positive(t, summary.LogicalCPUs)
		assert.Positive(t, summary.MemoryTotal)
		assert.NotEmpty(t, summary.GoVersion)
	})

	t.Run("text", func(t *testing.T) {
		out, _ := captureOutput(t)
		obj, err := create(t, testRegistry(t), TypeSysInfo, nil)
		require.NoError(t, err)
		require.NoError(t, obj.(bootstrap.Runnable).Run(context.Background()))
		assert.Contains(t, out.String(), "host:")
		assert.Contains(t, out.String(), "memory:")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := create(t, testRegistry(t), TypeSysInfo, map[string]any{"format": "xml"})
		require.Error(t, err)
	})
}

func TestMetricsServer(t *testing.T) {
	obj, err := create(t, testRegistry(t), TypeMetricsServer, map[string]any{
		"addr":             "127.0.0.1:0",
		"shutdown_timeout": "2s",
	})
	require.NoError(t, err)
	srv := obj.(*MetricsServer)
	assert.Equal(t, "/metrics", srv.Path)
	assert.Equal(t, 2*time.Second, srv.ShutdownTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	addr, err := srv.ListenAddr(waitCtx)
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}

func TestMetricsServer_RunsOnce(t *testing.T) {
	obj, err := create(t, testRegistry(t), TypeMetricsServer, map[string]any{"addr": "127.0.0.1:0"})
	require.NoError(t, err)
	srv := obj.(*MetricsServer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, srv.Run(ctx))

	err = srv.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict), err.Error())

	addr, err := srv.ListenAddr(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, addr)
}

func TestMetricsServer_SharedStepInSequence(t *testing.T) {
	cfg, err := config.NewFactory().Create(context.Background(), "", "", "", []config.Fragment{{
		"objects": map[string]any{
			"app.main": map[string]any{
				"type":       TypeSequence,
				"properties": map[string]any{"steps": []any{"@app.metrics", "@app.metrics"}},
			},
			"app.metrics": map[string]any{
				"type":       TypeMetricsServer,
				"shared":     true,
				"properties": map[string]any{"addr": "127.0.0.1:0"},
			},
		},
	}})
	require.NoError(t, err)

	f := objects.NewFactory(cfg, testRegistry(t), nil, objects.WithLogger(testutil.TestLogger(t)))
	obj, err := f.Create(context.Background(), "app.main")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = obj.(bootstrap.Runnable).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict), err.Error())
}

func TestMetricsServer_InvalidPath(t *testing.T) {
	_, err := create(t, testRegistry(t), TypeMetricsServer, map[string]any{"path": "metrics"})
	require.Error(t, err)
}
