package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdpower/ctxgw-report/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls   [][]string
	outputs map[string][]byte
	errs    map[string]error
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	key := strings.Join(call, " ")
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.outputs[key], nil
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	reqPath := filepath.Join(dir, "telemetry.jsonl")
	require.NoError(t, os.WriteFile(reqPath, []byte(`{"path":"/v1/messages"}`), 0o600))

	src := FileSource{RequestPath: reqPath}

	data, err := src.RequestLog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"path":"/v1/messages"}`, string(data))

	// Missing compression log is not an error.
	data, err = src.CompressionLog(context.Background())
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "compression.jsonl"), []byte(`{"status":"compressed"}`), 0o600))
	data, err = src.CompressionLog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"status":"compressed"}`, string(data))
}

func TestFileSourceMissingRequestLog(t *testing.T) {
	src := FileSource{RequestPath: filepath.Join(t.TempDir(), "missing.jsonl")}

	_, err := src.RequestLog(context.Background())
	require.Error(t, err)

	var loaderErr types.LoaderError
	require.ErrorAs(t, err, &loaderErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestContainerSource(t *testing.T) {
	fake := &fakeRunner{
		outputs: map[string][]byte{
			"docker exec abc cat /app/logs/telemetry.jsonl": []byte("req"),
		},
		errs: map[string]error{
			"docker exec abc cat /app/logs/compression.jsonl": errors.New("exit status 1"),
		},
	}

	src := ContainerSource{
		Container:       "abc",
		RequestPath:     DefaultRequestPath,
		CompressionPath: DefaultCompressionPath,
		Runner:          fake.run,
	}

	data, err := src.RequestLog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "req", string(data))

	data, err = src.CompressionLog(context.Background())
	require.NoError(t, err, "a missing compression log degrades to empty")
	assert.Empty(t, data)
	assert.Equal(t, "container abc", src.Describe())
}

func TestContainerSourceRequestLogFailureIsFatal(t *testing.T) {
	fake := &fakeRunner{
		errs: map[string]error{
			"docker exec abc cat /app/logs/telemetry.jsonl": errors.New("no such container"),
		},
	}
	src := ContainerSource{Container: "abc", RequestPath: DefaultRequestPath, Runner: fake.run}

	_, err := src.RequestLog(context.Background())
	var loaderErr types.LoaderError
	require.ErrorAs(t, err, &loaderErr)
	assert.Equal(t, "abc:/app/logs/telemetry.jsonl", loaderErr.Path)
}

func TestFindContainer(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		err     error
		want    string
		wantErr bool
	}{
		{name: "single", output: "f00dcafe\n", want: "f00dcafe"},
		{name: "scaled", output: "\nfirst\nsecond\n", want: "first"},
		{name: "none running", output: "  \n", wantErr: true},
		{name: "docker missing", err: errors.New("executable file not found"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "docker compose ps -q context-gateway"
			fake := &fakeRunner{
				outputs: map[string][]byte{key: []byte(tt.output)},
				errs:    map[string]error{},
			}
			if tt.err != nil {
				fake.errs[key] = tt.err
			}

			got, err := FindContainer(context.Background(), fake.run, DefaultService)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrNoContainer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	reqPath := filepath.Join(dir, "telemetry.jsonl")
	require.NoError(t, os.WriteFile(reqPath, nil, 0o600))

	t.Run("existing file", func(t *testing.T) {
		src, err := Resolve(context.Background(), reqPath, ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, FileSource{RequestPath: reqPath}, src)
	})

	t.Run("named container", func(t *testing.T) {
		fake := &fakeRunner{}
		src, err := Resolve(context.Background(), "gateway-1", ResolveOptions{Runner: fake.run})
		require.NoError(t, err)

		cs, ok := src.(ContainerSource)
		require.True(t, ok)
		assert.Equal(t, "gateway-1", cs.Container)
		assert.Equal(t, DefaultRequestPath, cs.RequestPath)
		assert.Equal(t, DefaultCompressionPath, cs.CompressionPath)
		assert.Empty(t, fake.calls, "no discovery when a container is named")
	})

	t.Run("discovered container", func(t *testing.T) {
		fake := &fakeRunner{outputs: map[string][]byte{
			"docker compose ps -q my-gateway": []byte("deadbeef\n"),
		}}
		src, err := Resolve(context.Background(), "", ResolveOptions{Service: "my-gateway", Runner: fake.run})
		require.NoError(t, err)
		assert.Equal(t, "container deadbeef", src.Describe())
	})

	t.Run("nothing found", func(t *testing.T) {
		fake := &fakeRunner{}
		_, err := Resolve(context.Background(), "", ResolveOptions{Runner: fake.run})
		assert.ErrorIs(t, err, types.ErrNoLogSource)
		assert.ErrorIs(t, err, types.ErrNoContainer)
	})
}
