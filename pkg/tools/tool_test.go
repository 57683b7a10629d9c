package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubTool(name string, result *Result) *Tool {
	return &Tool{
		Definition: Definition{Name: name},
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			return result, nil
		},
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	t.Run("lookup of missing tool fails", func(t *testing.T) {
		_, err := r.Get("nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrToolNotFound)
		assert.False(t, r.Has("nope"))
	})

	t.Run("register and lookup", func(t *testing.T) {
		r.Register(stubTool("b_tool", &Result{Name: "b_tool", Success: true}))
		r.Register(stubTool("a_tool", &Result{Name: "a_tool", Success: true}))

		tool, err := r.Get("a_tool")
		require.NoError(t, err)
		assert.Equal(t, "a_tool", tool.Name)
		assert.True(t, r.Has("b_tool"))
	})

	t.Run("names are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"a_tool", "b_tool"}, r.Names())
	})

	t.Run("re-register replaces", func(t *testing.T) {
		r.Register(stubTool("a_tool", &Result{Name: "a_tool", Success: false, Error: "replaced"}))
		tool, err := r.Get("a_tool")
		require.NoError(t, err)

		result, err := tool.Handler(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "replaced", result.Error)
	})
}

func TestArgsHelpers(t *testing.T) {
	args := Args{
		"city": "Kampala",
		"lat":  0.3476,
		"days": float64(5), // JSON numbers decode as float64
	}

	assert.Equal(t, "Kampala", args.String("city"))
	assert.Equal(t, "", args.String("missing"))

	lat, ok := args.Float("lat")
	require.True(t, ok)
	assert.InDelta(t, 0.3476, lat, 1e-9)
	_, ok = args.Float("missing")
	assert.False(t, ok)

	assert.Equal(t, 5, args.Int("days", 3))
	assert.Equal(t, 3, args.Int("missing", 3))
}

func TestExecutor(t *testing.T) {
	t.Run("executes registered tool", func(t *testing.T) {
		r := NewRegistry()
		r.Register(stubTool("echo", &Result{Name: "echo", Success: true}))
		e := NewExecutor(r, time.Second)

		result, err := e.Execute(context.Background(), "echo", nil)
		require.NoError(t, err)
		assert.True(t, result.Success)
	})

	t.Run("missing tool returns ErrToolNotFound", func(t *testing.T) {
		e := NewExecutor(NewRegistry(), time.Second)
		_, err := e.Execute(context.Background(), "missing", nil)
		assert.ErrorIs(t, err, ErrToolNotFound)
	})

	t.Run("timeout returns ErrToolTimeout", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&Tool{
			Definition: Definition{Name: "slow", Timeout: 20 * time.Millisecond},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Second):
					return &Result{Name: "slow", Success: true}, nil
				}
			},
		})
		e := NewExecutor(r, time.Second)

		_, err := e.Execute(context.Background(), "slow", nil)
		assert.ErrorIs(t, err, ErrToolTimeout)
	})

	t.Run("caller cancellation is not reported as tool timeout", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&Tool{
			Definition: Definition{Name: "slow"},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		})
		e := NewExecutor(r, time.Minute)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := e.Execute(ctx, "slow", nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrToolTimeout)
	})

	t.Run("async execution", func(t *testing.T) {
		r := NewRegistry()
		r.Register(stubTool("echo", &Result{Name: "echo", Success: true}))
		e := NewExecutor(r, time.Second)

		x := e.ExecuteAsync(context.Background(), "echo", nil)
		result, err := x.Wait(context.Background())
		require.NoError(t, err)
		assert.True(t, result.Success)
	})
}

func TestCityCoords(t *testing.T) {
	lat, lon, err := CityCoords("Kampala")
	require.NoError(t, err)
	assert.InDelta(t, 0.3476, lat, 1e-4)
	assert.InDelta(t, 32.5825, lon, 1e-4)

	// Case and whitespace tolerant.
	_, _, err = CityCoords("  NAIROBI ")
	assert.NoError(t, err)

	_, _, err = CityCoords("atlantis")
	assert.Error(t, err)
}
