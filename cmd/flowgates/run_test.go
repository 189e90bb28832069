package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/flowgraph/internal/logging"
	"github.com/ib-77/flowgraph/pkg/flow/config"
)

func TestParseBits(t *testing.T) {
	t.Parallel()

	bits, err := parseBits("01 T,f_1")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false, true}, bits)

	_, err = parseBits("012")
	assert.ErrorContains(t, err, "position 2")
}

func TestLine_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "  1  0 1 -> 1", line{Seq: 1, B: true, Out: true}.String())
	assert.Equal(t, "  2  1 -> 0", line{Seq: 2, Unary: true, A: true}.String())
}

func runTestGate(t *testing.T, op string, a, b []bool) ([]line, string, *prometheus.Registry) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	registry := prometheus.NewRegistry()
	lines, err := runGate(ctx, gateRun{
		op:       op,
		a:        a,
		b:        b,
		engine:   config.Default(),
		logger:   logging.NewNop(),
		registry: registry,
		out:      &out,
	})
	require.NoError(t, err)
	return lines, out.String(), registry
}

func TestRunGate_Xor(t *testing.T) {
	t.Parallel()

	lines, out, _ := runTestGate(t, "xor",
		[]bool{false, false, true, true},
		[]bool{false, true, false, true})

	require.Len(t, lines, 4)
	for i, want := range []bool{false, true, true, false} {
		assert.Equal(t, i+1, lines[i].Seq)
		assert.Equal(t, want, lines[i].Out, "row %d", i)
	}
	assert.Equal(t, 4, strings.Count(out, "->"))
}

func TestRunGate_ShorterInputBounds(t *testing.T) {
	t.Parallel()

	lines, _, _ := runTestGate(t, "and", []bool{true, true, true}, []bool{true})
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Out)
}

func TestRunGate_Not(t *testing.T) {
	t.Parallel()

	lines, out, _ := runTestGate(t, "not", []bool{true, false}, nil)
	require.Len(t, lines, 2)
	assert.False(t, lines[0].Out)
	assert.True(t, lines[1].Out)
	assert.Contains(t, out, "  1  1 -> 0")
}

func TestRunGate_PrintsInOrderWithDefaultPool(t *testing.T) {
	t.Parallel()

	require.Greater(t, config.Default().Pool.Workers, 1)

	a := make([]bool, 64)
	for i := range a {
		a[i] = i%3 == 0
	}
	lines, out, _ := runTestGate(t, "not", a, nil)
	require.Len(t, lines, len(a))

	printed := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, printed, len(a))
	for i, l := range printed {
		want := line{Seq: i + 1, Unary: true, A: a[i], Out: !a[i]}
		assert.Equal(t, want.String(), l, "row %d", i+1)
	}
}

func TestConsole_Resequences(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	c := newConsole(&out)
	ctx := context.Background()

	require.NoError(t, c.Process(ctx, line{Seq: 2, Unary: true}))
	require.NoError(t, c.Process(ctx, line{Seq: 4, Unary: true}))
	assert.Empty(t, out.String())

	require.NoError(t, c.Process(ctx, line{Seq: 1, Unary: true, A: true}))
	assert.Equal(t, "  1  1 -> 0\n  2  0 -> 0\n", out.String())

	require.NoError(t, c.Flush())
	assert.Equal(t, "  1  1 -> 0\n  2  0 -> 0\n  4  0 -> 0\n", out.String())
}

func TestRunGate_UnknownGate(t *testing.T) {
	t.Parallel()

	_, err := runGate(context.Background(), gateRun{
		op:       "implies",
		engine:   config.Default(),
		logger:   logging.NewNop(),
		registry: prometheus.NewRegistry(),
		out:      &bytes.Buffer{},
	})
	assert.ErrorContains(t, err, "unknown gate")
}

func TestMetricsRouter(t *testing.T) {
	t.Parallel()

	_, _, registry := runTestGate(t, "or", []bool{true}, []bool{false})
	srv := httptest.NewServer(newMetricsRouter(registry))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "flowgraph_")
	assert.Contains(t, body.String(), `pool="console"`)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "flowgates version dev\n", out.String())
}
