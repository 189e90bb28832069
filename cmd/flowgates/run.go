package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/chain"
	"github.com/ib-77/flowgraph/pkg/flow/config"
	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/lite"
	"github.com/ib-77/flowgraph/pkg/flow/metric"
	"github.com/ib-77/flowgraph/pkg/flow/node"
	"github.com/ib-77/flowgraph/pkg/flow/tee"
	"github.com/ib-77/flowgraph/pkg/flow/threaded"
)

var binaryGates = map[string]func(opts ...core.Option) *node.Join[bool, bool, bool]{
	"and":  lite.And,
	"or":   lite.Or,
	"xor":  lite.Xor,
	"nand": lite.Nand,
	"nor":  lite.Nor,
	"xnor": lite.Xnor,
}

func gateNames() []string {
	names := []string{"not"}
	for name := range binaryGates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// line is one printed result.
type line struct {
	Seq   int
	Unary bool
	A, B  bool
	Out   bool
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (l line) String() string {
	if l.Unary {
		return fmt.Sprintf("%3d  %d -> %d", l.Seq, bit(l.A), bit(l.Out))
	}
	return fmt.Sprintf("%3d  %d %d -> %d", l.Seq, bit(l.A), bit(l.B), bit(l.Out))
}

// parseBits accepts 0/1 and f/t, ignoring separators.
func parseBits(s string) ([]bool, error) {
	var bits []bool
	for i, r := range strings.ToLower(s) {
		switch r {
		case '1', 't':
			bits = append(bits, true)
		case '0', 'f':
			bits = append(bits, false)
		case ',', ' ', '_':
		default:
			return nil, fmt.Errorf("invalid bit %q at position %d", r, i)
		}
	}
	return bits, nil
}

var runCmd = &cobra.Command{
	Use:   "run <gate>",
	Short: "Run a logic gate over input sequences",
	Long: fmt.Sprintf(`Feeds the sequences given with --a and --b into a gate and prints every result.
Gates: %s. The not gate only reads --a.`, strings.Join(gateNames(), ", ")),
	Args:      cobra.ExactArgs(1),
	ValidArgs: gateNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cmd.ErrOrStderr(), engine)

		aFlag, _ := cmd.Flags().GetString("a")
		bFlag, _ := cmd.Flags().GetString("b")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		a, err := parseBits(aFlag)
		if err != nil {
			return fmt.Errorf("--a: %w", err)
		}
		b, err := parseBits(bFlag)
		if err != nil {
			return fmt.Errorf("--b: %w", err)
		}

		registry := prometheus.NewRegistry()
		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			shutdown := serveMetrics(addr, registry, logger)
			defer shutdown()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		_, err = runGate(ctx, gateRun{
			op:       strings.ToLower(args[0]),
			a:        a,
			b:        b,
			engine:   engine,
			logger:   logger,
			registry: registry,
			out:      cmd.OutOrStdout(),
		})
		return err
	},
}

func init() {
	runCmd.Flags().String("a", "0011", "First input sequence")
	runCmd.Flags().String("b", "0101", "Second input sequence")
	runCmd.Flags().Duration("timeout", 10*time.Second, "Give up waiting for results after this long")
	rootCmd.AddCommand(runCmd)
}

type gateRun struct {
	op       string
	a, b     []bool
	engine   config.Engine
	logger   *slog.Logger
	registry prometheus.Registerer
	out      io.Writer
}

// console prints lines in Seq order. Lines arriving early wait until their
// predecessors were printed.
type console struct {
	mu      sync.Mutex
	w       io.Writer
	next    int
	pending map[int]line
}

func newConsole(w io.Writer) *console {
	return &console{w: w, next: 1, pending: make(map[int]line)}
}

func (c *console) Process(_ context.Context, l line) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[l.Seq] = l
	for {
		p, ok := c.pending[c.next]
		if !ok {
			return nil
		}
		delete(c.pending, c.next)
		c.next++
		if _, err := fmt.Fprintln(c.w, p); err != nil {
			return err
		}
	}
}

// Flush prints the lines still waiting for a missing predecessor.
func (c *console) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, seq := range slices.Sorted(maps.Keys(c.pending)) {
		if _, err := fmt.Fprintln(c.w, c.pending[seq]); err != nil {
			return err
		}
		delete(c.pending, seq)
	}
	return nil
}

type feed struct {
	name   string
	in     flow.Input[bool]
	values []bool
}

// runGate builds gate -> enumerate -> tee{console, results}, feeds the inputs
// and waits until every result was recorded.
func runGate(ctx context.Context, r gateRun) ([]line, error) {
	if _, ok := binaryGates[r.op]; !ok && r.op != "not" {
		return nil, fmt.Errorf("unknown gate %q, want one of %s", r.op, strings.Join(gateNames(), ", "))
	}

	metrics, err := metric.New(r.registry, r.engine.MetricsNamespace)
	if err != nil {
		return nil, err
	}
	poolMetrics, err := metric.NewPool(r.registry, r.engine.MetricsNamespace, "console")
	if err != nil {
		return nil, err
	}

	opts := func(name string) []core.Option {
		return core.With(r.engine.Options(name),
			core.WithName(name), core.WithLogger(r.logger), core.WithMetrics(metrics))
	}

	pool := threaded.NewPool(r.engine.Pool.Workers, r.engine.Pool.QueueSize,
		threaded.WithPoolMetrics(poolMetrics), threaded.WithPoolLogger(r.logger))
	if err := pool.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}
	defer pool.Stop(r.engine.Pool.StopTimeout) //nolint:errcheck

	printer := newConsole(r.out)
	results := lite.NewCollector[line](opts("results")...)
	printing := threaded.Wrap[line](printer,
		threaded.WithScheduler[line](pool), threaded.WithNode[line](opts("console")...))

	fan := tee.New[line](opts("tee")...)
	if err := errors.Join(fan.Attach(printing), fan.Attach(flow.InputSink[line](results))); err != nil {
		return nil, err
	}

	g := chain.NewGroup().WithLogger(r.logger)
	var (
		feeds []feed
		total int
		wired error
	)

	if r.op == "not" {
		total = len(r.a)
		seq := 0
		enumerate := lite.Map(func(_ context.Context, out bool) line {
			seq++
			return line{Seq: seq, Unary: true, A: r.a[seq-1], Out: out}
		}, opts("enumerate")...)

		gate := lite.Not(opts("not")...)
		feeds = []feed{{name: "a", in: gate, values: r.a}}
		wired = chain.Then[bool, line](chain.FromGroup[bool](g, gate), enumerate).To(fan).Err()
	} else {
		total = min(len(r.a), len(r.b))
		gate := binaryGates[r.op](opts(r.op)...)

		seq := 0
		enumerate := lite.Map(func(_ context.Context, out bool) line {
			seq++
			return line{Seq: seq, A: r.a[seq-1], B: r.b[seq-1], Out: out}
		}, opts("enumerate")...)

		feeds = []feed{
			{name: "a", in: gate.Input1(), values: r.a},
			{name: "b", in: gate.Input2(), values: r.b},
		}
		wired = chain.Then[bool, line](chain.FromGroup[bool](g, gate), enumerate).To(fan).Err()
	}
	if wired != nil {
		return nil, wired
	}
	g.Add(results)
	g.Start()

	var feedErr error
	for _, f := range feeds {
		accepted := core.FeedWithHandlers(ctx, f.in, core.FeedHandlers[bool]{
			OnBreak: func(_ context.Context, rest []bool) {
				r.logger.Warn("input refused", "input", f.name, "left", len(rest))
			},
		}, f.values...)
		if accepted < len(f.values) {
			feedErr = fmt.Errorf("input %s: %d of %d values accepted", f.name, accepted, len(f.values))
			break
		}
	}

	var values []line
	waitErr := feedErr
	if feedErr == nil {
		values, waitErr = results.WaitFor(ctx, total)
	}
	closeErr := g.Close()
	stopErr := pool.Stop(r.engine.Pool.StopTimeout)
	flushErr := printer.Flush()

	r.logger.Info("gate finished",
		"gate", r.op,
		"results", len(values),
		"expected", total,
		"console_failed", printing.Stats().Failed,
		"pool_dropped", pool.Stats().Dropped)

	return values, errors.Join(waitErr, closeErr, stopErr, flushErr)
}
