package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/syssam/relmap/dialect"
)

// Stats counts the statements run through a StatsDriver.
type Stats struct {
	Queries  int64
	Execs    int64
	Errors   int64
	Slow     int64
	Duration time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("queries=%d execs=%d errors=%d slow=%d duration=%s",
		s.Queries, s.Execs, s.Errors, s.Slow, s.Duration)
}

// SlowQueryHook is called for every statement slower than the threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, took time.Duration)

// StatsDriver wraps a dialect.Driver and records the statements it runs,
// including those run inside its transactions.
type StatsDriver struct {
	dialect.Driver
	threshold time.Duration
	onSlow    SlowQueryHook

	mu    sync.Mutex
	stats Stats
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a statement is slow.
// The default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithSlowQueryHook sets the function called for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.onSlow = hook
	}
}

// WithSlowQueryLog reports slow statements as warnings to logger, or to
// the default logger if it is nil.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, took time.Duration) {
		logger.WarnContext(ctx, "slow statement", "took", took, "sql", query, "args", args)
	})
}

// NewStatsDriver wraps drv with statement statistics.
//
//	drv, _ := sql.Open("postgres", dsn)
//	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryLog(nil))
//	...
//	fmt.Println(stats.Stats())
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, threshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns the statistics recorded so far.
func (d *StatsDriver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Reset clears the recorded statistics.
func (d *StatsDriver) Reset() {
	d.mu.Lock()
	d.stats = Stats{}
	d.mu.Unlock()
}

// Query implements dialect.ExecQuerier.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, query, args, true, func() error {
		return d.Driver.Query(ctx, query, args, v)
	})
}

// Exec implements dialect.ExecQuerier.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, query, args, false, func() error {
		return d.Driver.Exec(ctx, query, args, v)
	})
}

// Tx starts a transaction whose statements are recorded too.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &statsTx{Tx: tx, driver: d}, nil
}

func (d *StatsDriver) observe(ctx context.Context, query string, args any, isQuery bool, run func() error) error {
	start := time.Now()
	err := run()
	took := time.Since(start)
	slow := took > d.threshold

	d.mu.Lock()
	if isQuery {
		d.stats.Queries++
	} else {
		d.stats.Execs++
	}
	if err != nil {
		d.stats.Errors++
	}
	if slow {
		d.stats.Slow++
	}
	d.stats.Duration += took
	d.mu.Unlock()

	if slow && d.onSlow != nil {
		argv, _ := args.([]any)
		d.onSlow(ctx, query, argv, took)
	}
	return err
}

type statsTx struct {
	dialect.Tx
	driver *StatsDriver
}

func (tx *statsTx) Query(ctx context.Context, query string, args, v any) error {
	return tx.driver.observe(ctx, query, args, true, func() error {
		return tx.Tx.Query(ctx, query, args, v)
	})
}

func (tx *statsTx) Exec(ctx context.Context, query string, args, v any) error {
	return tx.driver.observe(ctx, query, args, false, func() error {
		return tx.Tx.Exec(ctx, query, args, v)
	})
}

// DebugDriver logs every statement at debug level before running it.
type DebugDriver struct {
	dialect.Driver
	log *slog.Logger
}

// NewDebugDriver wraps drv with statement logging. A nil logger means
// slog.Default().
func NewDebugDriver(drv dialect.Driver, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Driver: drv, log: logger}
}

// Query implements dialect.ExecQuerier.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log.DebugContext(ctx, "query", "sql", query, "args", args)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec implements dialect.ExecQuerier.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log.DebugContext(ctx, "exec", "sql", query, "args", args)
	return d.Driver.Exec(ctx, query, args, v)
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*statsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
)
