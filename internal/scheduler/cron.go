package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultTickSpec — расписание тиков по умолчанию.
const DefaultTickSpec = "@every 5s"

// tickTimeout ограничивает один тик.
const tickTimeout = 30 * time.Second

// cronParser — парсер расписаний тиков (с секундами и дескрипторами).
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateTickSpec проверяет расписание тиков.
func ValidateTickSpec(spec string) error {
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid tick spec %q: %w", spec, err)
	}
	return nil
}

// Runner вызывает Tick по расписанию, если экземпляр — лидер.
type Runner struct {
	sched  *Scheduler
	leader Locker
	cron   *cron.Cron
	spec   string
	logger *slog.Logger
}

// RunnerConfig — конфигурация Runner.
type RunnerConfig struct {
	Scheduler *Scheduler
	Leader    Locker
	Spec      string // default: "@every 5s"
	Logger    *slog.Logger
}

// NewRunner создаёт Runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	spec := cfg.Spec
	if spec == "" {
		spec = DefaultTickSpec
	}
	if err := ValidateTickSpec(spec); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cronLogger := cronLog{logger: logger}
	return &Runner{
		sched:  cfg.Scheduler,
		leader: cfg.Leader,
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		spec:   spec,
		logger: logger,
	}, nil
}

// Start запускает расписание. Тики прекращаются при отмене ctx или Stop.
func (r *Runner) Start(ctx context.Context) error {
	if _, err := r.cron.AddFunc(r.spec, func() { r.runOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}

	r.cron.Start()
	r.logger.Info("scheduler started", "spec", r.spec)
	return nil
}

// Stop дожидается текущего тика и отдаёт лидерство.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.leader.Release(ctx)

	r.logger.Info("scheduler stopped")
}

// runOnce выполняет один тик, если экземпляр — лидер.
func (r *Runner) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	leader, err := r.leader.TryAcquire(ctx)
	if err != nil {
		r.logger.Error("leader election failed", "error", err)
		return
	}
	if !leader {
		// не лидер — пропускаем тик
		return
	}

	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	if err := r.sched.Tick(ctx); err != nil {
		r.logger.Error("scheduler tick failed", "error", err)
	}
}

// cronLog направляет логи cron в slog.
type cronLog struct {
	logger *slog.Logger
}

func (l cronLog) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLog) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
