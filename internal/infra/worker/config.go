package worker

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MJ-API-Development/NewsAPI/internal/pkg/config"
	"github.com/MJ-API-Development/NewsAPI/internal/schedule"
)

// Delivery modes. DeliveryDB writes batches straight into the news tables;
// DeliveryCronPost forwards each article to the external cron endpoint.
const (
	DeliveryDB       = "db"
	DeliveryCronPost = "cron-post"
)

// WorkerConfig holds the runtime settings of the ingestion worker: which
// scheduling mode drives the slot table, where flushed articles go, and
// the knobs of the scrape loop. All fields have defaults and the loader is
// fail-open, so the worker always starts with a valid configuration.
type WorkerConfig struct {
	// ScheduleMode is schedule.ModeInterval or schedule.ModeAdmission.
	ScheduleMode string

	// DeliveryMode is DeliveryDB or DeliveryCronPost.
	DeliveryMode string

	// SlotSpecs are the daily run slots as "HH:MM=TASK" entries.
	SlotSpecs []string

	// InterSlotDelay is the pause after each slot run in interval mode.
	InterSlotDelay time.Duration

	// TickerRefreshCadence is how often the ticker directory reloads.
	TickerRefreshCadence time.Duration

	// RolloverCronSpec is the cron expression regenerating the slot
	// table each day.
	RolloverCronSpec string

	// TickerWindow is the number of tickers one slot run covers.
	TickerWindow int

	// Timezone is the IANA zone anchoring slot clocks and day rollover.
	Timezone string

	// ScrapeTimeout bounds a single slot run end to end.
	ScrapeTimeout time.Duration

	// HealthPort is the port of the health check HTTP server.
	HealthPort int
}

// DefaultConfig returns the production defaults: interval mode walking the
// built-in slot table with a two-hour gap, direct database delivery, and a
// three-hour ticker refresh.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		ScheduleMode:         schedule.ModeInterval,
		DeliveryMode:         DeliveryDB,
		SlotSpecs:            schedule.DefaultSlotSpecs(),
		InterSlotDelay:       2 * time.Hour,
		TickerRefreshCadence: 3 * time.Hour,
		RolloverCronSpec:     schedule.DefaultRolloverSpec,
		TickerWindow:         10,
		Timezone:             "UTC",
		ScrapeTimeout:        30 * time.Minute,
		HealthPort:           9091,
	}
}

// Validate checks every field and returns the collected errors, if any.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateStringChoice(schedule.ModeInterval, schedule.ModeAdmission)(c.ScheduleMode); err != nil {
		errs = append(errs, fmt.Errorf("schedule mode: %w", err))
	}
	if err := config.ValidateStringChoice(DeliveryDB, DeliveryCronPost)(c.DeliveryMode); err != nil {
		errs = append(errs, fmt.Errorf("delivery mode: %w", err))
	}
	if err := validateSlotSpecs(strings.Join(c.SlotSpecs, ",")); err != nil {
		errs = append(errs, fmt.Errorf("slot specs: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.InterSlotDelay); err != nil {
		errs = append(errs, fmt.Errorf("inter-slot delay: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.TickerRefreshCadence); err != nil {
		errs = append(errs, fmt.Errorf("ticker refresh cadence: %w", err))
	}
	if err := config.ValidateCronSchedule(c.RolloverCronSpec); err != nil {
		errs = append(errs, fmt.Errorf("rollover cron spec: %w", err))
	}
	if err := config.ValidateIntRange(c.TickerWindow, 1, 100); err != nil {
		errs = append(errs, fmt.Errorf("ticker window: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.ScrapeTimeout); err != nil {
		errs = append(errs, fmt.Errorf("scrape timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// validateSlotSpecs checks a comma-separated "HH:MM=TASK" list by parsing
// every entry the way the schedule table will.
func validateSlotSpecs(specs string) error {
	entries := splitSlotSpecs(specs)
	if len(entries) == 0 {
		return fmt.Errorf("slot list cannot be empty")
	}
	for _, entry := range entries {
		if _, err := schedule.ParseSpec(entry); err != nil {
			return err
		}
	}
	return nil
}

func splitSlotSpecs(specs string) []string {
	var entries []string
	for _, entry := range strings.Split(specs, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

// LoadConfigFromEnv loads the worker configuration from the environment.
// The strategy is fail-open: every invalid value falls back to its default
// with a warning log and a fallback metric, and the returned configuration
// is always valid. The error return is always nil and exists only so call
// sites read naturally.
//
// Environment variables:
//   - SCHEDULE_MODE: "interval" or "admission"
//   - DELIVERY_MODE: "db" or "cron-post"
//   - SCHEDULE_SLOTS: comma-separated "HH:MM=TASK" entries
//   - INTER_SLOT_DELAY: Go duration, e.g. "2h"
//   - TICKER_REFRESH_CADENCE: Go duration, e.g. "3h"
//   - SCHEDULE_ROLLOVER_CRON: five-field cron expression, e.g. "0 0 * * *"
//   - TICKER_WINDOW: integer 1-100
//   - WORKER_TIMEZONE: IANA timezone name
//   - SCRAPE_TIMEOUT: Go duration, e.g. "30m"
//   - WORKER_HEALTH_PORT: integer 1024-65535
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field, envKey string, result config.ConfigLoadResult, set func(interface{})) {
		set(result.Value)
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("env_key", envKey),
				slog.String("warning", warning))
		}
	}

	apply("schedule_mode", "SCHEDULE_MODE",
		config.LoadEnvWithFallback("SCHEDULE_MODE", cfg.ScheduleMode,
			config.ValidateStringChoice(schedule.ModeInterval, schedule.ModeAdmission)),
		func(v interface{}) { cfg.ScheduleMode = strings.ToLower(v.(string)) })

	apply("delivery_mode", "DELIVERY_MODE",
		config.LoadEnvWithFallback("DELIVERY_MODE", cfg.DeliveryMode,
			config.ValidateStringChoice(DeliveryDB, DeliveryCronPost)),
		func(v interface{}) { cfg.DeliveryMode = strings.ToLower(v.(string)) })

	apply("schedule_slots", "SCHEDULE_SLOTS",
		config.LoadEnvWithFallback("SCHEDULE_SLOTS", strings.Join(cfg.SlotSpecs, ","), validateSlotSpecs),
		func(v interface{}) { cfg.SlotSpecs = splitSlotSpecs(v.(string)) })

	apply("inter_slot_delay", "INTER_SLOT_DELAY",
		config.LoadEnvDuration("INTER_SLOT_DELAY", cfg.InterSlotDelay, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 12*time.Hour)
		}),
		func(v interface{}) { cfg.InterSlotDelay = v.(time.Duration) })

	apply("ticker_refresh_cadence", "TICKER_REFRESH_CADENCE",
		config.LoadEnvDuration("TICKER_REFRESH_CADENCE", cfg.TickerRefreshCadence, func(d time.Duration) error {
			return config.ValidateDuration(d, 10*time.Minute, 24*time.Hour)
		}),
		func(v interface{}) { cfg.TickerRefreshCadence = v.(time.Duration) })

	apply("rollover_cron_spec", "SCHEDULE_ROLLOVER_CRON",
		config.LoadEnvWithFallback("SCHEDULE_ROLLOVER_CRON", cfg.RolloverCronSpec, config.ValidateCronSchedule),
		func(v interface{}) { cfg.RolloverCronSpec = v.(string) })

	apply("ticker_window", "TICKER_WINDOW",
		config.LoadEnvInt("TICKER_WINDOW", cfg.TickerWindow, func(v int) error {
			return config.ValidateIntRange(v, 1, 100)
		}),
		func(v interface{}) { cfg.TickerWindow = v.(int) })

	apply("timezone", "WORKER_TIMEZONE",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone),
		func(v interface{}) { cfg.Timezone = v.(string) })

	apply("scrape_timeout", "SCRAPE_TIMEOUT",
		config.LoadEnvDuration("SCRAPE_TIMEOUT", cfg.ScrapeTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 4*time.Hour)
		}),
		func(v interface{}) { cfg.ScrapeTimeout = v.(time.Duration) })

	apply("health_port", "WORKER_HEALTH_PORT",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}),
		func(v interface{}) { cfg.HealthPort = v.(int) })

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
