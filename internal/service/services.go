package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/xolan/worktime/internal/allocation"
	"github.com/xolan/worktime/internal/config"
	"github.com/xolan/worktime/internal/gateway"
	"github.com/xolan/worktime/internal/notify"
	"github.com/xolan/worktime/internal/reconcile"
	"github.com/xolan/worktime/internal/storage"
	"github.com/xolan/worktime/internal/workhours"
)

// Services holds all service instances used by the application
type Services struct {
	Hours      *HoursService
	Allocation *AllocationService
	Tasks      *TaskService
	Attendance *AttendanceService
	History    *HistoryService
	Config     *ConfigService

	ledger *storage.Ledger
}

// Options overrides the collaborators NewServices would otherwise build
// from the configuration.
type Options struct {
	// Gateway replaces the HTTP gateway client.
	Gateway reconcile.Gateway
	// Notifier replaces the log and webhook notifiers.
	Notifier notify.Notifier
	// Now replaces the wall clock.
	Now func() time.Time
}

// NewServices opens the ledger in the configured data directory and builds
// every service from cfg. Callers must Close the result.
func NewServices(configPath string, cfg config.Config, log zerolog.Logger, opts Options) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	dayStart, err := cfg.DayStart()
	if err != nil {
		return nil, err
	}
	blackout, err := cfg.Blackout()
	if err != nil {
		return nil, err
	}
	order, err := cfg.Order()
	if err != nil {
		return nil, err
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	ledgerPath, err := storage.GetLedgerPath(dataDir)
	if err != nil {
		return nil, err
	}
	runsPath, err := storage.GetRunsPath(dataDir)
	if err != nil {
		return nil, err
	}

	ledger, err := storage.OpenLedger(ledgerPath, loc)
	if err != nil {
		return nil, err
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifiers := notify.Multi{notify.NewLogNotifier(log)}
		if cfg.Notify.WebhookURL != "" {
			notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notify.WebhookURL, log))
		}
		notifier = notifiers
	}

	gw := opts.Gateway
	if gw == nil && cfg.Gateway.URL != "" {
		gw = gateway.NewClient(cfg.Gateway.URL, cfg.Gateway.Token, cfg.GatewayTimeout(), log)
	}
	var reconciler *reconcile.Reconciler
	if gw != nil {
		reconciler = reconcile.New(gw, ledger, notifier, cfg.Gateway.Comment, log)
	}

	calc := workhours.NewCalculator(blackout)
	allocationService := NewAllocationService(ledger, AllocationOptions{
		Calculator: calc,
		Allocator:  allocation.NewAllocator(dayStart, blackout),
		Order:      order,
		Reconciler: reconciler,
		Notifier:   notifier,
		RunsPath:   runsPath,
		Location:   loc,
		Now:        opts.Now,
	}, log)

	return &Services{
		Hours:      NewHoursService(ledger, calc, loc),
		Allocation: allocationService,
		Tasks:      NewTaskService(ledger, loc, opts.Now),
		Attendance: NewAttendanceService(ledger, opts.Now),
		History:    NewHistoryService(runsPath, ledgerPath),
		Config:     NewConfigService(configPath, cfg),
		ledger:     ledger,
	}, nil
}

// LedgerPath returns the path of the open ledger database.
func (s *Services) LedgerPath() string {
	return s.ledger.Path()
}

// Close releases the ledger.
func (s *Services) Close() error {
	return s.ledger.Close()
}
