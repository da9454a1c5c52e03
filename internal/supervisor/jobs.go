package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/models"
)

// PairTableRefresher recomputes the co-purchase frequency table
type PairTableRefresher interface {
	Refresh(ctx context.Context) (models.FrequencyTable, error)
}

// CashbackChecker produces the current cashback reminder list
type CashbackChecker interface {
	ScanUnusedCashback(ctx context.Context) ([]models.CashbackReminder, error)
}

// PairRefreshService keeps the shared frequency table warm on a fixed interval
type PairRefreshService struct {
	refresher PairTableRefresher
	interval  time.Duration
	timeout   time.Duration
	onStart   bool
	log       *logger.Logger
}

// NewPairRefreshService creates the refresher job. A non-positive interval
// defaults to 15 minutes.
func NewPairRefreshService(refresher PairTableRefresher, interval time.Duration, refreshOnStart bool, log *logger.Logger) *PairRefreshService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &PairRefreshService{
		refresher: refresher,
		interval:  interval,
		timeout:   5 * time.Minute,
		onStart:   refreshOnStart,
		log:       log.With("service", "pair-refresh"),
	}
}

// Serve implements suture.Service
func (s *PairRefreshService) Serve(ctx context.Context) error {
	s.log.Info("pair refresh service starting", "interval", s.interval)

	if s.onStart {
		s.refresh(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("pair refresh service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *PairRefreshService) refresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	table, err := s.refresher.Refresh(refreshCtx)
	if err != nil {
		s.log.Warn("scheduled pair refresh failed", "error", err)
		return
	}
	s.log.Debug("scheduled pair refresh complete",
		"pairs", len(table.Pairs),
		"duration", time.Since(start))
}

func (s *PairRefreshService) String() string { return "pair-refresh-service" }

// CashbackReport is the result of the latest cashback scan
type CashbackReport struct {
	Reminders []models.CashbackReminder `json:"reminders"`
	ScannedAt time.Time                 `json:"scanned_at"`
}

// CashbackScanService runs the unused cashback scan on a fixed interval and
// keeps the latest report for the API
type CashbackScanService struct {
	checker  CashbackChecker
	interval time.Duration
	log      *logger.Logger
	now      func() time.Time

	mu     sync.RWMutex
	report *CashbackReport
}

// NewCashbackScanService creates the scan job. A non-positive interval
// defaults to one hour.
func NewCashbackScanService(checker CashbackChecker, interval time.Duration, log *logger.Logger) *CashbackScanService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CashbackScanService{
		checker:  checker,
		interval: interval,
		log:      log.With("service", "cashback-scan"),
		now:      time.Now,
	}
}

// Serve implements suture.Service. The first scan runs immediately.
func (s *CashbackScanService) Serve(ctx context.Context) error {
	s.log.Info("cashback scan service starting", "interval", s.interval)
	_, _ = s.Scan(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("cashback scan service shutting down")
			return ctx.Err()
		case <-ticker.C:
			_, _ = s.Scan(ctx)
		}
	}
}

// Scan runs the scan now and stores the report. A failed scan keeps the
// previous report and returns the error.
func (s *CashbackScanService) Scan(ctx context.Context) (CashbackReport, error) {
	reminders, err := s.checker.ScanUnusedCashback(ctx)
	if err != nil {
		s.log.Warn("cashback scan failed, keeping previous report", "error", err)
		return CashbackReport{}, err
	}
	report := CashbackReport{Reminders: reminders, ScannedAt: s.now().UTC()}

	s.mu.Lock()
	s.report = &report
	s.mu.Unlock()

	s.log.Info("cashback scan complete", "reminders", len(reminders))
	return report, nil
}

// Latest returns the most recent report, or false if no scan has run yet
func (s *CashbackScanService) Latest() (CashbackReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return CashbackReport{}, false
	}
	return *s.report, true
}

func (s *CashbackScanService) String() string { return "cashback-scan-service" }
