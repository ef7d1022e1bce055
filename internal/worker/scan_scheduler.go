package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/lakespend/lakespend/internal/compliance"
	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/store"
)

// ScanScheduler runs compliance scans on a cron schedule and records each
// outcome in the history store.
type ScanScheduler struct {
	compliance *compliance.Service
	store      *store.Store
	schedule   string
	cron       *cron.Cron
	logger     *logger.Logger
}

// NewScanScheduler creates a scan scheduler
func NewScanScheduler(svc *compliance.Service, st *store.Store, schedule string, log *logger.Logger) *ScanScheduler {
	return &ScanScheduler{
		compliance: svc,
		store:      st,
		schedule:   schedule,
		cron:       cron.New(),
		logger:     log,
	}
}

// Start registers the schedule and begins running scans. The first scan
// runs immediately; the cron fires after that.
func (s *ScanScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"schedule": s.schedule,
	}).Info("scan scheduler started")

	go s.RunOnce(ctx)
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running scan to finish
func (s *ScanScheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scan scheduler stopped")
}

// RunOnce performs a single compliance scan with the policy's required
// tags and persists the result
func (s *ScanScheduler) RunOnce(ctx context.Context) {
	started := time.Now().UTC()

	report, err := s.compliance.Report(ctx, nil)
	if err != nil {
		s.logger.ErrorWithErr(err, "scheduled compliance scan failed")
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		s.logger.ErrorWithErr(err, "failed to encode scan report")
		return
	}

	rec := &store.ScanRecord{
		ID:                 uuid.New().String(),
		StartedAt:          started,
		FinishedAt:         time.Now().UTC(),
		TotalResources:     report.Summary.TotalResources,
		CompliantResources: report.Summary.CompliantResources,
		ComplianceRate:     report.Summary.ComplianceRate,
		Report:             payload,
	}
	if err := s.store.SaveScan(ctx, rec); err != nil {
		s.logger.ErrorWithErr(err, "failed to persist scan")
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"scan_id":   rec.ID,
		"total":     rec.TotalResources,
		"compliant": rec.CompliantResources,
	}).Info("scheduled compliance scan recorded")
}
