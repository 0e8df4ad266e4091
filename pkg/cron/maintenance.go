package cron

import (
	"context"

	"github.com/sirupsen/logrus"
)

type AnalyticsPurger interface {
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// AnalyticsRetentionJob removes events older than retentionDays.
func AnalyticsRetentionJob(events AnalyticsPurger, retentionDays int, log *logrus.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		removed, err := events.Cleanup(ctx, retentionDays)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"removed": removed, "retention_days": retentionDays}).Info("Purged old analytics events")
		return nil
	}
}

// SessionCleanupJob removes admin session rows whose tokens have expired.
func SessionCleanupJob(sessions SessionPurger, log *logrus.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		removed, err := sessions.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		if removed > 0 {
			log.WithField("removed", removed).Info("Purged expired admin sessions")
		}
		return nil
	}
}
