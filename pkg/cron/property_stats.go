package cron

import (
	"context"
	"errors"

	"realty_backend/pkg/email"
)

// DigestCollector gathers the figures for the periodic stats email.
type DigestCollector func(ctx context.Context, period string, days int) (email.StatsDigestData, error)

// StatsDigestJob emails listing and inquiry totals for the last days.
func StatsDigestJob(collect DigestCollector, notifier *email.Notifier, period string, days int) func(context.Context) error {
	return func(ctx context.Context) error {
		if notifier == nil {
			return errors.New("email notifications are not configured")
		}
		data, err := collect(ctx, period, days)
		if err != nil {
			return err
		}
		return notifier.SendStatsDigest(ctx, data)
	}
}
