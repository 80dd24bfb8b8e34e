package notify

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// RunDigestLoop posts a daily digest on the given cron schedule until ctx is
// cancelled. A schedule that fails to parse disables the loop with a logged
// warning rather than crashing serve.
func RunDigestLoop(ctx context.Context, db *gorm.DB, notifier *Notifier, schedule string) {
	if _, err := cronParser.Parse(schedule); err != nil {
		log.Printf("notify: digest schedule %q invalid, digests disabled: %v", schedule, err)
		return
	}

	for {
		wait := nextCronDuration(schedule)
		if wait <= 0 {
			wait = time.Minute
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		report, err := BuildDailyDigest(db, time.Now())
		if err != nil {
			log.Printf("notify: daily digest: %v", err)
			continue
		}
		if report == nil {
			continue
		}

		msg := FormatDaily(report)
		msg.ChannelID = notifier.channel
		if err := notifier.adapter.Send(ctx, msg); err != nil {
			log.Printf("notify: send daily digest: %v", err)
		}
	}
}
