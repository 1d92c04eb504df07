package services

import (
	"context"
	"photofeed/models"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// ReconcileCounters пересчитывает по таблице follows все счетчики, которые сейчас лежат в кеше.
// Расхождения появляются, если Adjust после коммита не дошел до Redis.
func ReconcileCounters(ctx context.Context) (fixed int, err error) {
	err = graphCounters.CachedUsers(ctx, func(userID models.UserID) error {
		cachedFollowers, cachedFollowing, ok, err := graphCounters.Get(ctx, userID)
		if err != nil {
			return err
		}
		followers, following, err := countEdges(ctx, userID)
		if err != nil {
			return err
		}
		if ok && cachedFollowers == followers && cachedFollowing == following {
			// сверено: прогретый ключ получает полный ttl
			return graphCounters.Set(ctx, userID, followers, following)
		}
		fixed++
		log.WithFields(log.Fields{
			"user_id":          userID,
			"cached_followers": cachedFollowers,
			"followers":        followers,
			"cached_following": cachedFollowing,
			"following":        following,
		}).Info("graph counters reconciled")
		return graphCounters.Set(ctx, userID, followers, following)
	})
	return fixed, err
}

// StartCounterReconciler запускает сверку по cron-расписанию (например "@every 10m").
// Без Redis сверять нечего, планировщик не создается.
func StartCounterReconciler(schedule string) (*cron.Cron, error) {
	if !graphCounters.enabled() {
		return nil, nil
	}
	scheduler := cron.New()
	_, err := scheduler.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		started := time.Now()
		fixed, err := ReconcileCounters(ctx)
		if err != nil {
			log.WithError(err).Error("graph counters reconciliation failed")
			return
		}
		log.WithFields(log.Fields{"fixed": fixed, "took": time.Since(started)}).Debug("graph counters reconciliation done")
	})
	if err != nil {
		return nil, err
	}
	scheduler.Start()
	log.WithField("schedule", schedule).Info("graph counters reconciler started")
	return scheduler, nil
}
