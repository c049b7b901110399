package work

import (
	"errors"
	"time"

	"github.com/panic-app/panic-server/colors"
	"github.com/panic-app/panic-server/server/models"
	"gorm.io/gorm"
)

// Jobs stuck in-progress for this long are assumed orphaned, e.g. the
// process died mid-run, and get requeued.
const stuckJobAgeMinutes = 30

type stuckJobsReaper struct {
	stopChan chan struct{}
}

func newStuckJobsReaper() *stuckJobsReaper {
	return &stuckJobsReaper{stopChan: make(chan struct{})}
}

func (r *stuckJobsReaper) start() {
	go r.loop()
}

func (r *stuckJobsReaper) stop() {
	r.stopChan <- struct{}{}
}

func (r *stuckJobsReaper) loop() {
	var stuckJob *models.Job
	var err error

	sleepBackOff := 30
	rateLimiter := time.NewTicker(DefaultTickerDuration)
	defer rateLimiter.Stop()

	logg.Infof("Starting job reaper")
	for {
		select {
		case <-r.stopChan:
			logg.Infof("Stopping job reaper")
			return
		case <-rateLimiter.C:
			stuckJob, err = models.LastJobLastUpdated(stuckJobAgeMinutes, models.IN_PROGRESS_JOB)

			if errors.Is(err, gorm.ErrRecordNotFound) {
				rateLimiter.Reset(time.Duration(sleepBackOff) * time.Minute)
				continue
			}

			if err != nil {
				r.logError(err)
				rateLimiter.Reset(TickerDurationOnError)
				continue
			}

			r.requeue(stuckJob)
			rateLimiter.Reset(DefaultTickerDuration)
		}
	}
}

func (r *stuckJobsReaper) requeue(job *models.Job) {
	jobStatus, err := models.FindJobStatus(models.ENQUEUED_JOB)
	if err != nil {
		r.logError(err)
		return
	}

	err = job.Update(map[string]interface{}{
		"claimed":       false,
		"job_status_id": jobStatus.ID,
	})
	if err != nil {
		r.logError(err)
		return
	}

	r.logInfof("requeued stuck job with id=%v", job.ID)
}

func (r *stuckJobsReaper) logInfof(template string, args ...interface{}) {
	logg.Infof(colors.Yellow("[reaper] ")+template, args...)
}

func (r *stuckJobsReaper) logError(args ...interface{}) {
	logg.Error(append([]interface{}{colors.Red("[reaper] ")}, args...)...)
}
