package metrics

import (
	"time"

	"tech-newsletter/internal/domain/entity"
)

// RecordRun records a finished pipeline run.
// Outcome is "success" when the newsletter was dispatched, "failure" otherwise.
func RecordRun(result entity.RunResult) {
	outcome := "failure"
	if result.Success {
		outcome = "success"
		LastSuccessfulDispatch.Set(float64(result.StartedAt.Add(result.Duration).Unix()))
	}
	PipelineRunsTotal.WithLabelValues(
		string(result.StageReached),
		outcome,
		string(result.Kind),
	).Inc()
	PipelineRunDuration.Observe(result.Duration.Seconds())
}

// RecordStage records the duration of one stage. Status is "success" or "failure".
func RecordStage(stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	StageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// RecordCollection records how many feed entries were fetched and how many items were selected.
func RecordCollection(fetched, selected int) {
	FeedEntriesFetchedTotal.Add(float64(fetched))
	ItemsSelected.Set(float64(selected))
}

// RecordDispatchAttempt records one email transport attempt.
func RecordDispatchAttempt(err error) {
	if err != nil {
		DispatchAttemptsTotal.WithLabelValues("failure").Inc()
		return
	}
	DispatchAttemptsTotal.WithLabelValues("success").Inc()
}

// RecordContentFetchSuccess records a successful content fetch operation.
//
// Example:
//
//	start := time.Now()
//	content, err := fetcher.FetchContent(ctx, url)
//	if err == nil {
//	    RecordContentFetchSuccess(time.Since(start))
//	}
func RecordContentFetchSuccess(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchFailed records a failed content fetch operation.
func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchSkipped records a skipped content fetch operation.
// This occurs when the feed summary is long enough and fetching is unnecessary.
func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// RecordCircuitState sets the state gauge for the named circuit.
func RecordCircuitState(circuit string, state int) {
	CircuitBreakerState.WithLabelValues(circuit).Set(float64(state))
}
