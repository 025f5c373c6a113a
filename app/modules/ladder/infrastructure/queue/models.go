package ladderqueue

// ValidationSweepJob auto-validates matches whose validation window closed
// and expires pending challenges past their response deadline.
type ValidationSweepJob struct{}

// Kind returns the job type identifier for River
func (ValidationSweepJob) Kind() string { return "ladder_validation_sweep" }

// RankingRefreshJob rebuilds every ranking cache.
type RankingRefreshJob struct {
	Reason string `json:"reason,omitempty"`
}

// Kind returns the job type identifier for River
func (RankingRefreshJob) Kind() string { return "ladder_ranking_refresh" }

// CleanupJob purges stale challenges and rejects abandoned validations.
type CleanupJob struct{}

// Kind returns the job type identifier for River
func (CleanupJob) Kind() string { return "ladder_cleanup" }
