package database

import "time"

// RunInfo describes a run when it starts.
type RunInfo struct {
	DryRun      bool
	Concurrency int
	TotalAssets int
}

// RunTotals is written when a run ends.
type RunTotals struct {
	Completed   int
	InputBytes  int64
	OutputBytes int64
	// Error is the run-fatal error, if any.
	Error string
}

// Run is a stored run.
type Run struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	DryRun      bool       `json:"dryRun"`
	Concurrency int        `json:"concurrency"`
	TotalAssets int        `json:"totalAssets"`
	Completed   int        `json:"completedAssets"`
	InputBytes  int64      `json:"inputBytes"`
	OutputBytes int64      `json:"outputBytes"`
	Error       string     `json:"error,omitempty"`
}

// ResultRecord is the stored form of one asset result.
type ResultRecord struct {
	AssetID     string
	FileName    string
	Kind        string
	Status      string
	SkipReason  string
	InputFormat string
	InputBytes  int64
	OutputBytes int64
	SavingsPct  float64
	Attempts    int
	NewAssetID  string
	Error       string
	Duration    time.Duration
}

// Orphan is a partial success whose original was never deleted: the
// converted asset exists alongside the original.
type Orphan struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"runId"`
	AssetID    string    `json:"assetId"`
	NewAssetID string    `json:"newAssetId"`
	FileName   string    `json:"fileName"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
