package models

import "time"

// Endpoint is one named Ergast resource mirrored to <data_dir>/<name>.json
type Endpoint struct {
	Name  string `json:"name" yaml:"name" validate:"required,excludesall=/\\"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	URL   string `json:"url" yaml:"url" validate:"required,url"`
}

// FileName returns the snapshot file name for the endpoint
func (e Endpoint) FileName() string {
	return e.Name + ".json"
}

type FetchResult struct {
	Name    string
	URL     string
	Path    string
	Success bool
	Bytes   int
	Err     error
}

type SyncResult struct {
	Branch    string
	Changed   bool
	Committed bool
	Pulled    bool
	Pushed    bool
	Message   string
}

// JobRun records one fetch-all-then-sync cycle. It is never persisted.
type JobRun struct {
	ID           string
	StartedAt    time.Time
	Duration     time.Duration
	Results      []FetchResult
	SuccessCount int
	Sync         *SyncResult
	SyncErr      error
}

// Failed returns the number of endpoints that were skipped this cycle
func (r *JobRun) Failed() int {
	return len(r.Results) - r.SuccessCount
}

// Record appends a fetch result and keeps the success count in step
func (r *JobRun) Record(result FetchResult) {
	r.Results = append(r.Results, result)
	if result.Success {
		r.SuccessCount++
	}
}
