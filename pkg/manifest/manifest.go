package manifest

// RunManifest indexes every run a long-lived server has finished, so the
// output directory can be browsed without opening each transcript.
type RunManifest struct {
	GeneratedAt string       `json:"generated_at"`
	TotalRuns   int          `json:"total_runs"`
	Completed   int          `json:"completed"`
	Failed      int          `json:"failed"`
	Stopped     int          `json:"stopped"`
	Runs        []RunSummary `json:"runs"`
}

// RunSummary describes a single run.
type RunSummary struct {
	RunID           string `json:"run_id"`
	FinishedAt      string `json:"finished_at"`
	Status          string `json:"status"` // "complete", "error" or "stopped"
	ErrorMessage    string `json:"error_message,omitempty"`
	FilePath        string `json:"file_path,omitempty"`
	SizeBytes       int64  `json:"size_bytes,omitempty"`
	Entries         int    `json:"entries,omitempty"`
	WordCount       int    `json:"word_count,omitempty"`
	EstimatedTokens int    `json:"estimated_tokens,omitempty"`
	Iterations      int    `json:"iterations"`
}
