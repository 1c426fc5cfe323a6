package etl

import "time"

// RowFailure is the serialisable form of an ExtractionError.
type RowFailure struct {
	OfferID  string      `json:"offer_id"`
	Retailer string      `json:"retailer"`
	Kind     FailureKind `json:"kind"`
	Message  string      `json:"message"`
}

// RunReport summarises one pipeline run.
type RunReport struct {
	RunID            string             `json:"run_id"`
	StartedAt        time.Time          `json:"started_at"`
	Duration         time.Duration      `json:"duration_ns"`
	DryRun           bool               `json:"dry_run"`
	Pulled           int                `json:"pulled"`
	Extracted        int                `json:"extracted"`
	Dropped          int                `json:"dropped"`
	Loaded           int                `json:"loaded"`
	CleaningWarnings int                `json:"cleaning_warnings"`
	Load             *LoadReport        `json:"load,omitempty"`
	AggregateRows    int                `json:"aggregate_rows"`
	Failures         []RowFailure       `json:"failures"`
	Records          []NormalizedRecord `json:"records,omitempty"`
	LoadError        string             `json:"load_error,omitempty"`
	RefreshError     string             `json:"refresh_error,omitempty"`
}

// AddFailures records at most limit failures; Dropped still counts all of them.
// limit <= 0 records every failure.
func (r *RunReport) AddFailures(failures []*ExtractionError, limit int) {
	r.Dropped += len(failures)
	if r.Failures == nil {
		r.Failures = []RowFailure{}
	}
	for _, f := range failures {
		if limit > 0 && len(r.Failures) >= limit {
			return
		}
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		r.Failures = append(r.Failures, RowFailure{
			OfferID:  f.OfferID,
			Retailer: f.Retailer,
			Kind:     f.Kind,
			Message:  msg,
		})
	}
}

// Failed reports whether the run left the store without this batch's facts.
func (r *RunReport) Failed() bool {
	return r.LoadError != ""
}
