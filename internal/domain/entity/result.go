package entity

import (
	"fmt"
	"time"
)

// BrokerState tracks the per-broker state machine the orchestrator walks:
// Loaded -> Deterministic|AIFallback -> Submitted -> Confirmed|Unconfirmed -> Done,
// with Failed reachable from any state.
type BrokerState string

const (
	StateLoaded        BrokerState = "loaded"
	StateDeterministic BrokerState = "deterministic"
	StateAIFallback    BrokerState = "ai_fallback"
	StateSubmitted     BrokerState = "submitted"
	StateConfirmed     BrokerState = "confirmed"
	StateUnconfirmed   BrokerState = "unconfirmed"
	StateDone          BrokerState = "done"
	StateFailed        BrokerState = "failed"
)

// SubmissionResult is the classified outcome of one HTTP (or browser)
// submission. SubmittedAt is the lower bound for the confirmation search.
type SubmissionResult struct {
	Success     bool
	StatusCode  int
	Body        string
	JSON        map[string]any
	SubmittedAt time.Time
}

type ConfirmationResult struct {
	Confirmed bool
	Subject   string
	Elapsed   time.Duration
}

// FillReport aggregates per-field fill outcomes so a batch fill can report
// partial success instead of failing outright.
type FillReport struct {
	Filled int
	Failed int
	Errors []string
}

func (r *FillReport) Record(fieldID string, ok bool) {
	if ok {
		r.Filled++
		return
	}
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("failed to fill %s", fieldID))
}

// ProcessingResult is one broker's final outcome within a batch.
type ProcessingResult struct {
	BrokerName string
	State      BrokerState
	Success    bool
	Confirmed  bool
	Message    string
	Err        error
}

// BatchSummary aggregates a full run.
type BatchSummary struct {
	Results         []ProcessingResult
	Recommendations []string
}

func (s *BatchSummary) Processed() int { return len(s.Results) }

func (s *BatchSummary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.Success {
			n++
		}
	}
	return n
}

func (s *BatchSummary) FailedCount() int { return s.Processed() - s.Succeeded() }

func (s *BatchSummary) SuccessRate() float64 {
	if len(s.Results) == 0 {
		return 0
	}
	return float64(s.Succeeded()) / float64(len(s.Results))
}
