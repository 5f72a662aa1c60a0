package model

import (
	"time"

	"github.com/google/uuid"
)

// StageStatus is the lifecycle state of a crawl stage.
type StageStatus string

// Stage status values.
const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// Run status values stamped on a finished CrawlProgress.
const (
	RunCompleted = "completed"
	RunCancelled = "cancelled"
	RunFailed    = "failed"
)

// Well-known stage names driven by the orchestrator, in order.
const (
	StageSearchPolicies = "search_policies"
	StageCrawlDetails   = "crawl_details"
)

// CrawlStage tracks one named phase of a run.
type CrawlStage struct {
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	TotalCount     int         `json:"total_count"`
	CompletedCount int         `json:"completed_count"`
	FailedCount    int         `json:"failed_count"`
	Status         StageStatus `json:"status"`
	StartTime      *time.Time  `json:"start_time,omitempty"`
	EndTime        *time.Time  `json:"end_time,omitempty"`
	Message        string      `json:"message"`
}

// ProgressPercentage reports processed units over the stage total.
func (s *CrawlStage) ProgressPercentage() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.CompletedCount+s.FailedCount) / float64(s.TotalCount) * 100
}

// SuccessRate reports completed units over processed units.
func (s *CrawlStage) SuccessRate() float64 {
	processed := s.CompletedCount + s.FailedCount
	if processed == 0 {
		return 0
	}
	return float64(s.CompletedCount) / float64(processed) * 100
}

// FailedPolicy is the structured failure entry recorded when a record
// exhausts its retries.
type FailedPolicy struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	PubDate   string `json:"pub_date"`
	DocNumber string `json:"doc_number"`
	Reason    string `json:"reason"`
}

// CrawlProgress aggregates the stages and counters of one crawl run. It is
// owned and mutated by a single orchestrator instance; it is not safe for
// concurrent mutation.
type CrawlProgress struct {
	RunID uuid.UUID `json:"run_id"`

	TotalCount     int `json:"total_count"`
	CompletedCount int `json:"completed_count"`
	FailedCount    int `json:"failed_count"`

	CurrentPolicyID    string `json:"current_policy_id"`
	CurrentPolicyTitle string `json:"current_policy_title"`

	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	CompletedPolicies []string       `json:"completed_policies"`
	FailedPolicies    []FailedPolicy `json:"failed_policies"`

	Stages       map[string]*CrawlStage `json:"stages"`
	CurrentStage string                 `json:"current_stage"`

	// Status is the terminal run outcome; empty while the run is live.
	Status string `json:"status,omitempty"`
	// Error preserves the message of a fatal outer failure.
	Error string `json:"error,omitempty"`
}

// NewCrawlProgress returns a progress tracker with its start time stamped.
func NewCrawlProgress() *CrawlProgress {
	now := time.Now().UTC()
	return &CrawlProgress{
		RunID:     uuid.New(),
		StartTime: &now,
		Stages:    make(map[string]*CrawlStage),
	}
}

// GetCurrentStage returns the active stage, or nil if none is set.
func (p *CrawlProgress) GetCurrentStage() *CrawlStage {
	return p.Stages[p.CurrentStage]
}

// SetStage makes the named stage current, creating it if needed. A pending
// stage transitions to running and gets its start time; calling SetStage on a
// stage that is already running does not reset its start time.
func (p *CrawlProgress) SetStage(name, description string, totalCount int) {
	stage, ok := p.Stages[name]
	if !ok {
		stage = &CrawlStage{
			Name:        name,
			Description: description,
			TotalCount:  totalCount,
			Status:      StagePending,
		}
		p.Stages[name] = stage
	}
	p.CurrentStage = name
	if stage.Status == StagePending {
		now := time.Now().UTC()
		stage.Status = StageRunning
		stage.StartTime = &now
	}
	p.updateOverall()
}

// UpdateStageProgress adds completed/failed deltas to the named stage (the
// current stage when name is empty) and refreshes the overall counters.
func (p *CrawlProgress) UpdateStageProgress(name string, completed, failed int, message string) {
	if name == "" {
		name = p.CurrentStage
	}
	stage, ok := p.Stages[name]
	if !ok {
		return
	}
	// Counters never exceed a known total; clamp the incoming delta.
	if stage.TotalCount > 0 {
		room := stage.TotalCount - stage.CompletedCount - stage.FailedCount
		if completed > room {
			completed = room
		}
		room -= completed
		if failed > room {
			failed = room
		}
	}
	stage.CompletedCount += completed
	stage.FailedCount += failed
	if message != "" {
		stage.Message = message
	}
	p.updateOverall()
}

// CompleteStage is the only transition into completed/failed.
func (p *CrawlProgress) CompleteStage(name string, success bool) {
	if name == "" {
		name = p.CurrentStage
	}
	stage, ok := p.Stages[name]
	if !ok {
		return
	}
	now := time.Now().UTC()
	if success {
		stage.Status = StageCompleted
	} else {
		stage.Status = StageFailed
	}
	stage.EndTime = &now
}

// Finish stamps the end time once and records the terminal status.
func (p *CrawlProgress) Finish(status string) {
	if p.EndTime == nil {
		now := time.Now().UTC()
		p.EndTime = &now
	}
	p.Status = status
}

// SuccessRate reports overall completed over processed.
func (p *CrawlProgress) SuccessRate() float64 {
	processed := p.CompletedCount + p.FailedCount
	if processed == 0 {
		return 0
	}
	return float64(p.CompletedCount) / float64(processed) * 100
}

// ProgressPercentage reports overall processed over the estimated total.
func (p *CrawlProgress) ProgressPercentage() float64 {
	if p.TotalCount == 0 {
		return 0
	}
	return float64(p.CompletedCount+p.FailedCount) / float64(p.TotalCount) * 100
}

// ElapsedSeconds returns run duration so far, or to end time if finished.
func (p *CrawlProgress) ElapsedSeconds() float64 {
	if p.StartTime == nil {
		return 0
	}
	end := time.Now().UTC()
	if p.EndTime != nil {
		end = *p.EndTime
	}
	return end.Sub(*p.StartTime).Seconds()
}

// The overall counters mirror the crawl_details stage once it is active. The
// search stage's total counts sources, not records, and never leaks into the
// run-level total.
func (p *CrawlProgress) updateOverall() {
	stage := p.GetCurrentStage()
	if stage == nil || p.CurrentStage != StageCrawlDetails {
		return
	}
	p.CompletedCount = stage.CompletedCount
	p.FailedCount = stage.FailedCount
	if stage.TotalCount > p.TotalCount {
		p.TotalCount = stage.TotalCount
	}
}

// StageSnapshot is the reporting shape for one stage.
type StageSnapshot struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	TotalCount         int     `json:"total_count"`
	CompletedCount     int     `json:"completed_count"`
	FailedCount        int     `json:"failed_count"`
	ProgressPercentage float64 `json:"progress_percentage"`
	SuccessRate        float64 `json:"success_rate"`
	Status             string  `json:"status"`
	Message            string  `json:"message"`
	StartTime          string  `json:"start_time,omitempty"`
	EndTime            string  `json:"end_time,omitempty"`
}

// ProgressSnapshot is the summary handed to reporting collaborators.
type ProgressSnapshot struct {
	RunID              string                   `json:"run_id"`
	TotalCount         int                      `json:"total_count"`
	CompletedCount     int                      `json:"completed_count"`
	FailedCount        int                      `json:"failed_count"`
	SuccessRate        float64                  `json:"success_rate"`
	ProgressPercentage float64                  `json:"progress_percentage"`
	CurrentPolicyID    string                   `json:"current_policy_id"`
	CurrentPolicyTitle string                   `json:"current_policy_title"`
	CurrentStage       string                   `json:"current_stage"`
	StartTime          string                   `json:"start_time,omitempty"`
	EndTime            string                   `json:"end_time,omitempty"`
	ElapsedSeconds     float64                  `json:"elapsed_seconds"`
	CompletedPolicies  []string                 `json:"completed_policies"`
	FailedPolicies     []FailedPolicy           `json:"failed_policies"`
	Stages             map[string]StageSnapshot `json:"stages"`
	Status             string                   `json:"status,omitempty"`
	Error              string                   `json:"error,omitempty"`
}

// Snapshot renders the progress into its reporting shape.
func (p *CrawlProgress) Snapshot() ProgressSnapshot {
	snap := ProgressSnapshot{
		RunID:              p.RunID.String(),
		TotalCount:         p.TotalCount,
		CompletedCount:     p.CompletedCount,
		FailedCount:        p.FailedCount,
		SuccessRate:        p.SuccessRate(),
		ProgressPercentage: p.ProgressPercentage(),
		CurrentPolicyID:    p.CurrentPolicyID,
		CurrentPolicyTitle: p.CurrentPolicyTitle,
		CurrentStage:       p.CurrentStage,
		ElapsedSeconds:     p.ElapsedSeconds(),
		CompletedPolicies:  append([]string(nil), p.CompletedPolicies...),
		FailedPolicies:     append([]FailedPolicy(nil), p.FailedPolicies...),
		Stages:             make(map[string]StageSnapshot, len(p.Stages)),
		Status:             p.Status,
		Error:              p.Error,
	}
	if p.StartTime != nil {
		snap.StartTime = p.StartTime.Format(time.RFC3339)
	}
	if p.EndTime != nil {
		snap.EndTime = p.EndTime.Format(time.RFC3339)
	}
	for name, stage := range p.Stages {
		ss := StageSnapshot{
			Name:               stage.Name,
			Description:        stage.Description,
			TotalCount:         stage.TotalCount,
			CompletedCount:     stage.CompletedCount,
			FailedCount:        stage.FailedCount,
			ProgressPercentage: stage.ProgressPercentage(),
			SuccessRate:        stage.SuccessRate(),
			Status:             string(stage.Status),
			Message:            stage.Message,
		}
		if stage.StartTime != nil {
			ss.StartTime = stage.StartTime.Format(time.RFC3339)
		}
		if stage.EndTime != nil {
			ss.EndTime = stage.EndTime.Format(time.RFC3339)
		}
		snap.Stages[name] = ss
	}
	return snap
}
