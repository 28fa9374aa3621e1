package domain

import (
	"encoding/json"
	"time"
)

type JobKind string

const (
	JobKindItineraryGeneration   JobKind = "itinerary_generation"
	JobKindItineraryModification JobKind = "itinerary_modification"
	JobKindTaskGeneration        JobKind = "task_generation"
)

func (k JobKind) Valid() bool {
	switch k {
	case JobKindItineraryGeneration, JobKindItineraryModification, JobKindTaskGeneration:
		return true
	default:
		return false
	}
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

const JobCreatedMessage = "Job created"

// Job is the tracked record of one long-running generation or modification request.
type Job struct {
	ID        string          `json:"job_id"`
	TripID    string          `json:"trip_id"`
	Kind      JobKind         `json:"kind"`
	Status    JobStatus       `json:"status"`
	Progress  int             `json:"progress"`
	Message   string          `json:"message,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// JobUpdate carries the mutable fields written by a pipeline step.
type JobUpdate struct {
	Status   JobStatus
	Progress int
	Message  string
	Result   json.RawMessage
	Error    string
}

// Apply overwrites the mutable fields of job. It returns false and leaves the
// job untouched when the job is already terminal.
func (j *Job) Apply(update JobUpdate, now time.Time) bool {
	if j.Status.Terminal() {
		return false
	}

	progress := update.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	j.Status = update.Status
	j.Progress = progress
	j.Message = update.Message
	j.Result = nil
	j.Error = ""
	switch update.Status {
	case JobStatusCompleted:
		j.Result = append(json.RawMessage(nil), update.Result...)
		if len(j.Result) == 0 {
			j.Result = json.RawMessage(`{}`)
		}
	case JobStatusFailed:
		j.Error = update.Error
		if j.Error == "" {
			j.Error = "unknown error"
		}
	}
	j.UpdatedAt = now
	return true
}

// LaunchMessage is what the launcher queue carries to a worker.
type LaunchMessage struct {
	JobID       string          `json:"job_id"`
	TripID      string          `json:"trip_id"`
	Kind        JobKind         `json:"kind"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	RequestedAt time.Time       `json:"requested_at"`
}

// ModificationPayload is the launch payload of an itinerary modification job.
type ModificationPayload struct {
	Modification string `json:"modification"`
}
