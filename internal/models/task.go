package models

import (
	"time"
)

// Status is the lifecycle state of a download task
type Status string

const (
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusMerging     Status = "merging"
	StatusDone        Status = "done"
	StatusError       Status = "error"
	StatusServed      Status = "served"
)

// IsActive reports whether a job is still working on the task
func (s Status) IsActive() bool {
	return s == StatusStarting || s == StatusDownloading || s == StatusMerging
}

// IsTerminal reports whether the task reached an end state
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError || s == StatusServed
}

// IsServable reports whether the artifact can be delivered
func (s Status) IsServable() bool {
	return s == StatusDone || s == StatusServed
}

// Task holds the full state of one download job
type Task struct {
	ID       string `json:"id"`
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`

	ResultPath     string `json:"-"`
	ResultName     string `json:"result_name,omitempty"`
	ResultSize     int64  `json:"result_size,omitempty"`
	ResultMimeType string `json:"result_mime_type,omitempty"`

	WorkDir string `json:"-"`
	Error   string `json:"error,omitempty"`

	CreatedAt      time.Time `json:"-"`
	LastActivityAt time.Time `json:"-"`

	ServeCount int `json:"-"`
	// Streams counts file deliveries currently in flight
	Streams int `json:"-"`
}

// ProgressView is the polled representation of a task
type ProgressView struct {
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// View returns the client-facing progress payload
func (t Task) View() ProgressView {
	return ProgressView{Status: t.Status, Progress: t.Progress, Message: t.Message}
}
