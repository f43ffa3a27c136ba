package userboard

import (
	"context"
	"io"
	"time"
)

// DataSource is the capability the store reads from and writes through. The
// remote gateway and the in-memory fallback both implement it.
type DataSource interface {
	ListUsers(ctx context.Context) ([]User, error)
	AgeGroupStats(ctx context.Context) (AgeGroupStats, error)
	CreateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, name string) error
	UploadCSV(ctx context.Context, upload CSVUpload) (UploadResult, error)
}

// FallbackSource is a DataSource that can be restored to its fixed dataset.
type FallbackSource interface {
	DataSource
	Reset()
}

// RefreshHook notifies transports (WebSocket/SSE/activity sinks) about store changes.
type RefreshHook interface {
	StateChanged(ctx context.Context, event StoreEvent) error
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function into a Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	if f == nil {
		return false
	}
	return f(ctx, prompt)
}

// User is a record of the remote users resource. Name is the identity.
type User struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// AgeGroupStats maps a single-letter group code to the group's average age.
type AgeGroupStats map[string]float64

// Clone returns an independent copy of the stats map.
func (s AgeGroupStats) Clone() AgeGroupStats {
	if s == nil {
		return AgeGroupStats{}
	}
	out := make(AgeGroupStats, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// CSVUpload carries a selected CSV file.
type CSVUpload struct {
	Filename string
	Content  io.Reader
}

// UploadResult reports how many records an upload added.
type UploadResult struct {
	AddedCount int  `json:"added_count"`
	Simulated  bool `json:"simulated,omitempty"`
}

// SortKey names the column used for sorting. The zero value means unsorted.
type SortKey string

const (
	SortNone SortKey = ""
	SortName SortKey = "name"
	SortAge  SortKey = "age"
)

// ParseSortKey validates a column name.
func ParseSortKey(value string) (SortKey, bool) {
	switch SortKey(value) {
	case SortName, SortAge:
		return SortKey(value), true
	default:
		return SortNone, false
	}
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ViewControls captures the UI controls that drive the query pipeline.
type ViewControls struct {
	SearchTerm    string        `json:"search_term"`
	AgeMin        *int          `json:"age_min,omitempty"`
	AgeMax        *int          `json:"age_max,omitempty"`
	SortKey       SortKey       `json:"sort_key,omitempty"`
	SortDirection SortDirection `json:"sort_direction"`
	StatsExpanded bool          `json:"stats_expanded"`
}

// DefaultViewControls returns the controls used at startup.
func DefaultViewControls() ViewControls {
	return ViewControls{SortDirection: SortAsc}
}

func (c ViewControls) clone() ViewControls {
	out := c
	if c.AgeMin != nil {
		v := *c.AgeMin
		out.AgeMin = &v
	}
	if c.AgeMax != nil {
		v := *c.AgeMax
		out.AgeMax = &v
	}
	return out
}

// CreateForm is the create-user draft as typed by the user.
type CreateForm struct {
	Name string `json:"name"`
	Age  string `json:"age"`
}

// UploadStatus tracks the upload lifecycle.
type UploadStatus string

const (
	UploadIdle       UploadStatus = "idle"
	UploadProcessing UploadStatus = "processing"
	UploadSucceeded  UploadStatus = "success"
	UploadSimulated  UploadStatus = "simulated"
	UploadFailed     UploadStatus = "failed"
)

// UploadState is the upload status plus its detail.
type UploadState struct {
	Status UploadStatus `json:"status"`
	Added  int          `json:"added"`
	Reason string       `json:"reason,omitempty"`
}

// NoticeKind classifies user-visible alerts.
type NoticeKind string

const (
	NoticeInfo       NoticeKind = "info"
	NoticeConflict   NoticeKind = "conflict"
	NoticeValidation NoticeKind = "validation"
	NoticeError      NoticeKind = "error"
)

// Notice is a one-shot message shown after an intent.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// IsZero reports whether there is nothing to show.
func (n Notice) IsZero() bool {
	return n.Message == ""
}

// State is the authoritative store content.
type State struct {
	Users    []User        `json:"users"`
	Stats    AgeGroupStats `json:"stats"`
	Loading  bool          `json:"loading"`
	Advisory string        `json:"advisory,omitempty"`
	DemoMode bool          `json:"demo_mode"`
	Controls ViewControls  `json:"controls"`
	Form     CreateForm    `json:"form"`
	Upload   UploadState   `json:"upload"`
	Notice   Notice        `json:"notice"`
}

// StoreEvent describes a state change transports might care about.
type StoreEvent struct {
	Reason   string    `json:"reason"`
	Name     string    `json:"name,omitempty"`
	Count    int       `json:"count,omitempty"`
	DemoMode bool      `json:"demo_mode"`
	At       time.Time `json:"at"`
}
