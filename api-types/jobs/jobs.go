package jobs

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/veloxq/veloxq-api-types/internal/utils/cmp"
	"github.com/veloxq/veloxq-api-types/misc/rfctime"
)

// Status of a job.
//
// A job moves created -> pending -> running and ends in completed or
// failed. The platform is the only source of status; clients observe it
// by polling.
type Status string

const (
	Created   Status = "created"
	Pending   Status = "pending"
	Running   Status = "running"
	Completed Status = "completed"
	Failed    Status = "failed"
)

// Terminal returns true when no further transition can leave the status.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case Created, Pending, Running, Completed, Failed:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown job status: %s", s)
	}
}

// PeriodFilter limits job listings by creation time.
type PeriodFilter string

const (
	Today       PeriodFilter = "today"
	Yesterday   PeriodFilter = "yesterday"
	LastWeek    PeriodFilter = "lastWeek"
	LastMonth   PeriodFilter = "lastMonth"
	Last3Months PeriodFilter = "last3Months"
	LastYear    PeriodFilter = "lastYear"
	All         PeriodFilter = "all"
)

func ParsePeriodFilter(s string) (PeriodFilter, error) {
	switch PeriodFilter(s) {
	case Today, Yesterday, LastWeek, LastMonth, Last3Months, LastYear, All:
		return PeriodFilter(s), nil
	default:
		return "", fmt.Errorf("unknown period filter: %s", s)
	}
}

// Statistics carries execution time and cost figures of a job.
// Times are hours, costs are dollars.
type Statistics struct {
	UsageTime        float64 `json:"usageTime"`
	PendingTime      float64 `json:"pendingTime"`
	RunningTime      float64 `json:"runningTime"`
	TotalCost        float64 `json:"totalCost"`
	SolverCost       float64 `json:"solverCost"`
	BackendCost      float64 `json:"backendCost"`
	TotalBackendCost float64 `json:"totalBackendCost"`
	TotalUsageCost   float64 `json:"totalUsageCost"`
}

func (s Statistics) Equal(o Statistics) bool {
	return s == o
}

// TimelineStamp is the value of one timeline entry. The platform sends
// either an event timestamp or an aggregated duration in hours, so
// exactly one of Time and Hours is set.
type TimelineStamp struct {
	Time  *rfctime.RFC3339
	Hours *float64
}

func (v TimelineStamp) Equal(o TimelineStamp) bool {
	timeEq := (v.Time == nil && o.Time == nil) ||
		(v.Time != nil && o.Time != nil && v.Time.Equal(*o.Time))
	hoursEq := (v.Hours == nil && o.Hours == nil) ||
		(v.Hours != nil && o.Hours != nil && *v.Hours == *o.Hours)
	return timeEq && hoursEq
}

// implement encoding/json.Marshaler
func (v TimelineStamp) MarshalJSON() ([]byte, error) {
	if v.Time != nil {
		return json.Marshal(*v.Time)
	}
	if v.Hours != nil {
		return json.Marshal(*v.Hours)
	}
	return []byte("null"), nil
}

// implement encoding/json.Unmarshaler
func (v *TimelineStamp) UnmarshalJSON(b []byte) error {
	if len(b) != 0 && b[0] == '"' {
		t := new(rfctime.RFC3339)
		if err := json.Unmarshal(b, t); err != nil {
			return err
		}
		v.Time = t
		v.Hours = nil
		return nil
	}

	h := new(float64)
	if err := json.Unmarshal(b, h); err != nil {
		return fmt.Errorf("timeline value is neither timestamp nor number: %w", err)
	}
	v.Hours = h
	v.Time = nil
	return nil
}

// TimelineValue is one entry of the per-status timeline of a job.
type TimelineValue struct {
	Name  Status        `json:"name"`
	Value TimelineStamp `json:"value"`
}

func (t TimelineValue) Equal(o TimelineValue) bool {
	return t.Name == o.Name && t.Value.Equal(o.Value)
}

// ResultMetaType tells how result metadata items are structured.
type ResultMetaType string

const (
	ResultMatrix            ResultMetaType = "matrix"
	ResultDefault           ResultMetaType = "default"
	ResultParallelTempering ResultMetaType = "parallelTempering"
)

// ResultMetaItem is one named series in the result metadata.
type ResultMetaItem struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Values []any  `json:"values"`
}

func (i ResultMetaItem) Equal(o ResultMetaItem) bool {
	return i.Name == o.Name &&
		i.Label == o.Label &&
		cmp.SliceEqualWith(i.Values, o.Values, reflect.DeepEqual)
}

// ResultMeta is the summary the platform attaches to a finished job.
// The full result is a separate download.
type ResultMeta struct {
	Type  ResultMetaType   `json:"type"`
	Items []ResultMetaItem `json:"items"`
}

func (m ResultMeta) Equal(o ResultMeta) bool {
	return m.Type == o.Type && cmp.SliceEqual(m.Items, o.Items)
}

// Detail is a job as reported by "GET jobs/{id}".
type Detail struct {
	Id        string          `json:"id"`
	Number    int             `json:"shortId"`
	CreatedAt rfctime.RFC3339 `json:"createdAt"`
	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
	Status    Status          `json:"status"`

	Statistics Statistics      `json:"statistics"`
	Timeline   []TimelineValue `json:"timeline,omitempty"`
	Results    *ResultMeta     `json:"results,omitempty"`
}

func (d Detail) Equal(o Detail) bool {
	resultsEq := (d.Results == nil && o.Results == nil) ||
		(d.Results != nil && o.Results != nil && d.Results.Equal(*o.Results))

	return d.Id == o.Id &&
		d.Number == o.Number &&
		d.Status == o.Status &&
		d.CreatedAt.Equal(o.CreatedAt) &&
		d.UpdatedAt.Equal(o.UpdatedAt) &&
		d.Statistics.Equal(o.Statistics) &&
		cmp.SliceEqual(d.Timeline, o.Timeline) &&
		resultsEq
}

// SubmitRequest is the body of "POST jobs".
type SubmitRequest struct {
	ProblemId string       `json:"problemId"`
	Solvers   []SolverSpec `json:"solvers"`
}

// SolverSpec selects one solver run within a job submission.
//
// Parameters is kept as raw JSON: it is snapshotted by the caller at
// submission time, and its schema belongs to the selected solver.
type SolverSpec struct {
	SolverId   string          `json:"solverId"`
	BackendId  string          `json:"backendId"`
	Files      []FileRef       `json:"files"`
	Parameters json.RawMessage `json:"parameters"`
}

// FileRef points at an uploaded file by id.
type FileRef struct {
	FileId string `json:"fileId"`
}
