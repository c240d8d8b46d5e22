package logs

import (
	"fmt"

	"github.com/veloxq/veloxq-api-types/misc/rfctime"
)

// Category of a job log entry.
type Category string

const (
	Info     Category = "INFO"
	Notice   Category = "NOTICE"
	Warning  Category = "WARNING"
	Error    Category = "ERROR"
	Critical Category = "CRITICAL"
	Progress Category = "PROGRESS"
)

func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case Info, Notice, Warning, Error, Critical, Progress:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown log category: %s", s)
	}
}

// TimePeriod limits log retrieval to a time window ending now.
type TimePeriod string

const (
	AllTime     TimePeriod = "allTime"
	LastHour    TimePeriod = "lastHour"
	Last12Hours TimePeriod = "last12Hours"
	Last24Hours TimePeriod = "last24Hours"
	Last3Days   TimePeriod = "last3Days"
	LastWeek    TimePeriod = "lastWeek"
	LastMonth   TimePeriod = "lastMonth"
)

func ParseTimePeriod(s string) (TimePeriod, error) {
	switch TimePeriod(s) {
	case AllTime, LastHour, Last12Hours, Last24Hours, Last3Days, LastWeek, LastMonth:
		return TimePeriod(s), nil
	default:
		return "", fmt.Errorf("unknown time period: %s", s)
	}
}

// Row is one job log entry, in server-provided order.
type Row struct {
	Timestamp *rfctime.RFC3339 `json:"timestamp,omitempty"`
	Category  Category         `json:"category"`
	Message   string           `json:"message"`
}

func (r Row) Equal(o Row) bool {
	timestampEq := (r.Timestamp == nil && o.Timestamp == nil) ||
		(r.Timestamp != nil && o.Timestamp != nil && r.Timestamp.Equal(*o.Timestamp))

	return timestampEq &&
		r.Category == o.Category &&
		r.Message == o.Message
}

func (r Row) String() string {
	ts := ""
	if r.Timestamp != nil {
		ts = r.Timestamp.String()
	}
	return fmt.Sprintf("%s [%s] %s", ts, r.Category, r.Message)
}
