// Package store keeps the in-memory state of the mock VeloxQ platform.
//
// Problems, files and jobs live in maps guarded by one mutex. Submitted
// jobs walk created -> pending -> running -> completed on timers, one
// Step apart; completion synthesizes a result container from the
// uploaded instance, so clients get energies that are consistent with
// the states they read back.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/veloxq/veloxq-api-types/jobs"
	"github.com/veloxq/veloxq-api-types/logs"
	"github.com/veloxq/veloxq-api-types/misc/rfctime"
	"github.com/veloxq/veloxq-api-types/problems"
	"github.com/veloxq/veloxq-api-types/solvers"
	"github.com/veloxq/veloxq-go/pkg/codec"
	"github.com/veloxq/veloxq-go/pkg/result"
	"github.com/veloxq/veloxq-go/pkg/utils"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrNotReady is returned for a result requested before its job
	// has completed.
	ErrNotReady = errors.New("result is not ready")

	ErrBadRequest = errors.New("bad request")
)

// DefaultStep is the delay between simulated job status transitions.
const DefaultStep = 500 * time.Millisecond

// maxReps caps the sample count of synthesized results, so containers
// stay small however large num_rep the submission asks for.
const maxReps = 32

const (
	solverRatePerHour  = 0.5
	backendRatePerHour = 2.0
)

// Query filters and pages problem and file listings.
type Query struct {
	// Name keeps only entries whose name contains it. Empty keeps all.
	Name string

	Page  int
	Limit int
}

// JobQuery filters and pages job listings.
type JobQuery struct {
	Status    jobs.Status
	CreatedAt jobs.PeriodFilter

	Page  int
	Limit int
}

// LogFilter scopes log retrieval.
type LogFilter struct {
	Category logs.Category
	Period   logs.TimePeriod
	Message  string
}

type fileEntry struct {
	detail  problems.File
	content []byte
}

type jobEntry struct {
	detail jobs.Detail
	fileId string
	reps   int
	logs   []logs.Row
	result []byte
}

type Store struct {
	mu sync.Mutex

	step time.Duration

	problems     map[string]problems.Detail
	problemOrder []string
	files        map[string]*fileEntry
	fileOrder    []string
	jobs         map[string]*jobEntry
	jobOrder     []string

	problemSerial int
	fileSerial    int
	jobSerial     int

	stopped bool
	timers  []*time.Timer
}

type Option func(*Store) *Store

// WithStep sets the delay between simulated job status transitions.
func WithStep(d time.Duration) Option {
	return func(s *Store) *Store {
		s.step = d
		return s
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		step:     DefaultStep,
		problems: map[string]problems.Detail{},
		files:    map[string]*fileEntry{},
		jobs:     map[string]*jobEntry{},
	}
	for _, opt := range opts {
		s = opt(s)
	}
	return s
}

// Close stops pending lifecycle timers. Jobs not yet terminal stay
// frozen in their current status.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *Store) CreateProblem(name string) (problems.Detail, error) {
	if name == "" {
		return problems.Detail{}, fmt.Errorf("%w: name should not be empty", ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.problemSerial += 1
	now := rfctime.New(time.Now())
	det := problems.Detail{
		Id:        fmt.Sprintf("problem-%d", s.problemSerial),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.problems[det.Id] = det
	s.problemOrder = append(s.problemOrder, det.Id)
	return det, nil
}

func (s *Store) Problem(problemId string) (problems.Detail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	det, ok := s.problems[problemId]
	return det, ok
}

func (s *Store) Problems(q Query) []problems.Detail {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := []problems.Detail{}
	for _, id := range s.problemOrder {
		det := s.problems[id]
		if q.Name != "" && !strings.Contains(det.Name, q.Name) {
			continue
		}
		found = append(found, det)
	}
	return pageOf(found, q.Page, q.Limit)
}

func (s *Store) RequestUpload(problemId string, spec problems.UploadRequest) (problems.File, error) {
	if spec.FileName == "" {
		return problems.File{}, fmt.Errorf("%w: file_name should not be empty", ErrBadRequest)
	}
	if spec.Size < 0 {
		return problems.File{}, fmt.Errorf("%w: size should not be negative", ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.problems[problemId]; !ok {
		return problems.File{}, fmt.Errorf("%w: problem %s", ErrNotFound, problemId)
	}

	s.fileSerial += 1
	det := problems.File{
		Id:        fmt.Sprintf("file-%d", s.fileSerial),
		Name:      spec.FileName,
		Size:      spec.Size,
		ProblemId: problemId,
		Status:    problems.FilePending,
		CreatedAt: rfctime.New(time.Now()),
	}
	s.files[det.Id] = &fileEntry{detail: det}
	s.fileOrder = append(s.fileOrder, det.Id)
	return det, nil
}

// Upload fills the slot reserved by RequestUpload.
func (s *Store) Upload(problemId string, fileId string, content []byte) (problems.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.files[fileId]
	if !ok || entry.detail.ProblemId != problemId {
		return problems.File{}, fmt.Errorf("%w: file %s of problem %s", ErrNotFound, fileId, problemId)
	}
	if int64(len(content)) != entry.detail.Size {
		return problems.File{}, fmt.Errorf(
			"%w: file %s expects %d bytes, got %d",
			ErrBadRequest, fileId, entry.detail.Size, len(content),
		)
	}

	entry.content = content
	entry.detail.UploadedBytes = int64(len(content))
	entry.detail.Status = problems.FileCompleted
	now := rfctime.New(time.Now())
	entry.detail.UpdatedAt = &now
	return entry.detail, nil
}

func (s *Store) File(fileId string) (problems.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.files[fileId]
	if !ok {
		return problems.File{}, false
	}
	return entry.detail, true
}

func (s *Store) ProblemFile(problemId string, fileId string) (problems.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.files[fileId]
	if !ok || entry.detail.ProblemId != problemId {
		return problems.File{}, false
	}
	return entry.detail, true
}

// ProblemFiles lists files of one problem in upload order. The second
// return is false when the problem itself does not exist.
func (s *Store) ProblemFiles(problemId string, q Query) ([]problems.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.problems[problemId]; !ok {
		return nil, false
	}

	found := []problems.File{}
	for _, id := range s.fileOrder {
		det := s.files[id].detail
		if det.ProblemId != problemId {
			continue
		}
		if q.Name != "" && !strings.Contains(det.Name, q.Name) {
			continue
		}
		found = append(found, det)
	}
	return pageOf(found, q.Page, q.Limit), true
}

// Files lists files over all problems, newest first.
func (s *Store) Files(q Query) []problems.File {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := []problems.File{}
	for i := len(s.fileOrder) - 1; 0 <= i; i -= 1 {
		det := s.files[s.fileOrder[i]].detail
		if q.Name != "" && !strings.Contains(det.Name, q.Name) {
			continue
		}
		found = append(found, det)
	}
	return pageOf(found, q.Page, q.Limit)
}

func (s *Store) DeleteFile(problemId string, fileId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.files[fileId]
	if !ok || entry.detail.ProblemId != problemId {
		return false
	}
	delete(s.files, fileId)
	order := make([]string, 0, len(s.fileOrder)-1)
	for _, id := range s.fileOrder {
		if id != fileId {
			order = append(order, id)
		}
	}
	s.fileOrder = order
	return true
}

func (s *Store) FileContent(fileId string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.files[fileId]
	if !ok || entry.detail.Status != problems.FileCompleted {
		return nil, false
	}
	return entry.content, true
}

// Submit registers jobs for a submission, one per solver entry, and
// schedules their lifecycle.
func (s *Store) Submit(spec jobs.SubmitRequest) ([]jobs.Detail, error) {
	if len(spec.Solvers) == 0 {
		return nil, fmt.Errorf("%w: submission has no solvers", ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.problems[spec.ProblemId]; !ok {
		return nil, fmt.Errorf("%w: problem %s", ErrNotFound, spec.ProblemId)
	}

	created := make([]jobs.Detail, 0, len(spec.Solvers))
	for _, solverSpec := range spec.Solvers {
		if len(solverSpec.Files) == 0 {
			return nil, fmt.Errorf("%w: solver entry has no files", ErrBadRequest)
		}
		fileId := solverSpec.Files[0].FileId
		entry, ok := s.files[fileId]
		if !ok || entry.detail.ProblemId != spec.ProblemId {
			return nil, fmt.Errorf("%w: file %s of problem %s", ErrNotFound, fileId, spec.ProblemId)
		}

		params := solvers.New()
		if len(solverSpec.Parameters) != 0 {
			if err := params.UnmarshalJSON(solverSpec.Parameters); err != nil {
				return nil, fmt.Errorf("%w: malformed parameters: %s", ErrBadRequest, err)
			}
		}

		s.jobSerial += 1
		now := time.Now()
		det := jobs.Detail{
			Id:        fmt.Sprintf("job-%d", s.jobSerial),
			Number:    s.jobSerial,
			CreatedAt: rfctime.New(now),
			UpdatedAt: rfctime.New(now),
			Status:    jobs.Created,
			Timeline:  []jobs.TimelineValue{timelineAt(jobs.Created, now)},
		}
		job := &jobEntry{
			detail: det,
			fileId: fileId,
			reps:   clampReps(params.NumRep),
			logs: []logs.Row{
				logRow(now, logs.Info, fmt.Sprintf("job %s created for file %s", det.Id, fileId)),
			},
		}
		s.jobs[det.Id] = job
		s.jobOrder = append(s.jobOrder, det.Id)
		created = append(created, det)

		s.schedule(det.Id, jobs.Pending)
	}

	return created, nil
}

// schedule arms the next transition, one step away.
// caller should hold s.mu.
func (s *Store) schedule(jobId string, next jobs.Status) {
	if s.stopped {
		return
	}
	t := time.AfterFunc(s.step, func() {
		s.advance(jobId, next)
	})
	s.timers = append(s.timers, t)
}

func (s *Store) advance(jobId string, next jobs.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	job, ok := s.jobs[jobId]
	if !ok || job.detail.Status.Terminal() {
		return
	}

	now := time.Now()
	switch next {
	case jobs.Pending:
		job.logs = append(job.logs, logRow(now, logs.Info, "job queued"))
		s.schedule(jobId, jobs.Running)
	case jobs.Running:
		job.logs = append(job.logs, logRow(now, logs.Info, "solver started"))
		s.schedule(jobId, jobs.Completed)
	case jobs.Completed:
		content, ok := s.contentOf(job.fileId)
		if !ok {
			next = jobs.Failed
			job.logs = append(job.logs, logRow(now, logs.Error, "instance file has no content"))
			break
		}
		name := s.files[job.fileId].detail.Name
		container, minEnergy, err := synthesize(name, content, seedOf(jobId), job.reps)
		if err != nil {
			next = jobs.Failed
			job.logs = append(job.logs, logRow(now, logs.Error, fmt.Sprintf("solver failed: %s", err)))
			break
		}
		job.result = container
		job.detail.Results = &jobs.ResultMeta{
			Type: jobs.ResultDefault,
			Items: []jobs.ResultMetaItem{
				{Name: "minEnergy", Label: "Minimum energy", Values: []any{minEnergy}},
			},
		}
		job.logs = append(job.logs,
			logRow(now, logs.Progress, "annealing 100%"),
			logRow(now, logs.Notice, "job completed"),
		)
	}

	job.detail.Status = next
	job.detail.UpdatedAt = rfctime.New(now)
	job.detail.Timeline = append(job.detail.Timeline, timelineAt(next, now))
	if next.Terminal() {
		job.detail.Statistics = statisticsOf(job.detail.Timeline)
	}
}

// caller should hold s.mu.
func (s *Store) contentOf(fileId string) ([]byte, bool) {
	entry, ok := s.files[fileId]
	if !ok || entry.detail.Status != problems.FileCompleted {
		return nil, false
	}
	return entry.content, true
}

func (s *Store) Job(jobId string) (jobs.Detail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobId]
	if !ok {
		return jobs.Detail{}, false
	}
	return job.detail, true
}

func (s *Store) Jobs(q JobQuery) []jobs.Detail {
	s.mu.Lock()
	defer s.mu.Unlock()

	lo, hi := periodBounds(q.CreatedAt, time.Now())
	found := []jobs.Detail{}
	for _, id := range s.jobOrder {
		det := s.jobs[id].detail
		if q.Status != "" && det.Status != q.Status {
			continue
		}
		createdAt := det.CreatedAt.Time()
		if !lo.IsZero() && createdAt.Before(lo) {
			continue
		}
		if !hi.IsZero() && !createdAt.Before(hi) {
			continue
		}
		found = append(found, det)
	}
	return pageOf(found, q.Page, q.Limit)
}

// Logs lists log entries of a job. The second return is false when the
// job does not exist.
func (s *Store) Logs(jobId string, f LogFilter) ([]logs.Row, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobId]
	if !ok {
		return nil, false
	}

	cutoff := logCutoff(f.Period, time.Now())
	found := utils.Filter(job.logs, func(row logs.Row) bool {
		if f.Category != "" && row.Category != f.Category {
			return false
		}
		if !cutoff.IsZero() && row.Timestamp != nil && row.Timestamp.Time().Before(cutoff) {
			return false
		}
		return f.Message == "" || strings.Contains(row.Message, f.Message)
	})
	return found, true
}

// Result returns the synthesized result container of a completed job.
func (s *Store) Result(jobId string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobId]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobId)
	}
	if job.detail.Status != jobs.Completed {
		return nil, fmt.Errorf("%w: job %s is %s", ErrNotReady, jobId, job.detail.Status)
	}
	return job.result, nil
}

const defaultLimit = 1000

func pageOf[T any](items []T, page int, limit int) []T {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	lo := (page - 1) * limit
	if len(items) <= lo {
		return []T{}
	}
	hi := lo + limit
	if len(items) < hi {
		hi = len(items)
	}
	return items[lo:hi]
}

func timelineAt(status jobs.Status, at time.Time) jobs.TimelineValue {
	stamp := rfctime.New(at)
	return jobs.TimelineValue{
		Name:  status,
		Value: jobs.TimelineStamp{Time: &stamp},
	}
}

func logRow(at time.Time, category logs.Category, message string) logs.Row {
	stamp := rfctime.New(at)
	return logs.Row{Timestamp: &stamp, Category: category, Message: message}
}

func clampReps(numRep int) int {
	if numRep < 1 {
		return 1
	}
	if maxReps < numRep {
		return maxReps
	}
	return numRep
}

func seedOf(jobId string) int64 {
	h := fnv.New64a()
	h.Write([]byte(jobId))
	return int64(h.Sum64())
}

// synthesize decodes the uploaded instance and samples `reps` random
// states, evaluating each against the model, so the container holds
// energies consistent with its states.
func synthesize(name string, content []byte, seed int64, reps int) ([]byte, float64, error) {
	format, err := codec.FormatForPath(name)
	if err != nil {
		if format, err = codec.Sniff(content); err != nil {
			return nil, 0, err
		}
	}
	model, err := codec.DecodeModel(bytes.NewReader(content), format)
	if err != nil {
		return nil, 0, err
	}

	rnd := rand.New(rand.NewSource(seed))
	l := model.Size()
	energies := make([]float32, 0, reps)
	states := make([]int8, 0, reps*l)
	minEnergy := math.Inf(1)
	for r := 0; r < reps; r += 1 {
		state := make([]int8, l)
		for i := range state {
			if rnd.Intn(2) == 0 {
				state[i] = 1
			} else {
				state[i] = -1
			}
		}
		energy, err := model.Energy(state)
		if err != nil {
			return nil, 0, err
		}
		if energy < minEnergy {
			minEnergy = energy
		}
		energies = append(energies, float32(energy))
		states = append(states, state...)
	}

	buf := bytes.NewBuffer(nil)
	err = result.Encode(buf, &result.Spectrum{
		Energies:   energies,
		States:     states,
		L:          l,
		NumBatches: 1,
		NumRep:     reps,
	})
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), minEnergy, nil
}

func statisticsOf(timeline []jobs.TimelineValue) jobs.Statistics {
	at := map[jobs.Status]time.Time{}
	for _, v := range timeline {
		if v.Value.Time != nil {
			at[v.Name] = v.Value.Time.Time()
		}
	}

	end, ok := at[jobs.Completed]
	if !ok {
		end = at[jobs.Failed]
	}
	pending := hoursBetween(at[jobs.Pending], at[jobs.Running])
	running := hoursBetween(at[jobs.Running], end)
	usage := hoursBetween(at[jobs.Created], end)

	solverCost := running * solverRatePerHour
	backendCost := running * backendRatePerHour
	return jobs.Statistics{
		UsageTime:        usage,
		PendingTime:      pending,
		RunningTime:      running,
		TotalCost:        solverCost + backendCost,
		SolverCost:       solverCost,
		BackendCost:      backendCost,
		TotalBackendCost: backendCost,
		TotalUsageCost:   solverCost + backendCost,
	}
}

func hoursBetween(from, to time.Time) float64 {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return 0
	}
	return to.Sub(from).Hours()
}

// periodBounds maps a creation-period filter to a [lo, hi) window.
// A zero bound means unbounded on that side.
func periodBounds(p jobs.PeriodFilter, now time.Time) (time.Time, time.Time) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case jobs.Today:
		return startOfDay, time.Time{}
	case jobs.Yesterday:
		return startOfDay.AddDate(0, 0, -1), startOfDay
	case jobs.LastWeek:
		return now.AddDate(0, 0, -7), time.Time{}
	case jobs.LastMonth:
		return now.AddDate(0, -1, 0), time.Time{}
	case jobs.Last3Months:
		return now.AddDate(0, -3, 0), time.Time{}
	case jobs.LastYear:
		return now.AddDate(-1, 0, 0), time.Time{}
	}
	return time.Time{}, time.Time{}
}

func logCutoff(p logs.TimePeriod, now time.Time) time.Time {
	switch p {
	case logs.LastHour:
		return now.Add(-1 * time.Hour)
	case logs.Last12Hours:
		return now.Add(-12 * time.Hour)
	case logs.Last24Hours:
		return now.Add(-24 * time.Hour)
	case logs.Last3Days:
		return now.AddDate(0, 0, -3)
	case logs.LastWeek:
		return now.AddDate(0, 0, -7)
	case logs.LastMonth:
		return now.AddDate(0, -1, 0)
	}
	return time.Time{}
}
