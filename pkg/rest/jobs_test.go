package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apierr "github.com/veloxq/veloxq-api-types/errors"
	"github.com/veloxq/veloxq-api-types/jobs"
	"github.com/veloxq/veloxq-api-types/logs"
	"github.com/veloxq/veloxq-api-types/misc/rfctime"
	"github.com/veloxq/veloxq-api-types/solvers"
	krst "github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/veloxq/veloxq-go/pkg/cmp"
	"github.com/veloxq/veloxq-go/pkg/utils/pointer"
	"github.com/veloxq/veloxq-go/pkg/utils/try"
)

func TestSubmitJob(t *testing.T) {
	t.Run("it posts the submission and returns the created job", func(t *testing.T) {
		expectedResponse := jobs.Detail{
			Id:        "job-1",
			Number:    42,
			CreatedAt: try.To(rfctime.ParseRFC3339DateTime("2024-10-02T09:00:00+00:00")).OrFatal(t),
			UpdatedAt: try.To(rfctime.ParseRFC3339DateTime("2024-10-02T09:00:00+00:00")).OrFatal(t),
			Status:    jobs.Created,
		}

		var request *http.Request
		var rawBody []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			request = r
			rawBody = try.To(io.ReadAll(r.Body)).OrFatal(t)

			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			w.Write(try.To(json.Marshal([]jobs.Detail{expectedResponse})).OrFatal(t))
		}))
		defer server.Close()

		params := try.To(json.Marshal(solvers.New())).OrFatal(t)

		testee := try.To(krst.NewClient(testProfile(server.URL))).OrFatal(t)
		actualResponse := try.To(testee.SubmitJob(context.Background(), jobs.SubmitRequest{
			ProblemId: "problem-1",
			Solvers: []jobs.SolverSpec{
				{
					SolverId:   "solver-1",
					BackendId:  "backend-1",
					Files:      []jobs.FileRef{{FileId: "file-1"}},
					Parameters: params,
				},
			},
		})).OrFatal(t)

		if !actualResponse.Equal(expectedResponse) {
			t.Errorf("response is not equal (actual,expected): %v,%v", actualResponse, expectedResponse)
		}
		if request.Method != http.MethodPost {
			t.Errorf("request method unmatch: %s", request.Method)
		}
		if request.URL.Path != "/jobs" {
			t.Errorf("request path unmatch: %s", request.URL.Path)
		}

		sent := new(struct {
			ProblemId string `json:"problemId"`
			Solvers   []struct {
				SolverId  string `json:"solverId"`
				BackendId string `json:"backendId"`
				Files     []struct {
					FileId string `json:"fileId"`
				} `json:"files"`
				Parameters map[string]any `json:"parameters"`
			} `json:"solvers"`
		})
		if err := json.Unmarshal(rawBody, sent); err != nil {
			t.Fatal(err.Error())
		}
		if sent.ProblemId != "problem-1" {
			t.Errorf("problemId unmatch: %s", sent.ProblemId)
		}
		if len(sent.Solvers) != 1 {
			t.Fatalf("solvers in the request unmatch: %s", string(rawBody))
		}
		if sent.Solvers[0].SolverId != "solver-1" || sent.Solvers[0].BackendId != "backend-1" {
			t.Errorf(
				"solver selection unmatch: (solverId, backendId) = (%s, %s)",
				sent.Solvers[0].SolverId, sent.Solvers[0].BackendId,
			)
		}
		if len(sent.Solvers[0].Files) != 1 || sent.Solvers[0].Files[0].FileId != "file-1" {
			t.Errorf("file refs unmatch: %+v", sent.Solvers[0].Files)
		}
		if numRep, ok := sent.Solvers[0].Parameters["num_rep"]; !ok || numRep != float64(4096) {
			t.Errorf("parameters are not flattened as snake_case: %+v", sent.Solvers[0].Parameters)
		}
	})

	t.Run("when server answers with an empty array, it returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		testee := try.To(krst.NewClient(testProfile(server.URL))).OrFatal(t)
		if _, err := testee.SubmitJob(context.Background(), jobs.SubmitRequest{
			ProblemId: "problem-1",
			Solvers:   []jobs.SolverSpec{{SolverId: "solver-1", BackendId: "backend-1"}},
		}); err == nil {
			t.Fatal("error is expected, but not")
		}
	})

	t.Run("when server rejects the submission, it returns ErrorMessage", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message": "unknown solver"}`))
		}))
		defer server.Close()

		testee := try.To(krst.NewClient(testProfile(server.URL))).OrFatal(t)
		_, err := testee.SubmitJob(context.Background(), jobs.SubmitRequest{ProblemId: "problem-1"})
		if err == nil {
			t.Fatal("error is expected, but not")
		}
		em := new(apierr.ErrorMessage)
		if !errors.As(err, &em) {
			t.Fatalf("error is not ErrorMessage: %+v", err)
		}
		if em.StatusCode != http.StatusBadRequest {
			t.Errorf("status code unmatch: %d", em.StatusCode)
		}
	})
}

func TestGetJob(t *testing.T) {
	t.Run("it fetches a job with statistics and timeline", func(t *testing.T) {
		expectedResponse := jobs.Detail{
			Id:        "job-1",
			Number:    42,
			CreatedAt: try.To(rfctime.ParseRFC3339DateTime("2024-10-02T09:00:00+00:00")).OrFatal(t),
			UpdatedAt: try.To(rfctime.ParseRFC3339DateTime("2024-10-02T09:05:00+00:00")).OrFatal(t),
			Status:    jobs.Completed,
			Statistics: jobs.Statistics{
				UsageTime:   0.25,
				RunningTime: 0.2,
				TotalCost:   1.5,
			},
			Timeline: []jobs.TimelineValue{
				{
					Name: jobs.Pending,
					Value: jobs.TimelineStamp{
						Time: pointer.Ref(try.To(rfctime.ParseRFC3339DateTime("2024-10-02T09:00:30+00:00")).OrFatal(t)),
					},
				},
				{
					Name:  jobs.Running,
					Value: jobs.TimelineStamp{Hours: pointer.Ref(0.2)},
				},
			},
			Results: &jobs.ResultMeta{
				Type: jobs.ResultDefault,
				Items: []jobs.ResultMetaItem{
					{Name: "energy", Label: "Energy", Values: []any{-12.5}},
				},
			},
		}

		var request *http.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			request = r
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(try.To(json.Marshal(expectedResponse)).OrFatal(t))
		}))
		defer server.Close()

		testee := try.To(krst.NewClient(testProfile(server.URL))).OrFatal(t)
		actualResponse := try.To(testee.GetJob(context.Background(), "job-1")).OrFatal(t)

		if !actualResponse.Equal(expectedResponse) {
			t.Errorf("response is not equal (actual,expected): %v,%v", actualResponse, expectedResponse)
		}
		if request.URL.Path != "/jobs/job-1" {
			t.Errorf("request path unmatch: %s", request.URL.Path)
		}
	})

	t.Run("when the job is missing, it returns ErrorMessage", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "no such job"}`))
		}))
		defer server.Close()

		testee := try.To(krst.NewClient(testProfile(server.URL))).OrFatal(t)
		_, err := testee.GetJob(context.Background(), "job-missing")
		if err == nil {
			t.Fatal("error is expected, but not")
		}
		em := new(apierr.ErrorMessage)
		if !errors.As(err, &em) {
			t.Fatalf("error is not ErrorMessage: %+v", err)
		}
	})
}

func TestFindJobs(t *testing.T) {
	theories := map[string]struct {
		param         krst.FindJobsParameter
		expectedQuery map[string]string
		absentKeys    []string
	}{
		"with no filters, it asks the first page only": {
			param:         krst.FindJobsParameter{},
			expectedQuery: map[string]string{"_page": "1", "_limit": "1000"},
			absentKeys:    []string{"status", "createdAt"},
		},
		"with filters, it passes them through": {
			param: krst.FindJobsParameter{
				Status:    jobs.Running,
				CreatedAt: jobs.LastWeek,
				Page:      2,
				Limit:     50,
			},
			expectedQuery: map[string]string{
				"status": "running", "createdAt": "lastWeek",
				"_page": "2", "_limit": "50",
			},
		},
	}

	for name, theory := range theories {
		t.Run(name, func(t *testing.T) {
			expectedResponse := []jobs.Detail{
				{
					Id:        "job-1",
					Number:    42,
					CreatedAt: try.To(rfctime.ParseRFC3339DateTime("2024-10-02T09:00:00+00:00")).OrFatal(t),
					UpdatedAt: try.To(rfctime.ParseRFC3339DateTime("2024-10-02T09:05:00+00:00")).OrFatal(t),
					Status:    jobs.Running,
				},
				{
					Id:        "job-2",
					Number:    43,
					CreatedAt: try.To(rfctime.ParseRFC3339DateTime("2024-10-02T10:00:00+00:00")).OrFatal(t),
					UpdatedAt: try.To(rfctime.ParseRFC3339DateTime("2024-10-02T10:00:00+00:00")).OrFatal(t),
					Status:    jobs.Running,
				},
			}

			var request *http.Request
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				request = r
				w.Header().Add("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write(try.To(json.Marshal(map[string][]jobs.Detail{
					"data": expectedResponse,
				})).OrFatal(t))
			}))
			defer server.Close()

			testee := try.To(krst.NewClient(testProfile(server.URL))).OrFatal(t)
			actualResponse := try.To(testee.FindJobs(context.Background(), theory.param)).OrFatal(t)

			if !cmp.SliceEqWith(actualResponse, expectedResponse, jobs.Detail.Equal) {
				t.Errorf("response is not equal (actual,expected): %v,%v", actualResponse, expectedResponse)
			}
			if request.URL.Path != "/jobs" {
				t.Errorf("request path unmatch: %s", request.URL.Path)
			}

			query := request.URL.Query()
			for key, value := range theory.expectedQuery {
				if query.Get(key) != value {
					t.Errorf("query %s unmatch. (actual, expected) = (%s, %s)", key, query.Get(key), value)
				}
			}
			for _, key := range theory.absentKeys {
				if query.Has(key) {
					t.Errorf("query %s should be absent: %v", key, query)
				}
			}
		})
	}
}

func TestGetJobLogs(t *testing.T) {
	theories := map[string]struct {
		query         krst.LogQuery
		expectedQuery map[string]string
		absentKeys    []string
	}{
		"with no filters, it asks all time": {
			query:         krst.LogQuery{},
			expectedQuery: map[string]string{"time_period": "allTime"},
			absentKeys:    []string{"category", "q"},
		},
		"with filters, it passes them through": {
			query: krst.LogQuery{
				Category:   logs.Error,
				TimePeriod: logs.LastHour,
				Message:    "solver",
			},
			expectedQuery: map[string]string{
				"time_period": "lastHour", "category": "ERROR", "q": "solver",
			},
		},
	}

	for name, theory := range theories {
		t.Run(name, func(t *testing.T) {
			expectedResponse := []logs.Row{
				{
					Timestamp: pointer.Ref(try.To(rfctime.ParseRFC3339DateTime("2024-10-02T09:01:00+00:00")).OrFatal(t)),
					Category:  logs.Info,
					Message:   "job started",
				},
				{
					Category: logs.Progress,
					Message:  "step 100/10000",
				},
			}

			var request *http.Request
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				request = r
				w.Header().Add("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)

				// logs come without the listing envelope
				w.Write(try.To(json.Marshal(expectedResponse)).OrFatal(t))
			}))
			defer server.Close()

			testee := try.To(krst.NewClient(testProfile(server.URL))).OrFatal(t)
			actualResponse := try.To(testee.GetJobLogs(context.Background(), "job-1", theory.query)).OrFatal(t)

			if !cmp.SliceEqWith(actualResponse, expectedResponse, logs.Row.Equal) {
				t.Errorf("response is not equal (actual,expected): %v,%v", actualResponse, expectedResponse)
			}
			if request.URL.Path != "/jobs/job-1/logs" {
				t.Errorf("request path unmatch: %s", request.URL.Path)
			}

			query := request.URL.Query()
			for key, value := range theory.expectedQuery {
				if query.Get(key) != value {
					t.Errorf("query %s unmatch. (actual, expected) = (%s, %s)", key, query.Get(key), value)
				}
			}
			for _, key := range theory.absentKeys {
				if query.Has(key) {
					t.Errorf("query %s should be absent: %v", key, query)
				}
			}
		})
	}
}

func TestDownloadResult(t *testing.T) {
	t.Run("it streams the result container", func(t *testing.T) {
		content := bytes.Repeat([]byte{0x56, 0x51, 0x43, 0x31}, 256)

		var request *http.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			request = r
			w.Header().Add("Content-Type", "application/octet-stream")
			w.WriteHeader(http.StatusOK)
			w.Write(content)
		}))
		defer server.Close()

		testee := try.To(krst.NewClient(testProfile(server.URL))).OrFatal(t)

		sink := bytes.NewBuffer(nil)
		if err := testee.DownloadResult(
			context.Background(), "job-1",
			func(r io.Reader) error {
				_, err := io.Copy(sink, r)
				return err
			},
		); err != nil {
			t.Fatalf("download failed: %+v", err)
		}

		if !bytes.Equal(sink.Bytes(), content) {
			t.Errorf("content unmatch. (actual, expected) = (%d bytes, %d bytes)", sink.Len(), len(content))
		}
		if request.URL.Path != "/jobs/job-1/result/download" {
			t.Errorf("request path unmatch: %s", request.URL.Path)
		}
		if request.URL.Query().Get("type") != "hdf5" {
			t.Errorf("query type unmatch: %s", request.URL.Query().Get("type"))
		}
	})

	t.Run("when the result is not ready, it returns ErrorMessage", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "result is not available"}`))
		}))
		defer server.Close()

		testee := try.To(krst.NewClient(testProfile(server.URL))).OrFatal(t)
		err := testee.DownloadResult(
			context.Background(), "job-1",
			func(r io.Reader) error {
				t.Error("handler should not be called")
				return nil
			},
		)
		if err == nil {
			t.Fatal("error is expected, but not")
		}
		em := new(apierr.ErrorMessage)
		if !errors.As(err, &em) {
			t.Fatalf("error is not ErrorMessage: %+v", err)
		}
	})
}
