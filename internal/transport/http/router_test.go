package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dirhandler "reviewdraw/internal/directory/handler"
	dirstore "reviewdraw/internal/directory/store"
	dirmemory "reviewdraw/internal/directory/store/memory"
	"reviewdraw/internal/platform/metrics"
	"reviewdraw/internal/platform/middleware"
	selhandler "reviewdraw/internal/selection/handler"
	"reviewdraw/internal/selection/service"
	"reviewdraw/internal/selection/store/record"
	"reviewdraw/pkg/platform/audit/publisher"
	auditmemory "reviewdraw/pkg/platform/audit/store/memory"
	"reviewdraw/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite
	router http.Handler
	events *auditmemory.InMemoryStore
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	directory := dirmemory.NewInMemory()
	s.Require().NoError(dirstore.Seed(context.Background(), directory))
	s.events = auditmemory.NewInMemoryStore()

	svc := service.New(directory, directory, record.NewInMemory(),
		service.WithLogger(logger),
		service.WithAuditPublisher(publisher.NewPublisher(s.events)),
	)
	reg := prometheus.NewRegistry()
	s.router = NewRouter(Config{
		Logger:   logger,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	}, selhandler.New(svc, logger), dirhandler.New(directory, logger))
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) TestDrawReplaceAndBrowse() {
	req := testutil.JSONRequest(s.T(), http.MethodPost, "/selections", map[string]any{
		"project": map[string]any{"name": "体育馆维修", "extract_date": "2026-05-04"},
		"requirements": []map[string]any{
			{"category_id": "cat001", "count": 2},
			{"category_id": "cat004", "count": 1},
		},
	})
	testutil.AsOperator(req, "clerk-3")
	req.Header.Set(middleware.RequestIDHeader, "trace-abc")

	rr := testutil.Serve(s.router, req)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	s.Equal("trace-abc", rr.Header().Get(middleware.RequestIDHeader))
	created := testutil.Decode[selhandler.RecordResponse](s.T(), rr)
	s.Equal("clerk-3", created.Project.OperatorID)
	s.Regexp(`^PDSU-\d{8}-\d{4}$`, created.Project.Number)
	s.Require().Len(created.Entries, 3)

	events, err := s.events.ListByRecord(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Len(events, 4)
	for _, e := range events {
		s.Equal("trace-abc", e.RequestID)
		s.Equal("clerk-3", e.OperatorID)
	}

	seat := created.Entries[0].ExpertID
	rr = testutil.Serve(s.router, testutil.JSONRequest(s.T(), http.MethodPost,
		"/selections/"+created.ID+"/replacements", map[string]string{"expert_id": string(seat), "reason": "出差"}))
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	replaced := testutil.Decode[selhandler.RecordResponse](s.T(), rr)
	s.Equal("有补抽", replaced.StatusLabel)
	s.Len(replaced.Log, 4)
	s.NotEqual(seat, replaced.Entries[0].ExpertID)
	s.Equal(created.Entries[0].CategoryName, replaced.Entries[0].CategoryName)

	rr = testutil.Serve(s.router, testutil.JSONRequest(s.T(), http.MethodGet, "/selections?status=amended", nil))
	s.Require().Equal(http.StatusOK, rr.Code)
	list := testutil.Decode[selhandler.ListResponse](s.T(), rr)
	s.Require().Len(list.Records, 1)
	s.Equal(created.ID, list.Records[0].ID)

	rr = testutil.Serve(s.router, testutil.JSONRequest(s.T(), http.MethodGet, "/experts?category=cat001&in_service=true", nil))
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "冯十一")
	s.NotContains(rr.Body.String(), "赵六")
}

func (s *RouterSuite) TestShortPoolIsConflict() {
	rr := testutil.Serve(s.router, testutil.JSONRequest(s.T(), http.MethodPost, "/selections", map[string]any{
		"project":      map[string]any{"name": "p"},
		"requirements": []map[string]any{{"category_id": "cat004", "count": 3}},
	}))
	body := testutil.AssertError(s.T(), rr, http.StatusConflict, "conflict")
	s.NotEmpty(body.Description)
}

func (s *RouterSuite) TestUnknownRouteAndMethod() {
	rr := testutil.Serve(s.router, testutil.JSONRequest(s.T(), http.MethodGet, "/nope", nil))
	testutil.AssertError(s.T(), rr, http.StatusNotFound, "not_found")

	rr = testutil.Serve(s.router, testutil.JSONRequest(s.T(), http.MethodDelete, "/categories", nil))
	s.Equal(http.StatusMethodNotAllowed, rr.Code)
}

func (s *RouterSuite) TestMetricsEndpoint() {
	testutil.Serve(s.router, testutil.JSONRequest(s.T(), http.MethodGet, "/categories", nil))

	rr := testutil.Serve(s.router, testutil.JSONRequest(s.T(), http.MethodGet, "/metrics", nil))
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), `reviewdraw_http_requests_total{method="GET",route="/categories",status="200"} 1`)
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		router := NewRouter(Config{HealthChecks: map[string]HealthCheck{
			"redis": func(context.Context) error { return nil },
		}})
		rr := testutil.Serve(router, testutil.JSONRequest(t, http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	})

	t.Run("degraded", func(t *testing.T) {
		router := NewRouter(Config{HealthChecks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return errors.New("connection refused") },
			"redis":    func(context.Context) error { return nil },
		}})
		rr := testutil.Serve(router, testutil.JSONRequest(t, http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"connection refused"}}`, rr.Body.String())
	})
}
