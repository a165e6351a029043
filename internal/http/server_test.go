package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fines/internal/log"
	"fines/internal/metrics"
	"fines/internal/middleware/trace"
)

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type ServerSuite struct {
	suite.Suite
	store   *fakePinger
	metrics *metrics.Metrics
	srv     *Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	reg := prometheus.NewRegistry()
	s.metrics = metrics.New(reg)
	s.store = &fakePinger{}
	logger := log.New(log.Config{Output: io.Discard})
	s.srv = NewServer(":0", logger, reg, PingCheck("ledger", s.store))
}

func (s *ServerSuite) get(path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func (s *ServerSuite) TestLiveness() {
	for _, path := range []string{"/", "/healthz"} {
		rr := s.get(path)
		s.Equal(http.StatusOK, rr.Code, path)
		s.Equal(LivenessBody, rr.Body.String(), path)
		s.Equal("nosniff", rr.Header().Get("X-Content-Type-Options"), path)
	}
}

func (s *ServerSuite) TestReadiness() {
	rr := s.get("/readyz")
	s.Equal(http.StatusOK, rr.Code)

	s.store.err = errors.New("database is locked")
	rr = s.get("/readyz")
	s.Equal(http.StatusServiceUnavailable, rr.Code)
	s.Contains(rr.Body.String(), "ledger")
}

func (s *ServerSuite) TestMetricsExposesCollectors() {
	s.metrics.IncrementFineRecorded(25)

	rr := s.get("/metrics")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "fines_recorded_total 1")
	s.Contains(rr.Body.String(), "fines_points_recorded_total 25")
}

func (s *ServerSuite) TestUnknownPath() {
	s.Equal(http.StatusNotFound, s.get("/expenses").Code)
}

func (s *ServerSuite) TestRequestIDEchoed() {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(trace.HeaderRequestID, "probe-1")
	s.srv.Handler.ServeHTTP(rr, req)
	s.Equal("probe-1", rr.Header().Get(trace.HeaderRequestID))

	s.NotEmpty(s.get("/healthz").Header().Get(trace.HeaderRequestID))
}

func TestRequestIDInContext(t *testing.T) {
	var seen string
	h := trace.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = trace.RequestID(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Len(t, seen, 36)
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv := NewServer(":0", nil, prometheus.NewRegistry())
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, srv.Shutdown(context.Background()))
}
