package stub

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/songquanpeng/hamming-ci/common"
	"github.com/songquanpeng/hamming-ci/common/ctxkey"
	"github.com/songquanpeng/hamming-ci/common/graceful"
	"github.com/songquanpeng/hamming-ci/common/random"
	"github.com/songquanpeng/hamming-ci/middleware"
	"github.com/songquanpeng/hamming-ci/model"
	"github.com/songquanpeng/hamming-ci/relay/schema"
)

// Options configures the stub API.
type Options struct {
	// APIKey is the bearer token the stub expects. Empty accepts any token.
	APIKey string
	// Schema selects the wire shape of results payloads, one of the relay/schema constants.
	Schema int
	// Statuses is the sequence a run walks through, one step per status request.
	// The last entry repeats forever.
	Statuses []model.RunStatus
	// RunTTL is how long a run stays addressable.
	RunTTL time.Duration
	// UIBaseURL prefixes the resultsUrl returned on creation.
	UIBaseURL string
}

func (o *Options) fillDefaults() {
	if len(o.Statuses) == 0 {
		o.Statuses = []model.RunStatus{
			model.RunStatusCreated,
			model.RunStatusRunning,
			model.RunStatusScoring,
			model.RunStatusCompleted,
		}
	}
	if o.RunTTL <= 0 {
		o.RunTTL = time.Hour
	}
	if o.UIBaseURL == "" {
		o.UIBaseURL = "http://localhost"
	}
	if o.Schema < 0 || o.Schema >= schema.Dummy {
		o.Schema = schema.Results
	}
}

// Server is an in-memory stand-in for the Hamming test run API.
type Server struct {
	opts     Options
	runs     *cache.Cache
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

func New(opts Options) *Server {
	opts.fillDefaults()
	s := &Server{
		opts:     opts,
		runs:     cache.New(opts.RunTTL, 2*opts.RunTTL),
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hamming_stub_requests_total",
			Help: "Requests served by the stub API, by route and status code.",
		}, []string{"route", "code"}),
	}
	s.registry.MustRegister(s.requests)
	return s
}

// NewRouter builds the gin engine serving the stub under /api/rest.
func NewRouter(s *Server, logger glog.Logger, logLevel string) *gin.Engine {
	server := gin.New()
	server.RedirectTrailingSlash = false
	server.Use(
		middleware.PanicRecover(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(logLevel),
			gmw.WithLogger(logger.Named("gin")),
		),
		graceful.GinRequestTracker(),
		middleware.RequestId(),
		s.countRequests(),
	)

	server.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	server.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := server.Group("/api/rest", middleware.BearerAuth(s.opts.APIKey))
	api.POST("/test-runs/test-inbound-agent", s.createTestRun)
	api.GET("/test-runs/:id/status", s.getStatus)
	api.GET("/test-runs/:id/results", s.getResults)
	return server
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (s *Server) createTestRun(c *gin.Context) {
	var req model.CreateTestRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}
	if err := common.Validate.Struct(&req); err != nil {
		middleware.AbortWithError(c, http.StatusUnprocessableEntity, err)
		return
	}

	r := &run{
		id:       random.NewRunID(),
		request:  req,
		statuses: s.opts.Statuses,
	}
	r.cases = expandCases(r.id, &req)
	s.runs.Set(r.id, r, cache.DefaultExpiration)

	gmw.GetLogger(c).Info("test run created",
		zap.String(ctxkey.RunId, r.id),
		zap.String("agent_id", req.AgentID),
		zap.Int("test_cases", len(r.cases)))

	queued := make([]model.QueuedTestCaseRun, 0, len(r.cases))
	for _, tc := range r.cases {
		queued = append(queued, model.QueuedTestCaseRun{
			TestCaseRunID: tc.ID,
			TestCaseID:    tc.TestCaseID,
			Status:        model.TestCaseStatusPending,
		})
	}
	c.JSON(http.StatusCreated, model.TestRunResponse{
		TestRunID:    r.id,
		ResultsURL:   s.opts.UIBaseURL + "/test-runs/" + r.id,
		TestCaseRuns: queued,
	})
}

func (s *Server) lookup(c *gin.Context) (*run, bool) {
	id := c.Param("id")
	c.Set(ctxkey.RunId, id)
	v, ok := s.runs.Get(id)
	if !ok {
		middleware.AbortWithError(c, http.StatusNotFound, errors.Errorf("test run %q not found", id))
		return nil, false
	}
	return v.(*run), true
}

func (s *Server) getStatus(c *gin.Context) {
	r, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": r.nextStatus()})
}

func (s *Server) getResults(c *gin.Context) {
	r, ok := s.lookup(c)
	if !ok {
		return
	}
	status, cases := r.snapshot()
	c.JSON(http.StatusOK, renderResults(s.opts.Schema, r.id, status, cases))
}
