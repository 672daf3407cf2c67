// Package stub is an in-memory stand-in for the health-agent backend. It
// implements the endpoints the suites call so they can run without the real
// service, and lets tests inject faults per path.
package stub

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/apismoke/internal/auth/jwt"
	"github.com/loykin/apismoke/internal/common"
	"github.com/loykin/apismoke/internal/constants"
)

// DefaultSecret signs tokens when Options.Secret is empty.
const DefaultSecret = "apismoke-stub-secret"

const claimsKey = "claims"

type Options struct {
	Username string
	Password string
	Secret   string
	UserID   int64
	TokenTTL time.Duration
}

// Fault replaces the response of one path with a fixed status and body.
type Fault struct {
	Status      int
	Body        string
	ContentType string
}

// Server is the stub backend. The zero value is not usable; call New.
type Server struct {
	opts   Options
	engine *gin.Engine
	logger *common.Logger

	mu       sync.Mutex
	faults   map[string]Fault
	reports  map[int64]*report
	weights  map[int64]*weightRecord
	nextID   int64
	requests map[string]int
}

func New(opts Options) *Server {
	if opts.Username == "" {
		opts.Username = constants.DefaultUsername
	}
	if opts.Password == "" {
		opts.Password = constants.DefaultPassword
	}
	if opts.Secret == "" {
		opts.Secret = DefaultSecret
	}
	if opts.UserID == 0 {
		opts.UserID = constants.DefaultUserID
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		opts:     opts,
		engine:   gin.New(),
		logger:   common.GetLogger().WithComponent("stub"),
		faults:   map[string]Fault{},
		reports:  map[int64]*report{},
		weights:  map[int64]*weightRecord{},
		requests: map[string]int{},
	}
	s.engine.Use(gin.Recovery(), s.accessLog(), s.faultInjector())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET(constants.PathHealth, s.health)
	s.engine.POST(constants.PathAnalyzeFood, s.analyzeFood)
	s.engine.POST(constants.PathAnalyzeUpload, s.analyzeUpload)
	s.engine.POST(constants.PathLogin, s.login)

	authed := s.engine.Group("/api", s.requireToken())
	authed.POST("/nutrition/report/generate", s.generateReport)
	authed.POST("/nutrition/report/list", s.listReports)
	authed.GET("/nutrition/report/:id", s.getReport)
	authed.DELETE("/nutrition/report/:id", s.deleteReport)
	authed.GET("/weight/latest", s.latestWeight)
	authed.POST("/weight/add", s.addWeight)
	authed.POST("/weight/list", s.listWeights)
	authed.GET("/weight/statistics", s.weightStatistics)
	authed.DELETE("/weight/delete/:id", s.deleteWeight)
}

// Handler returns the HTTP handler, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.engine }

// SetFault makes every request to path answer with f until ClearFaults.
func (s *Server) SetFault(path string, f Fault) {
	s.mu.Lock()
	s.faults[path] = f
	s.mu.Unlock()
}

func (s *Server) ClearFaults() {
	s.mu.Lock()
	s.faults = map[string]Fault{}
	s.mu.Unlock()
}

// Requests returns how many requests reached path, including faulted ones.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// Counts returns the number of stored reports and weight records.
func (s *Server) Counts() (reports, weights int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports), len(s.weights)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info("stub backend listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		s.mu.Lock()
		s.requests[c.Request.URL.Path]++
		s.mu.Unlock()
		c.Next()
		s.logger.Debug("request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) faultInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		f, ok := s.faults[c.Request.URL.Path]
		s.mu.Unlock()
		if !ok {
			c.Next()
			return
		}
		ct := f.ContentType
		if ct == "" {
			ct = "application/json"
		}
		status := f.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.Data(status, ct, []byte(f.Body))
		c.Abort()
	}
}

func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(tok) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, failure(http.StatusUnauthorized, "missing bearer token"))
			return
		}
		claims, err := jwt.Verify(s.opts.Secret, strings.TrimSpace(tok))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, failure(http.StatusUnauthorized, "invalid token: "+err.Error()))
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func success(code int, data any) gin.H {
	return gin.H{"code": code, "message": "success", "data": data}
}

func failure(code int, msg string) gin.H {
	return gin.H{"code": code, "message": msg, "data": nil}
}
