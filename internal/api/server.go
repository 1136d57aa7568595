// Package api serves the books over a JSON HTTP API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cleared-dev/registru/internal/auditlog"
	"github.com/cleared-dev/registru/internal/buildinfo"
	"github.com/cleared-dev/registru/internal/config"
	"github.com/cleared-dev/registru/internal/ledger"
	"github.com/cleared-dev/registru/internal/logging"
)

// Server holds the HTTP handlers.
type Server struct {
	books  *ledger.Books
	audit  *auditlog.Log
	fiscal config.FiscalConfig
	log    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAuditLog records every successful mutation in l.
func WithAuditLog(l *auditlog.Log) Option { return func(s *Server) { s.audit = l } }

// WithFiscalYear sets the fiscal year used for default report periods.
func WithFiscalYear(f config.FiscalConfig) Option { return func(s *Server) { s.fiscal = f } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.log = l } }

// NewServer creates a Server over books.
func NewServer(books *ledger.Books, opts ...Option) *Server {
	s := &Server{books: books}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.books.Metrics != nil {
		r.Use(metricsMiddleware(s.books.Metrics))
		r.GET("/metrics", gin.WrapH(s.books.Metrics.Handler()))
	}
	r.Use(requestLogger(s.log), errorHandler(s.log))
	r.NoRoute(noRoute)

	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		acc := v1.Group("/accounts")
		acc.GET("", wrap(s.listAccounts))
		acc.POST("", wrap(s.createAccount))
		acc.GET("/:id", wrap(s.getAccount))
		acc.POST("/:id/deactivate", wrap(s.deactivateAccount))
		acc.POST("/:id/reactivate", wrap(s.reactivateAccount))
		acc.GET("/:id/balance", wrap(s.accountBalance))

		ent := v1.Group("/entries")
		ent.GET("", wrap(s.listEntries))
		ent.POST("", wrap(s.postEntry))
		ent.GET("/:number", wrap(s.getEntry))
		ent.POST("/:number/reverse", wrap(s.reverseEntry))

		rep := v1.Group("/reports")
		rep.GET("/trial-balance", wrap(s.trialBalance))
		rep.GET("/income-statement", wrap(s.incomeStatement))
		rep.GET("/balance-sheet", wrap(s.balanceSheet))
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	if err := s.books.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) record(action, subject, details string) {
	if err := s.audit.Record(action, subject, details); err != nil {
		s.log.Error("writing audit log", "action", action, "subject", subject, "error", err)
	}
}
