// Package server exposes the planner over HTTP with echo.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rahul/outing/internal/integrations/openmeteo"
	"github.com/rahul/outing/internal/observability"
	"github.com/rahul/outing/internal/orchestrator"
	"github.com/rahul/outing/internal/outing"
	"github.com/rahul/outing/internal/store"
)

// Planner runs plans and single agents, satisfied by
// *orchestrator.Orchestrator.
type Planner interface {
	RunPlan(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error)
	RunAgent(ctx context.Context, name outing.Subtask, req orchestrator.AgentRequest) (outing.AgentResult, error)
}

// History is the read side of the plan store.
type History interface {
	ListPlans(ctx context.Context, userID string, limit int) ([]store.PlanRecord, error)
	GetPlan(ctx context.Context, id string) (*store.PlanRecord, error)
	DeletePlan(ctx context.Context, id string) error
}

// Weather reports day-part weather, satisfied by *openmeteo.Client.
type Weather interface {
	DayWeather(ctx context.Context, city, date string) (openmeteo.DayWeather, error)
}

type Options struct {
	Plans        Planner
	History      History
	Weather      Weather
	Agents       []string
	AllowOrigins []string
	Gatherer     prometheus.Gatherer
	Log          observability.Logger
}

type Server struct {
	Echo *echo.Echo

	plans   Planner
	history History
	weather Weather
	agents  []string
	log     observability.Logger
}

const planNotFound = "Search not found."

func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = observability.NewNopLogger()
	}
	s := &Server{
		Echo:    echo.New(),
		plans:   opts.Plans,
		history: opts.History,
		weather: opts.Weather,
		agents:  opts.Agents,
		log:     log.Event(observability.EventHTTP),
	}

	e := s.Echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = s.handleError
	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType},
		AllowCredentials: true,
	}))
	e.Use(s.requestLog)

	e.GET("/healthz", s.health)
	metrics := promhttp.Handler()
	if opts.Gatherer != nil {
		metrics = promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
	}
	e.GET("/metrics", echo.WrapHandler(metrics))

	api := e.Group("/api")
	api.POST("/plan", s.createPlan)
	api.POST("/movies", s.movies)
	api.POST("/restaurants", s.restaurants)
	api.GET("/weather", s.dayWeather)

	history := api.Group("/history")
	history.GET("", s.listHistory)
	history.GET("/:id", s.getHistory)
	history.DELETE("/:id", s.deleteHistory)

	return s
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("http server listening", observability.Fields{"addr": addr})
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

// statusOf maps an error onto its HTTP status and public message.
func statusOf(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, msg
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, planNotFound
	}
	var miss *openmeteo.CityNotFoundError
	if errors.As(err, &miss) {
		return http.StatusNotFound, err.Error()
	}
	switch outing.CodeOf(err) {
	case outing.CodeValidation:
		return http.StatusBadRequest, err.Error()
	case outing.CodePlannerFatal:
		return http.StatusBadGateway, err.Error()
	}
	return http.StatusInternalServerError, err.Error()
}

func (s *Server) handleError(err error, c echo.Context) {
	code, msg := statusOf(err)
	req := c.Request()
	fields := observability.Fields{
		"status": code,
		"method": req.Method,
		"path":   req.URL.Path,
		"remote": c.RealIP(),
	}
	if code >= http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed", fields)
	} else {
		s.log.WithError(err).Warn("request rejected", fields)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"status": "error", "message": msg})
	}
}

func (s *Server) requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.log.Debug("request served", observability.Fields{
			"method":     c.Request().Method,
			"path":       c.Path(),
			"status":     c.Response().Status,
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"system": observability.GetStatus(),
		"agents": s.agents,
	})
}
