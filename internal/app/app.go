// Package app assembles the planner from configuration. Every entry point
// (HTTP, CLI, chat gateways) builds one App and drives its Orchestrator.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rahul/outing/internal/agent"
	"github.com/rahul/outing/internal/extract"
	"github.com/rahul/outing/internal/gateway"
	"github.com/rahul/outing/internal/governance"
	"github.com/rahul/outing/internal/integrations/bookmyshow"
	"github.com/rahul/outing/internal/integrations/openmeteo"
	"github.com/rahul/outing/internal/integrations/zomato"
	"github.com/rahul/outing/internal/llm"
	"github.com/rahul/outing/internal/observability"
	"github.com/rahul/outing/internal/orchestrator"
	"github.com/rahul/outing/internal/planner"
	"github.com/rahul/outing/internal/prompts"
	"github.com/rahul/outing/internal/search"
	"github.com/rahul/outing/internal/server"
	"github.com/rahul/outing/internal/store"
	"github.com/rahul/outing/pkg/config"
)

type App struct {
	Config       *config.Config
	Log          observability.Logger
	Metrics      *observability.Metrics
	Gatherer     prometheus.Gatherer
	Prompts      *prompts.Manager
	Agents       *agent.Registry
	Orchestrator *orchestrator.Orchestrator
	History      *store.HistoryStore
	Weather      *openmeteo.Client

	closers []func()
}

// New wires every component described by cfg. Close releases what New
// opened.
func New(ctx context.Context, cfg *config.Config, log observability.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if log == nil {
		log = observability.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &App{Config: cfg, Log: log}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = observability.NewMetrics(reg)
	a.Gatherer = reg

	a.Prompts = prompts.NewManager(a.path(cfg.Prompts.Directory))
	if err := a.Prompts.Load(); err != nil {
		return nil, err
	}
	if names := a.Prompts.Overridden(); len(names) > 0 {
		log.Info("prompt overrides loaded", observability.Fields{"prompts": names})
	}

	completer, err := a.completer(ctx)
	if err != nil {
		return nil, err
	}

	extractor, err := a.extractor(ctx, completer)
	if err != nil {
		a.Close()
		return nil, err
	}

	history, err := store.NewHistoryStore(a.path(cfg.Memory.Path))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	a.History = history
	a.closers = append(a.closers, func() { _ = history.Close() })

	a.Agents = agent.NewRegistry(a.agents(completer, extractor)...)

	p := planner.New(completer, a.Prompts, log)
	if cfg.Limits.PlannerTemperature > 0 {
		p.Temperature = cfg.Limits.PlannerTemperature
	}
	a.Orchestrator = orchestrator.New(p, a.Agents, history, log, a.Metrics)

	log.Info("planner ready", observability.Fields{
		"provider":   completer.Label(),
		"extraction": extractor.Name(),
		"agents":     a.Agents.Names(),
	})
	return a, nil
}

// path resolves a relative path against the workspace directory.
func (a *App) path(p string) string {
	ws := a.Config.App.Workspace
	if p == "" || ws == "" || filepath.IsAbs(p) || p == ":memory:" {
		return p
	}
	return filepath.Join(ws, p)
}

func (a *App) completer(ctx context.Context) (*llm.LangChain, error) {
	name, pCfg := a.Config.GetDefaultProvider()

	var transcript llm.Transcript
	if path := a.Config.Logging.TranscriptPath; path != "" {
		transcript = observability.NewTranscriptFile(a.path(path), a.Config.Logging.TranscriptMaxBytes, a.Log)
	}
	return llm.NewCompleter(ctx, llm.ProviderOptions{
		Name:    name,
		APIKey:  pCfg.APIKey,
		Model:   pCfg.Model,
		BaseURL: pCfg.BaseURL,
	}, transcript)
}

// extractor builds the configured backend behind the deny policy.
func (a *App) extractor(ctx context.Context, completer llm.Completer) (extract.Extractor, error) {
	cfg := a.Config.Extraction

	var ext extract.Extractor
	switch cfg.Backend {
	case config.BackendFirecrawl:
		f := extract.NewFirecrawl(cfg.Firecrawl.APIKey)
		if cfg.Firecrawl.Endpoint != "" {
			f.Endpoint = cfg.Firecrawl.Endpoint
		}
		if cfg.Firecrawl.TimeoutMS > 0 {
			f.TimeoutMS = cfg.Firecrawl.TimeoutMS
			f.Client.Timeout = time.Duration(cfg.Firecrawl.TimeoutMS)*time.Millisecond + 30*time.Second
		}
		ext = f
	case config.BackendPage:
		fetcher := extract.NewHTTPFetcher()
		if cfg.UserAgent != "" {
			fetcher.UserAgent = cfg.UserAgent
		}
		ext = extract.NewPageExtractor(config.BackendPage, fetcher, completer)
	case config.BackendBrowser:
		fetcher := extract.NewBrowserFetcher()
		a.closers = append(a.closers, fetcher.Close)
		ext = extract.NewPageExtractor(config.BackendBrowser, fetcher, completer)
	default:
		return nil, fmt.Errorf("unknown extraction backend %q", cfg.Backend)
	}
	if cache := a.cache(ctx); cache != nil {
		ext = extract.WithCache(ext, cache, a.Config.Cache.TTL, a.Log)
	}

	policy := governance.NewDefaultPolicyEngine()
	for _, backend := range cfg.DeniedBackends {
		policy.DenyBackend(backend)
	}
	for _, host := range cfg.DeniedHosts {
		policy.DenyHost(host)
	}
	for _, pattern := range cfg.DeniedPatterns {
		if err := policy.DenyURLPattern(pattern); err != nil {
			return nil, fmt.Errorf("invalid denied pattern %q: %w", pattern, err)
		}
	}
	return extract.Guard(ext, policy), nil
}

// cache connects the extraction cache. An unreachable Redis disables it.
func (a *App) cache(ctx context.Context) extract.Cache {
	cfg := a.Config.Cache
	if !cfg.Enabled {
		return nil
	}
	cache := store.NewRedisCache(cfg.Address, cfg.Password, cfg.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		a.Log.WithError(err).Warn("extraction cache disabled", observability.Fields{"address": cfg.Address})
		_ = cache.Close()
		return nil
	}
	a.closers = append(a.closers, func() { _ = cache.Close() })
	return cache
}

func (a *App) agents(completer llm.Completer, extractor extract.Extractor) []agent.Agent {
	cfg := a.Config
	deps := agent.Deps{
		Completer:   completer,
		Prompts:     a.Prompts,
		Log:         a.Log,
		Metrics:     a.Metrics,
		Temperature: cfg.Limits.AgentTemperature,
	}
	region := &extract.Region{Country: cfg.Extraction.Region.Country, Languages: cfg.Extraction.Region.Languages}

	movies := bookmyshow.NewClient(extractor)
	movies.Region = region
	movies.MovieLimit = cfg.Limits.Movies

	restaurants := zomato.NewClient(extractor)
	restaurants.Region = region
	restaurants.Limit = cfg.Limits.Restaurants

	webDeps := deps
	webDeps.Temperature = cfg.Limits.WebSearchTemperature
	var searcher search.Searcher
	if cfg.Search.Enabled {
		ddg, err := search.NewDuckDuckGo(cfg.Search.MaxResults)
		if err != nil {
			a.Log.WithError(err).Warn("web search grounding disabled", nil)
		} else {
			searcher = ddg
		}
	}
	web := agent.NewWebSearchAgent(searcher, webDeps)
	if cfg.Limits.Findings > 0 {
		web.Limit = cfg.Limits.Findings
	}

	var weatherSource agent.WeatherSource
	if cfg.Weather.Enabled {
		a.Weather = openmeteo.NewClient()
		if cfg.Weather.GeocodeURL != "" {
			a.Weather.GeocodeURL = cfg.Weather.GeocodeURL
		}
		if cfg.Weather.ForecastURL != "" {
			a.Weather.ForecastURL = cfg.Weather.ForecastURL
		}
		weatherSource = a.Weather
	}

	return []agent.Agent{
		agent.NewMovieAgent(movies, deps),
		agent.NewRestaurantAgent(restaurants, deps),
		web,
		agent.NewWeatherAgent(weatherSource, deps),
	}
}

// WatchPrompts reloads prompt overrides on change when enabled.
func (a *App) WatchPrompts(ctx context.Context) {
	if !a.Config.Prompts.Watch || a.Prompts.Directory == "" {
		return
	}
	log := a.Log.With(observability.Fields{"directory": a.Prompts.Directory})
	err := a.Prompts.Watch(ctx, func(err error) {
		log.WithError(err).Warn("prompt reload failed", nil)
	})
	if err != nil {
		log.WithError(err).Warn("prompt watch unavailable", nil)
		return
	}
	log.Info("watching prompts", nil)
}

// Server builds the HTTP API.
func (a *App) Server() *server.Server {
	opts := server.Options{
		Plans:        a.Orchestrator,
		History:      a.History,
		Agents:       a.Agents.Names(),
		AllowOrigins: a.Config.Server.AllowOrigins,
		Gatherer:     a.Gatherer,
		Log:          a.Log,
	}
	if a.Weather != nil {
		opts.Weather = a.Weather
	}
	return server.New(opts)
}

// Addr is the HTTP listen address.
func (a *App) Addr() string {
	return ":" + strconv.Itoa(a.Config.Server.Port)
}

// Conversation builds the chat front end shared by the gateways.
func (a *App) Conversation() *gateway.Conversation {
	return gateway.NewConversation(a.Orchestrator, a.History, a.Log)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
