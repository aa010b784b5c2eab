// Package server exposes pattern matching over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/wasilibs/go-rx"
	"github.com/wasilibs/go-rx/internal/config"
	"github.com/wasilibs/go-rx/internal/log"
)

// PatternRequest names a pattern and the text to run it on. Empty backend, syntax and
// engine fall back to the server configuration.
type PatternRequest struct {
	Pattern string `json:"pattern"`
	Backend string `json:"backend,omitempty"`
	Syntax  string `json:"syntax,omitempty"`
	Engine  string `json:"engine,omitempty"`
	Text    string `json:"text"`
}

type GsubRequest struct {
	PatternRequest
	// Exactly one of Template and Lookup is set.
	Template *string          `json:"template,omitempty"`
	Lookup   map[string]string `json:"lookup,omitempty"`
	// Limit caps the number of replacements if set.
	Limit *int `json:"limit,omitempty"`
}

type Group struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type MatchResponse struct {
	Matched bool    `json:"matched"`
	Groups  []Group `json:"groups,omitempty"`
}

type GmatchResponse struct {
	Matches [][]Group `json:"matches"`
}

type GsubResponse struct {
	Result string `json:"result"`
	Count  int    `json:"count"`
}

type Server struct {
	Echo *echo.Echo
	cfg  *config.Config
}

func New(cfg *config.Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger)

	s := &Server{Echo: e, cfg: cfg}
	e.GET("/healthz", s.healthz)
	e.POST("/v1/match", s.match)
	e.POST("/v1/gmatch", s.gmatch)
	e.POST("/v1/gsub", s.gsub)
	return s
}

// Start serves on the configured listen address until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("listen", s.cfg.Listen).Msg("serving rx playground")
	if err := s.Echo.Start(s.cfg.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		ev := log.Debug()
		if c.Response().Status >= http.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", c.Request().Method).
			Str("path", c.Path()).
			Int("status", c.Response().Status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return nil
	}
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"engines": rx.Engines(),
	})
}

func (s *Server) compile(req *PatternRequest) (*rx.Pattern, error) {
	cfg := *s.cfg
	if req.Backend != "" {
		cfg.Backend = req.Backend
	}
	if req.Syntax != "" {
		cfg.Syntax = req.Syntax
	}
	if req.Engine != "" {
		cfg.Engine = req.Engine
	}
	p, err := cfg.Compile(req.Pattern)
	if err != nil {
		return nil, httpError(err)
	}
	return p, nil
}

// httpError maps pattern errors to 422 and argument errors to 400.
func httpError(err error) error {
	var (
		ce *rx.CompileError
		te *rx.TemplateError
		ie *rx.IndexError
	)
	switch {
	case errors.As(err, &ce), errors.As(err, &te), errors.As(err, &ie), errors.Is(err, rx.ErrTooFewGroups):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func groups(m *rx.Match) []Group {
	ranges := m.Ranges()
	gs := make([]Group, len(ranges)/2)
	for i := range gs {
		gs[i] = Group{Index: i, Start: ranges[2*i], End: ranges[2*i+1]}
		gs[i].Text, _ = m.Group(i)
	}
	return gs
}

func (s *Server) match(c echo.Context) error {
	var req PatternRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	p, err := s.compile(&req)
	if err != nil {
		return err
	}
	m := p.Match(req.Text)
	resp := MatchResponse{Matched: m.Matches()}
	if resp.Matched {
		resp.Groups = groups(m)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) gmatch(c echo.Context) error {
	var req PatternRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	p, err := s.compile(&req)
	if err != nil {
		return err
	}
	resp := GmatchResponse{Matches: [][]Group{}}
	for it := p.Gmatch(req.Text); it.Next(); {
		resp.Matches = append(resp.Matches, groups(it.Match()))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) gsub(c echo.Context) error {
	var req GsubRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	var repl rx.Replacement
	switch {
	case req.Template != nil && req.Lookup == nil:
		repl = rx.Template(*req.Template)
	case req.Lookup != nil && req.Template == nil:
		repl = rx.Lookup(req.Lookup)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "exactly one of template and lookup is required")
	}

	p, err := s.compile(&req.PatternRequest)
	if err != nil {
		return err
	}
	limit := -1
	if req.Limit != nil {
		limit = *req.Limit
	}
	result, count, err := p.GsubN(req.Text, repl, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, GsubResponse{Result: result, Count: count})
}
