// Package server exposes charting sessions over HTTP.
//
// Every request builds its own [session.Session] from the shared raw table: the widget values travel
// in the "widgets" query parameter and an optional "preset" parameter. The shared raw table may be
// replaced by posting a new data source.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/fredbi/pivotviz/internal/pkg/config"
	"github.com/fredbi/pivotviz/internal/pkg/export"
	"github.com/fredbi/pivotviz/internal/pkg/session"
	"github.com/fredbi/pivotviz/internal/pkg/source"
	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/fredbi/pivotviz/internal/pkg/view"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Query parameters.
const (
	// PresetParam selects a preset.
	PresetParam = "preset"
	// FileParam names a posted data source. Its extension tells the format when none is given.
	FileParam = "file"
	// FormatParam sets the format of a posted data source.
	FormatParam = "format"
)

// Server serves chart pages and the derived data of a raw table.
type Server struct {
	options

	cfg *config.Config
	e   *echo.Echo
	l   *slog.Logger

	mx  sync.RWMutex
	raw *table.Table
	cls table.Classification
}

// New [Server] for a raw table. The raw table is classified once and never modified.
func New(cfg *config.Config, raw *table.Table, opts ...Option) *Server {
	s := &Server{
		options: optionsWithDefaults(opts),
		cfg:     cfg,
		raw:     raw,
		cls:     table.Classify(raw, cfg.Classifier.Thresholds()),
		e:       echo.New(),
		l:       slog.Default().With(slog.String("module", "server")),
	}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(middleware.Recover())
	s.e.Use(s.requestLogger())
	s.registerRoutes()

	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start listens on the configured address until the context is done.
func (s *Server) Start(ctx context.Context) error {
	address := s.cfg.Server.Address
	errc := make(chan error, 1)

	go func() {
		errc <- s.e.Start(address)
	}()

	s.l.Info("server started", slog.String("address", address))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server %q: %w", address, err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()

		s.l.Info("server shutting down")

		return s.e.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.e.GET("/", s.getPage)

	api := s.e.Group("/api")
	api.GET("/widgets", s.getWidgets)
	api.GET("/controls", s.getControls)
	api.GET("/classification", s.getClassification)
	api.GET("/data", s.getData)
	api.GET("/export", s.getExport)
	api.POST("/source", s.postSource)
}

// source returns the current raw table and its classification.
func (s *Server) source() (*table.Table, table.Classification) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return s.raw, s.cls
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				s.l.LogAttrs(context.Background(), slog.LevelWarn, "request failed", attrs...)

				return nil
			}

			s.l.LogAttrs(context.Background(), slog.LevelInfo, "request", attrs...)

			return nil
		},
	})
}

// session builds the session of a request. Invalid widget values are client errors.
func (s *Server) session(c echo.Context) (*session.Session, error) {
	layer, err := view.DecodeURL(c.QueryParam(view.URLParam))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	raw, cls := s.source()
	sess := session.New(s.cfg, raw, session.WithClassification(cls))

	preset := c.QueryParam(PresetParam)
	if preset == "" {
		preset = s.preset
	}

	if preset != "" {
		err = sess.ApplyPreset(preset, layer)
	} else {
		err = sess.Apply(layer)
	}

	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return sess, nil
}

func (s *Server) getPage(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := sess.Page().Render(&buf); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

type widgetsResponse struct {
	Widgets  map[string]any `json:"widgets"`
	Query    string         `json:"query"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (s *Server) getWidgets(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	return s.widgets(c, sess)
}

func (s *Server) widgets(c echo.Context, sess *session.Session) error {
	query, err := view.EncodeURL(sess.Widgets())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, widgetsResponse{
		Widgets:  sess.Widgets().Map(),
		Query:    view.URLParam + "=" + query,
		Warnings: sess.View().Warnings,
	})
}

func (s *Server) getControls(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sess.Controls())
}

func (s *Server) getClassification(c echo.Context) error {
	_, cls := s.source()

	return c.JSON(http.StatusOK, cls)
}

func (s *Server) getData(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sess.Derived())
}

type exportResponse struct {
	File string `json:"file"`
	Rows int    `json:"rows"`
}

func (s *Server) getExport(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	file, err := sess.Export()
	if err != nil {
		if errors.Is(err, export.ErrNoOutputDir) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}

		return err
	}

	return c.JSON(http.StatusOK, exportResponse{File: file, Rows: sess.Derived().Len()})
}

// postSource replaces the raw table by the data posted in the request body.
//
// The new source is checked against the requested widgets, with column selections reset,
// before it is shared with later requests.
func (s *Server) postSource(c echo.Context) error {
	format := config.DataFormat(strings.ToLower(c.QueryParam(FormatParam)))
	if format == config.DataFormatAuto {
		format = s.cfg.Data.Format
	}

	if !format.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("unsupported format %q (should be one of %v)", format, config.AllDataFormats()),
		)
	}

	name := c.QueryParam(FileParam)
	if name == "" {
		name = "upload"
	}

	opts := append([]source.Option{source.WithFormat(format)}, s.sourceOptions...)
	raw, err := source.New(opts...).Load(name, c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sess, err := s.session(c)
	if err != nil {
		return err
	}

	if err := sess.SetSource(raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	s.mx.Lock()
	s.raw = raw
	s.cls = sess.Classification()
	s.mx.Unlock()

	s.l.Info("data source replaced", slog.String("file", name), slog.Int("rows", raw.Len()))

	return s.widgets(c, sess)
}
