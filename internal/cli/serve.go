package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/buildinfo"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/cache"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/config"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
	ngvio "github.com/BlueBrain/ArchNGV-sub001/pkg/io"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/observability"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/pipeline"
)

const (
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 30 * time.Second

	// maxRequestBytes bounds placement request bodies. Volumes are referenced
	// by path, so requests stay small.
	maxRequestBytes = 1 << 20

	// A 528×320×456 atlas at 25 µm is 77M voxels.
	defaultMaxVoxels = 1 << 27
	defaultMaxCells  = 5_000_000
)

type serveOpts struct {
	addr            string
	dataDir         string
	shutdownTimeout time.Duration
	maxVoxels       int
	maxCells        int
	cache           cacheFlags
}

// limits bounds what a single request may allocate. Detached NRRD data
// must stay beside its header inside the data directory.
func (o serveOpts) limits() pipeline.Limits {
	return pipeline.Limits{MaxVoxels: o.maxVoxels, MaxCells: o.maxCells, ConfineDataFiles: true}
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:            defaultAddr,
		shutdownTimeout: defaultShutdownTimeout,
		maxVoxels:       defaultMaxVoxels,
		maxCells:        defaultMaxCells,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve placements over HTTP",
		Long: `Serve placements over HTTP.

  POST /v1/placements   run a placement recipe sent as JSON
  GET  /healthz         liveness and build information
  GET  /metrics         Prometheus metrics

Density and obstacle paths in requests are resolved below --data-dir.
Requests whose density exceeds --max-voxels or asks for more than
--max-cells somata are rejected before any volume is allocated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "directory served density and obstacle files are read from")
	cmd.Flags().IntVar(&opts.maxVoxels, "max-voxels", opts.maxVoxels, "largest density volume a request may use (0 = unlimited)")
	cmd.Flags().IntVar(&opts.maxCells, "max-cells", opts.maxCells, "most somata a request may place (0 = unlimited)")
	cmd.Flags().DurationVar(&opts.shutdownTimeout, "shutdown-timeout", opts.shutdownTimeout, "grace period for in-flight requests")
	addCacheFlags(cmd, &opts.cache)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	registerMetrics()
	defer observability.Reset()

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           newServer(runner, opts.dataDir, opts.limits(), c.Logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	printKeyValue("address", opts.addr)
	printKeyValue("data dir", orDash(opts.dataDir))
	if opts.cache.noCache {
		printKeyValue("cache", "disabled")
	} else {
		dir, _ := cacheDir()
		printKeyValue("cache", cache.Describe(opts.cache.url, dir))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Logger.Info("starting server", "addr", srv.Addr)
		switch err := srv.ListenAndServe(); err {
		case nil, http.ErrServerClosed:
			return nil
		default:
			return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", srv.Addr)
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		c.Logger.Info("stopping server", "addr", srv.Addr)
		sctx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// =============================================================================
// Server
// =============================================================================

type server struct {
	runner  *pipeline.Runner
	dataDir string
	limits  pipeline.Limits
	logger  *log.Logger
}

func newServer(runner *pipeline.Runner, dataDir string, limits pipeline.Limits, logger *log.Logger) *server {
	return &server{runner: runner, dataDir: dataDir, limits: limits, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/placements", s.handlePlace)
	})
	return r
}

// observe attaches a request-scoped logger and reports every response to
// the HTTP hooks.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(withLogger(r.Context(), logger)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		d := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, d)
		logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", d)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

// placementRequest is a recipe sent over HTTP. Output.Path is ignored; the
// placement is written to the response in Output.Format.
type placementRequest struct {
	config.Recipe
	Refresh bool `json:"refresh"`
}

func (s *server) handlePlace(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r.Context())

	var req placementRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, logger, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	recipe := &req.Recipe
	if err := s.resolvePaths(recipe); err != nil {
		writeError(w, logger, err)
		return
	}
	recipe.Output.Path = ""

	res, err := s.runner.Execute(r.Context(), pipeline.Options{
		Recipe:     recipe,
		Refresh:    req.Refresh,
		SkipExport: true,
		Limits:     s.limits,
		Logger:     logger,
	})
	if err != nil {
		writeError(w, logger, err)
		return
	}

	contentType := "application/json"
	if recipe.Output.Format == ngvio.FormatCSV {
		contentType = "text/csv"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Run-ID", res.RunID)
	w.Header().Set("X-Cache", cacheStatus(res.CacheHit))
	if err := ngvio.Write(w, recipe.Output.Format, res.Placement); err != nil {
		logger.Warn("write response", "err", err)
	}
}

// resolvePaths confines request paths to the data directory.
func (s *server) resolvePaths(r *config.Recipe) error {
	for _, p := range []*string{&r.Density.Path, &r.Obstacles.Path} {
		if *p == "" {
			continue
		}
		if s.dataDir == "" {
			return errors.New(errors.ErrCodeInvalidPath, "server has no data directory; send a uniform density")
		}
		if err := errors.ValidatePath(*p); err != nil {
			return err
		}
		*p = filepath.Join(s.dataDir, *p)
	}
	return nil
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// statusOf maps an error to its HTTP status.
func statusOf(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeExhausted, errors.ErrCodeNumericalDomain:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("placement failed", "err", err)
	} else {
		logger.Debug("placement rejected", "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: errors.UserMessage(err)},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
