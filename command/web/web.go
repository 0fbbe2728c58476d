package web

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"emissions-stats/aggregator"
	cmdimport "emissions-stats/command/import"
	"emissions-stats/command/report"
	"emissions-stats/connectors/config"
	"emissions-stats/connectors/sqlite"
	"emissions-stats/domain/emissions"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
	lo "github.com/samber/lo"
)

// Store is what the API needs from the batch repository.
type Store interface {
	cmdimport.BatchWriter
	report.RecordReader
	ListBatches(ctx context.Context) ([]emissions.FileInfo, error)
	AllRecords(ctx context.Context) ([]emissions.StoredRecord, error)
	DeleteBatch(ctx context.Context, id int64) error
}

// Options configures the API server.
type Options struct {
	UIDir     string
	MaxUpload string
	Columns   map[string][]string
}

// Run starts the Echo web server exposing the emissions API and an optional SPA dashboard.
//
// Usage:
//
//	emissions-stats web [-addr :8080] [-db ./data/emissions.db] [-ui ./ui/dist]
//
// Endpoints:
//
//	GET    /api/files/                   -> uploaded batches, newest first
//	POST   /api/upload-file/             -> multipart "file" (.xlsx or .csv), returns the upload summary
//	GET    /api/files/:id/stats/         -> full report (tiers, sectors, companies, metadata)
//	GET    /api/files/:id/analytics/     -> grouping rows, ?group=company (default) | year | sector | sector,year | company,year
//	DELETE /api/files/:id/delete/        -> removes a batch and its records
//	GET    /api/emissions/?file_id=<id>  -> raw records of one batch, or of all batches
//
// When -ui points to a built Vite app (index.html exists), static files are served at / and
// unknown routes fall back to index.html for SPA routing.
func Run(args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Server.Addr, "http listen address (host:port)")
	dbPath := fs.String("db", cfg.Storage.Path, "sqlite database path")
	uiDir := fs.String("ui", cfg.Server.UIDir, "directory containing built UI (Vite dist)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := New(store, Options{UIDir: *uiDir, MaxUpload: cfg.Server.MaxUpload, Columns: cfg.Columns})
	if err != nil {
		return err
	}
	slog.Info("web.start", "addr", *addr, "db", *dbPath, "ui", *uiDir)
	return e.Start(*addr)
}

// New builds the Echo instance serving the API over store.
// An unparsable MaxUpload is reported instead of reaching echo's body limit middleware.
func New(store Store, opts Options) (*echo.Echo, error) {
	if opts.MaxUpload != "" {
		if _, err := bytes.Parse(opts.MaxUpload); err != nil {
			return nil, fmt.Errorf("invalid max upload %q: %w", opts.MaxUpload, err)
		}
	}
	e := echo.New()
	e.HideBanner = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "request_id", v.RequestID}
			if v.Error != nil {
				slog.Warn("web.request.error", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("web.request", attrs...)
			return nil
		},
	}))
	if opts.MaxUpload != "" {
		e.Use(middleware.BodyLimit(opts.MaxUpload))
	}

	h := &handlers{store: store, columns: opts.Columns}

	// APIs
	e.GET("/api/files", h.listFiles)
	e.POST("/api/upload-file", h.upload)
	e.GET("/api/files/:id/stats", h.stats)
	e.GET("/api/files/:id/analytics", h.analytics)
	e.DELETE("/api/files/:id/delete", h.deleteFile)
	e.GET("/api/emissions", h.records)

	// Static UI (optional)
	if opts.UIDir == "" {
		return e, nil
	}
	indexPath := filepath.Join(opts.UIDir, "index.html")
	if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
		// Serve built assets under /
		e.Static("/", opts.UIDir)
		e.GET("/", func(c echo.Context) error { return c.File(indexPath) })

		// Fallback to index.html for non-API 404s (SPA routing) while keeping static assets working
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
				if !strings.HasPrefix(c.Request().URL.Path, "/api") {
					_ = c.File(indexPath)
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
	return e, nil
}

type handlers struct {
	store   Store
	columns map[string][]string
}

func (h *handlers) listFiles(c echo.Context) error {
	files, err := h.store.ListBatches(c.Request().Context())
	if err != nil {
		return fail(c, err, "failed to list files")
	}
	return c.JSON(http.StatusOK, files)
}

func (h *handlers) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":   "no file uploaded",
			"message": "multipart field \"file\" is required",
		})
	}
	src, err := fh.Open()
	if err != nil {
		return fail(c, err, "failed to read upload")
	}
	defer src.Close()

	summary, err := cmdimport.Ingest(c.Request().Context(), h.store, fh.Filename, src, h.columns)
	if err != nil {
		slog.Warn("web.upload.error", "file", fh.Filename, "error", err)
		return fail(c, err, "failed to import file")
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *handlers) stats(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, err, "invalid file id")
	}
	rep, err := report.Build(c.Request().Context(), h.store, id)
	if err != nil {
		return fail(c, err, "failed to build report")
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *handlers) analytics(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, err, "invalid file id")
	}
	group := c.QueryParam("group")
	if group == "" {
		group = string(aggregator.ByCompany)
	}
	key, err := aggregator.ParseGroupKey(group)
	if err != nil {
		return fail(c, err, "invalid group")
	}
	rows, err := report.GroupBatch(c.Request().Context(), h.store, id, key)
	if err != nil {
		return fail(c, err, "failed to group records")
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *handlers) deleteFile(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, err, "invalid file id")
	}
	if err := h.store.DeleteBatch(c.Request().Context(), id); err != nil {
		return fail(c, err, "failed to delete file")
	}
	slog.Info("web.file.deleted", "file_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) records(c echo.Context) error {
	ctx := c.Request().Context()
	raw := c.QueryParam("file_id")
	if raw == "" {
		all, err := h.store.AllRecords(ctx)
		if err != nil {
			return fail(c, err, "failed to list records")
		}
		return c.JSON(http.StatusOK, all)
	}
	id, err := parseID(raw)
	if err != nil {
		return fail(c, err, "invalid file id")
	}
	recs, err := h.store.Records(ctx, id)
	if err != nil {
		return fail(c, err, "failed to list records")
	}
	return c.JSON(http.StatusOK, recs)
}

func pathID(c echo.Context) (int64, error) { return parseID(c.Param("id")) }

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &emissions.ValidationError{Reason: "invalid id " + strconv.Quote(s)}
	}
	return id, nil
}

// statusFor maps engine and store errors to HTTP statuses.
func statusFor(err error) int {
	var verr *emissions.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, emissions.ErrEmptyDataset):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sqlite.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func fail(c echo.Context, err error, message string) error {
	status := statusFor(err)
	body := map[string]any{
		"error":   err.Error(),
		"message": message,
	}
	var verr *emissions.ValidationError
	if errors.As(err, &verr) && len(verr.Missing) > 0 {
		body["missing_columns"] = lo.Uniq(verr.Missing)
	}
	return c.JSON(status, body)
}
