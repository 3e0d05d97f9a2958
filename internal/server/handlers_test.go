package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/onchain-intel/internal/models"
	"github.com/aman-zulfiqar/onchain-intel/internal/pipeline"
)

type fakeRunner struct {
	gotOpts pipeline.Options
	fail    bool
	calls   int
}

func (f *fakeRunner) Run(_ context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	f.calls++
	f.gotOpts = opts
	if f.fail {
		return nil, fmt.Errorf("synthesize stage: completion model unavailable")
	}
	return &pipeline.Result{ReportDate: "2026-08-31", SourceTag: "daily-intel", TokensUsed: 512}, nil
}

type fakeReportStore struct {
	reports map[string]*models.Report // keyed date|tag
}

func (f *fakeReportStore) SaveReport(_ context.Context, r *models.Report) error {
	if f.reports == nil {
		f.reports = map[string]*models.Report{}
	}
	f.reports[r.ReportDate+"|"+r.SourceTag] = r
	return nil
}

func (f *fakeReportStore) GetReport(_ context.Context, date, tag string) (*models.Report, error) {
	r, ok := f.reports[date+"|"+tag]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return r, nil
}

func (f *fakeReportStore) GetLatestReport(_ context.Context, tag string) (*models.Report, error) {
	var latest *models.Report
	for _, r := range f.reports {
		if r.SourceTag != tag {
			continue
		}
		if latest == nil || r.ReportDate > latest.ReportDate {
			latest = r
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("not found")
	}
	return latest, nil
}

func testHandlers(runner *fakeRunner, reports *fakeReportStore) *Handlers {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &Handlers{
		Pipeline: runner,
		Reports:  reports,
		Logger:   logger,
	}
}

func doRequest(h *Handlers, method, target string, body string, register func(*echo.Echo, *Handlers)) *httptest.ResponseRecorder {
	e := echo.New()
	register(e, h)

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := testHandlers(&fakeRunner{}, &fakeReportStore{})

	rec := doRequest(h, http.MethodGet, "/v1/health", "", func(e *echo.Echo, h *Handlers) {
		e.GET("/v1/health", h.Health)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestRun_HappyPath(t *testing.T) {
	runner := &fakeRunner{}
	h := testHandlers(runner, &fakeReportStore{})

	rec := doRequest(h, http.MethodPost, "/v1/reports/run",
		`{"limitPerProtocol":500,"cleanup":true}`,
		func(e *echo.Echo, h *Handlers) { e.POST("/v1/reports/run", h.Run) })

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 500, runner.gotOpts.LimitPerProtocol)
	assert.True(t, runner.gotOpts.Cleanup)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-08-31", resp.Result.ReportDate)
}

func TestRun_NoBodyUsesDefaults(t *testing.T) {
	runner := &fakeRunner{}
	h := testHandlers(runner, &fakeReportStore{})

	rec := doRequest(h, http.MethodPost, "/v1/reports/run", "",
		func(e *echo.Echo, h *Handlers) { e.POST("/v1/reports/run", h.Run) })

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, runner.gotOpts.LimitPerProtocol) // pipeline clamps to its default
}

func TestRun_LimitOutOfRange(t *testing.T) {
	runner := &fakeRunner{}
	h := testHandlers(runner, &fakeReportStore{})

	for _, body := range []string{
		`{"limitPerProtocol":10}`,
		`{"limitPerProtocol":50000}`,
		`{"limitPerProtocol":-1}`,
	} {
		rec := doRequest(h, http.MethodPost, "/v1/reports/run", body,
			func(e *echo.Echo, h *Handlers) { e.POST("/v1/reports/run", h.Run) })
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	assert.Equal(t, 0, runner.calls)
}

func TestRun_PipelineFailure(t *testing.T) {
	runner := &fakeRunner{fail: true}
	h := testHandlers(runner, &fakeReportStore{})

	rec := doRequest(h, http.MethodPost, "/v1/reports/run", "",
		func(e *echo.Echo, h *Handlers) { e.POST("/v1/reports/run", h.Run) })

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pipeline run failed", resp.Error)
}

func TestRunGET_QueryParams(t *testing.T) {
	runner := &fakeRunner{}
	h := testHandlers(runner, &fakeReportStore{})

	rec := doRequest(h, http.MethodGet, "/v1/reports/run?limit=750&cleanup=true", "",
		func(e *echo.Echo, h *Handlers) { e.GET("/v1/reports/run", h.RunGET) })

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 750, runner.gotOpts.LimitPerProtocol)
	assert.True(t, runner.gotOpts.Cleanup)
}

func TestRunGET_InvalidParams(t *testing.T) {
	runner := &fakeRunner{}
	h := testHandlers(runner, &fakeReportStore{})

	for _, target := range []string{
		"/v1/reports/run?limit=abc",
		"/v1/reports/run?cleanup=maybe",
	} {
		rec := doRequest(h, http.MethodGet, target, "",
			func(e *echo.Echo, h *Handlers) { e.GET("/v1/reports/run", h.RunGET) })
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
	assert.Equal(t, 0, runner.calls)
}

func TestLatestReport_StoreFallback(t *testing.T) {
	reports := &fakeReportStore{}
	_ = reports.SaveReport(context.Background(), &models.Report{ReportDate: "2026-08-30", SourceTag: "daily-intel"})
	_ = reports.SaveReport(context.Background(), &models.Report{ReportDate: "2026-08-31", SourceTag: "daily-intel"})
	h := testHandlers(&fakeRunner{}, reports)

	// No cache configured: the handler reads straight from the store
	rec := doRequest(h, http.MethodGet, "/v1/reports/latest", "",
		func(e *echo.Echo, h *Handlers) { e.GET("/v1/reports/latest", h.LatestReport) })

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2026-08-31", got.ReportDate)
}

func TestLatestReport_NotFound(t *testing.T) {
	h := testHandlers(&fakeRunner{}, &fakeReportStore{})

	rec := doRequest(h, http.MethodGet, "/v1/reports/latest?tag=nothing-here", "",
		func(e *echo.Echo, h *Handlers) { e.GET("/v1/reports/latest", h.LatestReport) })

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportByKey(t *testing.T) {
	reports := &fakeReportStore{}
	_ = reports.SaveReport(context.Background(), &models.Report{ReportDate: "2026-08-31", SourceTag: "daily-intel"})
	h := testHandlers(&fakeRunner{}, reports)

	register := func(e *echo.Echo, h *Handlers) { e.GET("/v1/reports/:date/:tag", h.ReportByKey) }

	rec := doRequest(h, http.MethodGet, "/v1/reports/2026-08-31/daily-intel", "", register)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/v1/reports/2026-08-31/unknown-tag", "", register)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(h, http.MethodGet, "/v1/reports/not-a-date/daily-intel", "", register)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlagsHandlers_KeyValidation(t *testing.T) {
	// Validation fires before the store is touched, so a nil store is safe
	h := testHandlers(&fakeRunner{}, &fakeReportStore{})

	rec := doRequest(h, http.MethodGet, "/v1/flags/bad%20key", "",
		func(e *echo.Echo, h *Handlers) { e.GET("/v1/flags/:key", h.FlagsGet) })
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(h, http.MethodDelete, "/v1/flags/bad%2Fkey", "",
		func(e *echo.Echo, h *Handlers) { e.DELETE("/v1/flags/:key", h.FlagsDelete) })
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(h, http.MethodPost, "/v1/flags", `{"key":"has space","value":true}`,
		func(e *echo.Echo, h *Handlers) { e.POST("/v1/flags", h.FlagsUpsert) })
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
