package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/godfrey-tankan/document-insight-view/internal/utils"
	"github.com/stretchr/testify/assert"
)

type stubService struct{}

func (stubService) Analyze(context.Context, *models.AnalyzeRequest) (*models.AnalysisResult, error) {
	return &models.AnalysisResult{DocumentID: "doc-1"}, nil
}

func (stubService) GetDocument(_ context.Context, id string) (*models.AnalysisResult, error) {
	return &models.AnalysisResult{DocumentID: id}, nil
}

func (stubService) GetHighlighted(_ context.Context, id string) (*models.HighlightedDocument, error) {
	return &models.HighlightedDocument{DocumentID: id, HTML: "text"}, nil
}

func newTestRouter(burst int) http.Handler {
	return NewRouter(stubService{}, Options{
		MaxFileSize:    1 << 20,
		RateLimitRPS:   0.001,
		RateLimitBurst: burst,
	}, utils.NopLogger())
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(""))
	req.RemoteAddr = "192.0.2.1:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	h := newTestRouter(5)

	rec := serve(h, http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(h, http.MethodGet, "/api/v1/documents/abc")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"document_id":"abc"`)

	rec = serve(h, http.MethodGet, "/api/v1/documents/abc/highlighted")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"html":"text"`)

	rec = serve(h, http.MethodOptions, "/api/v1/documents/analyze")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h, http.MethodGet, "/api/v1/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeIsRateLimited(t *testing.T) {
	h := newTestRouter(1)

	// The empty body fails form parsing, which still spends a token.
	rec := serve(h, http.MethodPost, "/api/v1/documents/analyze")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, http.MethodPost, "/api/v1/documents/analyze")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = serve(h, http.MethodGet, "/api/v1/documents/abc")
	assert.Equal(t, http.StatusOK, rec.Code)
}
