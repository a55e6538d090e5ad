package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/godfrey-tankan/document-insight-view/internal/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	got     *models.AnalyzeRequest
	err     error
	results map[string]*models.AnalysisResult
}

func (f *fakeService) Analyze(_ context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.AnalysisResult{DocumentID: "doc-1", Filename: req.Filename, PlagiarismScore: 12.5}, nil
}

func (f *fakeService) GetDocument(_ context.Context, id string) (*models.AnalysisResult, error) {
	if res, ok := f.results[id]; ok {
		return res, nil
	}
	return nil, utils.NewNotFoundError("Document not found")
}

func (f *fakeService) GetHighlighted(_ context.Context, id string) (*models.HighlightedDocument, error) {
	if _, ok := f.results[id]; !ok {
		return nil, utils.NewNotFoundError("Document not found")
	}
	return &models.HighlightedDocument{DocumentID: id, HTML: `a <mark class="plagiarism">b</mark>`}, nil
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestAnalyzeDocument(t *testing.T) {
	svc := &fakeService{}
	h := NewDocumentHandler(svc, 1<<20, utils.NopLogger())

	body, contentType := multipartBody(t, "file", "essay.txt", []byte("some essay text"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/analyze", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(OwnerHeader, "user-7")
	rec := httptest.NewRecorder()

	h.AnalyzeDocument(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var res models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "doc-1", res.DocumentID)
	assert.Equal(t, 12.5, res.PlagiarismScore)

	require.NotNil(t, svc.got)
	assert.Equal(t, "user-7", svc.got.OwnerID)
	assert.Equal(t, "essay.txt", svc.got.Filename)
	assert.Equal(t, []byte("some essay text"), svc.got.File)
}

func TestAnalyzeDocumentDefaultsOwner(t *testing.T) {
	svc := &fakeService{}
	h := NewDocumentHandler(svc, 1<<20, utils.NopLogger())

	body, contentType := multipartBody(t, "file", "essay.txt", []byte("text"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.AnalyzeDocument(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, defaultOwner, svc.got.OwnerID)
}

func TestAnalyzeDocumentRejections(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		content []byte
		status  int
		message string
	}{
		{"missing file", "upload", []byte("x"), http.StatusBadRequest, "No file provided"},
		{"empty file", "file", nil, http.StatusBadRequest, "Uploaded file is empty"},
		{"too large", "file", bytes.Repeat([]byte("a"), 3000), http.StatusBadRequest, "File size exceeds 2KB limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			h := NewDocumentHandler(svc, 2<<10, utils.NopLogger())

			body, contentType := multipartBody(t, tt.field, "a.txt", tt.content)
			req := httptest.NewRequest(http.MethodPost, "/", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			h.AnalyzeDocument(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec))
			assert.Nil(t, svc.got)
		})
	}
}

func TestAnalyzeDocumentServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"app error", utils.NewUnprocessableError("too little text", nil), http.StatusUnprocessableEntity, "too little text"},
		{"unexpected", assert.AnError, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDocumentHandler(&fakeService{err: tt.err}, 1<<20, utils.NopLogger())

			body, contentType := multipartBody(t, "file", "a.txt", []byte("text"))
			req := httptest.NewRequest(http.MethodPost, "/", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			h.AnalyzeDocument(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec))
		})
	}
}

func TestGetDocument(t *testing.T) {
	svc := &fakeService{results: map[string]*models.AnalysisResult{"doc-1": {DocumentID: "doc-1"}}}
	h := NewDocumentHandler(svc, 1<<20, utils.NopLogger())

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "doc-1"})
	rec := httptest.NewRecorder()
	h.GetDocument(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"document_id":"doc-1"`)

	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "missing"})
	rec = httptest.NewRecorder()
	h.GetDocument(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Document not found", decodeError(t, rec))
}

func TestGetHighlightedNegotiatesHTML(t *testing.T) {
	svc := &fakeService{results: map[string]*models.AnalysisResult{"doc-1": {DocumentID: "doc-1"}}}
	h := NewDocumentHandler(svc, 1<<20, utils.NopLogger())

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "doc-1"})
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9")
	rec := httptest.NewRecorder()
	h.GetHighlighted(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Equal(t, `a <mark class="plagiarism">b</mark>`, rec.Body.String())

	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "doc-1"})
	rec = httptest.NewRecorder()
	h.GetHighlighted(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var doc models.HighlightedDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "doc-1", doc.DocumentID)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "10MB", formatSize(10<<20))
	assert.Equal(t, "2KB", formatSize(2<<10))
	assert.Equal(t, "1500 bytes", formatSize(1500))
}
