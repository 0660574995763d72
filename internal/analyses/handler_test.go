package analyses

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group(""))
	return r
}

func multipartUpload(t *testing.T, fileName string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func TestAnalyzeEndpointSuccess(t *testing.T) {
	client := &stubLLM{analysis: json.RawMessage(`{"summary":"A rental agreement.","keyDetails":[{"label":"Monthly Rent","value":"Rs. 25,000"}],"redFlags":[{"clause":"Lock-in","concern":"Two year lock-in","severity":"high"}]}`)}
	svc, _ := newTestService(newStubStore(), client)
	r := newTestRouter(svc)

	body, contentType := multipartUpload(t, "lease.docx", rentalDocx(t), map[string]string{"docType": "rental"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		AnalysisID   string         `json:"analysisId"`
		DocType      string         `json:"docType"`
		Analysis     map[string]any `json:"analysis"`
		DocumentText string         `json:"documentText"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AnalysisID == "" {
		t.Fatal("expected analysisId")
	}
	if resp.DocType != "rental" {
		t.Fatalf("expected docType rental, got %q", resp.DocType)
	}
	if resp.Analysis["summary"] != "A rental agreement." {
		t.Fatalf("unexpected analysis: %v", resp.Analysis)
	}
	if !strings.Contains(resp.DocumentText, "Rs. 25,000") {
		t.Fatal("expected documentText to include figures verbatim")
	}

	analysisJSON, err := json.Marshal(resp.Analysis)
	if err != nil {
		t.Fatalf("re-encode analysis: %v", err)
	}
	var result Result
	if err := json.Unmarshal(analysisJSON, &result); err != nil {
		t.Fatalf("decode analysis result: %v", err)
	}
	if len(result.KeyDetails) != 1 {
		t.Fatalf("expected one key detail, got %d", len(result.KeyDetails))
	}
	if result.KeyDetails[0] != (KeyDetail{Label: "Monthly Rent", Value: "Rs. 25,000"}) {
		t.Fatalf("expected rent figure verbatim in keyDetails, got %+v", result.KeyDetails[0])
	}
	if len(result.RedFlags) != 1 {
		t.Fatalf("expected one red flag, got %d", len(result.RedFlags))
	}
	if flag := result.RedFlags[0]; flag.Severity != SeverityHigh {
		t.Fatalf("expected %s severity, got %q", SeverityHigh, flag.Severity)
	}
}

func TestAnalyzeEndpointRequiresFile(t *testing.T) {
	svc, _ := newTestService(newStubStore(), &stubLLM{})
	r := newTestRouter(svc)

	body, contentType := multipartUpload(t, "", nil, map[string]string{"docType": "rental"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	assertErrorCode(t, w.Body.Bytes(), "validation_error")
}

func TestAnalyzeEndpointRejectsUnknownDocType(t *testing.T) {
	svc, _ := newTestService(newStubStore(), &stubLLM{})
	r := newTestRouter(svc)

	body, contentType := multipartUpload(t, "lease.docx", rentalDocx(t), map[string]string{"docType": "will"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	assertErrorCode(t, w.Body.Bytes(), "validation_error")
}

func TestAnalyzeEndpointRejectsNonDocument(t *testing.T) {
	store := newStubStore()
	store.mimeType = "text/plain; charset=utf-8"
	svc, _ := newTestService(store, &stubLLM{})
	r := newTestRouter(svc)

	payload := []byte(strings.Repeat("this is not a contract ", 10))
	body, contentType := multipartUpload(t, "notes.txt", payload, map[string]string{"docType": "rental"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	assertErrorCode(t, w.Body.Bytes(), "extraction_failed")
}

func TestAnalyzeEndpointModelFailure(t *testing.T) {
	client := &stubLLM{analysis: json.RawMessage(`not json at all`)}
	svc, _ := newTestService(newStubStore(), client)
	r := newTestRouter(svc)

	body, contentType := multipartUpload(t, "lease.docx", rentalDocx(t), map[string]string{"docType": "rental"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	assertErrorCode(t, w.Body.Bytes(), "analysis_failed")
}

func TestGetAnalysisNotFound(t *testing.T) {
	svc, _ := newTestService(newStubStore(), &stubLLM{})
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/analyses/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	assertErrorCode(t, w.Body.Bytes(), "not_found")
}

func TestListAnalysesNewestFirst(t *testing.T) {
	svc, repo := newTestService(newStubStore(), &stubLLM{})
	r := newTestRouter(svc)

	older := Analysis{ID: "a1", DocType: "rental", Status: StatusCompleted, CreatedAt: time.Now().Add(-time.Hour)}
	newer := Analysis{ID: "a2", DocType: "loan", Status: StatusCompleted, CreatedAt: time.Now()}
	for _, a := range []Analysis{older, newer} {
		if err := repo.Create(context.Background(), a); err != nil {
			t.Fatalf("seed repo: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/analyses", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Analyses []Analysis `json:"analyses"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Analyses) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(resp.Analyses))
	}
	if resp.Analyses[0].ID != "a2" {
		t.Fatalf("expected newest first, got %s", resp.Analyses[0].ID)
	}
}

func assertErrorCode(t *testing.T, body []byte, code string) {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Code != code {
		t.Fatalf("expected code %q, got %q (%s)", code, resp.Code, body)
	}
	if resp.Error == "" {
		t.Fatal("expected error message")
	}
}
