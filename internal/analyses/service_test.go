package analyses

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"lexiguide-backend/internal/extract"
	"lexiguide-backend/internal/llm"
)

type stubStore struct {
	saved     map[string][]byte
	failSave  bool
	mimeType  string
	savedKeys []string
}

func newStubStore() *stubStore {
	return &stubStore{saved: map[string][]byte{}, mimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
}

func (s *stubStore) Save(ctx context.Context, fileName string, r io.Reader) (string, int64, string, error) {
	if s.failSave {
		return "", 0, "", errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := "uploads/" + fileName
	s.saved[key] = data
	s.savedKeys = append(s.savedKeys, key)
	return key, int64(len(data)), s.mimeType, nil
}

func (s *stubStore) SaveWithKey(ctx context.Context, storageKey, contentType string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.saved[storageKey] = data
	s.savedKeys = append(s.savedKeys, storageKey)
	return int64(len(data)), nil
}

func (s *stubStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	data, ok := s.saved[storageKey]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type stubLLM struct {
	analysis json.RawMessage
	answer   string
	err      error
	lastIn   llm.AnalyzeInput
}

func (s *stubLLM) Analyze(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	s.lastIn = input
	if s.err != nil {
		return nil, s.err
	}
	return s.analysis, nil
}

func (s *stubLLM) Answer(ctx context.Context, input llm.AnswerInput) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	fmt.Fprint(w, `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(w, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	fmt.Fprint(w, `</w:body></w:document>`)
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func rentalDocx(t *testing.T) []byte {
	t.Helper()
	return buildDocx(t,
		"RENTAL AGREEMENT between the Landlord and the Tenant.",
		"The monthly rent shall be Rs. 25,000 payable in advance.",
		"A security deposit of Rs. 1,00,000 is payable on signing.",
	)
}

func newTestService(store *stubStore, client llm.Client) (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	svc := NewService(repo, store, client, "gemini", "gemini-1.5-flash-latest", 5*time.Second)
	return svc, repo
}

func TestAnalyzeHappyPath(t *testing.T) {
	store := newStubStore()
	client := &stubLLM{analysis: json.RawMessage(`{"summary":"A rental agreement.","keyDetails":[{"label":"Monthly Rent","value":"Rs. 25,000"}],"redFlags":[]}`)}
	svc, repo := newTestService(store, client)

	result, err := svc.Analyze(context.Background(), AnalyzeRequest{
		FileName: "lease.docx",
		DocType:  "rental",
		Data:     rentalDocx(t),
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if result.Analysis.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", result.Analysis.Status)
	}
	if !strings.Contains(result.DocumentText, "Rs. 25,000") {
		t.Fatalf("expected extracted text to keep figures verbatim, got %q", result.DocumentText)
	}
	if result.Analysis.Language != "English" {
		t.Fatalf("expected default language English, got %q", result.Analysis.Language)
	}
	if client.lastIn.DocType != "rental" {
		t.Fatalf("expected rental prompt input, got %q", client.lastIn.DocType)
	}

	stored, err := repo.GetByID(context.Background(), result.Analysis.ID)
	if err != nil {
		t.Fatalf("get stored analysis: %v", err)
	}
	if stored.Status != StatusCompleted {
		t.Fatalf("expected persisted status completed, got %s", stored.Status)
	}
	if stored.Result["summary"] != "A rental agreement." {
		t.Fatalf("unexpected persisted result: %v", stored.Result)
	}
	if stored.StorageKey == "" {
		t.Fatal("expected storage key persisted")
	}
	if !strings.HasSuffix(stored.ExtractedTextKey, ".extracted.txt") {
		t.Fatalf("expected extracted text key persisted, got %q", stored.ExtractedTextKey)
	}

	if len(store.savedKeys) != 2 {
		t.Fatalf("expected upload and extracted text stored, got keys %v", store.savedKeys)
	}
	if !strings.HasSuffix(store.savedKeys[1], ".extracted.txt") {
		t.Fatalf("expected extracted text key, got %q", store.savedKeys[1])
	}
}

func TestAnalyzeRejectsUnknownDocType(t *testing.T) {
	svc, _ := newTestService(newStubStore(), &stubLLM{})

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{
		FileName: "lease.docx",
		DocType:  "will",
		Data:     rentalDocx(t),
	})
	if !errors.Is(err, ErrInvalidDocType) {
		t.Fatalf("expected ErrInvalidDocType, got %v", err)
	}
}

func TestAnalyzeRejectsShortText(t *testing.T) {
	svc, repo := newTestService(newStubStore(), &stubLLM{})

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{
		FileName: "lease.docx",
		DocType:  "rental",
		Data:     buildDocx(t, "short"),
	})
	if !errors.Is(err, ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort, got %v", err)
	}

	list, err := repo.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected the failed call recorded in history, got %d records", len(list))
	}
	if list[0].Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", list[0].Status)
	}
	if list[0].ErrorMessage == nil {
		t.Fatal("expected error message recorded")
	}
}

func TestAnalyzeRecordsStoreFailure(t *testing.T) {
	store := newStubStore()
	store.failSave = true
	svc, repo := newTestService(store, &stubLLM{})

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{
		FileName: "lease.docx",
		DocType:  "rental",
		Data:     rentalDocx(t),
	})
	if err == nil {
		t.Fatal("expected store error")
	}

	list, err := repo.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected the failed call recorded in history, got %d records", len(list))
	}
	if list[0].Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", list[0].Status)
	}
}

func TestAnalyzeRecordsUnsupportedFile(t *testing.T) {
	store := newStubStore()
	store.mimeType = "text/plain; charset=utf-8"
	svc, repo := newTestService(store, &stubLLM{})

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{
		FileName: "notes.txt",
		DocType:  "rental",
		Data:     []byte(strings.Repeat("plain text, not a contract ", 10)),
	})
	if !errors.Is(err, extract.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}

	list, err := repo.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Status != StatusFailed {
		t.Fatalf("expected one failed record, got %v", list)
	}
}

func TestAnalyzeMarksFailedOnBadModelReply(t *testing.T) {
	store := newStubStore()
	client := &stubLLM{analysis: json.RawMessage(`this is not json`)}
	svc, repo := newTestService(store, client)

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{
		FileName: "lease.docx",
		DocType:  "rental",
		Data:     rentalDocx(t),
	})
	if !errors.Is(err, ErrModelReply) {
		t.Fatalf("expected ErrModelReply, got %v", err)
	}

	list, err := repo.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one record, got %d", len(list))
	}
	if list[0].Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", list[0].Status)
	}
	if list[0].ErrorMessage == nil {
		t.Fatal("expected error message recorded")
	}
}

func TestAnalyzeUnwrapsFencedModelReply(t *testing.T) {
	store := newStubStore()
	client := &stubLLM{analysis: json.RawMessage("```json\n{\"summary\":\"ok\",\"keyDetails\":[],\"redFlags\":[]}\n```")}
	svc, _ := newTestService(store, client)

	result, err := svc.Analyze(context.Background(), AnalyzeRequest{
		FileName: "lease.docx",
		DocType:  "rental",
		Data:     rentalDocx(t),
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Analysis.Result["summary"] != "ok" {
		t.Fatalf("expected fenced reply parsed, got %v", result.Analysis.Result)
	}
}

func TestAnalyzeKeepsLanguage(t *testing.T) {
	client := &stubLLM{analysis: json.RawMessage(`{"summary":"ok","keyDetails":[],"redFlags":[]}`)}
	svc, _ := newTestService(newStubStore(), client)

	result, err := svc.Analyze(context.Background(), AnalyzeRequest{
		FileName: "lease.docx",
		DocType:  "rental",
		Language: "Hindi",
		Data:     rentalDocx(t),
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Analysis.Language != "Hindi" {
		t.Fatalf("expected Hindi, got %q", result.Analysis.Language)
	}
	if client.lastIn.Language != "Hindi" {
		t.Fatalf("expected language forwarded to model, got %q", client.lastIn.Language)
	}
}
