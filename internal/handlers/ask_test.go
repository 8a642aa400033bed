package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"docqa/internal/corpus"
	"docqa/internal/rag"
	ragmocks "docqa/internal/rag/mocks"
	"docqa/internal/service"
	"docqa/internal/session"
)

func newSessionWithCorpus(t *testing.T, store session.Store) *session.Session {
	t.Helper()
	c, err := corpus.NewLexical([]corpus.Chunk{
		{ID: 0, Content: "Refunds are processed within 5-7 business days.", Source: "policy.txt", Page: 1},
	})
	if err != nil {
		t.Fatalf("failed to build corpus: %v", err)
	}
	sess := session.New("policy.txt", c)
	store.Put(sess)
	return sess
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAskHandler_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := session.NewMemoryStore(time.Hour)
	sess := newSessionWithCorpus(t, store)

	engine := ragmocks.NewMockEngine(ctrl)
	engine.EXPECT().
		Ask(gomock.Any(), sess.Corpus, gomock.Any()).
		Return(rag.AskResult{
			Answer:    "Refunds are processed within 5-7 business days [1].",
			Citations: []rag.Citation{{ID: 1, Source: "policy.txt", Page: 1}},
			Retrieved: []rag.Hit{{Rank: 1, Score: 0.8, Content: "Refunds...", Source: "policy.txt", Page: 1}},
		}, nil)

	handler := NewAskHandler(store, engine)
	rec := postJSON(t, handler, "/ask", AskHTTPRequest{SessionID: sess.ID, Question: "refund"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp AskHTTPResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Filename != "policy.txt" {
		t.Errorf("Filename = %q, want policy.txt", resp.Filename)
	}
	if len(resp.Citations) != 1 || resp.Citations[0].ID != 1 {
		t.Errorf("Citations = %+v, want single citation with ID 1", resp.Citations)
	}
}

func TestAskHandler_StrictDefaultsToTrue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := session.NewMemoryStore(time.Hour)
	sess := newSessionWithCorpus(t, store)

	engine := ragmocks.NewMockEngine(ctrl)
	engine.EXPECT().
		Ask(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *corpus.Corpus, req rag.AskRequest) (rag.AskResult, error) {
			if !req.Strict {
				t.Error("Strict should default to true when omitted")
			}
			return rag.AskResult{Answer: "ok"}, nil
		})

	handler := NewAskHandler(store, engine)
	rec := postJSON(t, handler, "/ask", AskHTTPRequest{SessionID: sess.ID, Question: "refund"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAskHandler_StrictCanBeDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := session.NewMemoryStore(time.Hour)
	sess := newSessionWithCorpus(t, store)

	engine := ragmocks.NewMockEngine(ctrl)
	engine.EXPECT().
		Ask(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *corpus.Corpus, req rag.AskRequest) (rag.AskResult, error) {
			if req.Strict {
				t.Error("Strict should be false when explicitly disabled")
			}
			return rag.AskResult{Answer: "ok"}, nil
		})

	strict := false
	handler := NewAskHandler(store, engine)
	rec := postJSON(t, handler, "/ask", AskHTTPRequest{SessionID: sess.ID, Question: "refund", Strict: &strict})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAskHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		engineErr  error
		wantStatus int
	}{
		{
			name:       "invalid input maps to 400",
			engineErr:  fmt.Errorf("question is required: %w", service.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "external service maps to 502",
			engineErr:  fmt.Errorf("retrieval failed: %w", service.ErrExternalService),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "unknown error maps to 500",
			engineErr:  fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := session.NewMemoryStore(time.Hour)
			sess := newSessionWithCorpus(t, store)

			engine := ragmocks.NewMockEngine(ctrl)
			engine.EXPECT().
				Ask(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(rag.AskResult{}, tt.engineErr)

			handler := NewAskHandler(store, engine)
			rec := postJSON(t, handler, "/ask", AskHTTPRequest{SessionID: sess.ID, Question: "refund"})
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAskHandler_UnknownSessionIs404(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := session.NewMemoryStore(time.Hour)
	engine := ragmocks.NewMockEngine(ctrl)

	handler := NewAskHandler(store, engine)
	rec := postJSON(t, handler, "/ask", AskHTTPRequest{SessionID: "missing", Question: "refund"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAskHandler_MissingSessionIDIs400(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := session.NewMemoryStore(time.Hour)
	engine := ragmocks.NewMockEngine(ctrl)

	handler := NewAskHandler(store, engine)
	rec := postJSON(t, handler, "/ask", AskHTTPRequest{Question: "refund"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAskHandler_InvalidBodyIs400(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := session.NewMemoryStore(time.Hour)
	engine := ragmocks.NewMockEngine(ctrl)
	handler := NewAskHandler(store, engine)

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
