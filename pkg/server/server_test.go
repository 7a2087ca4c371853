package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/pipeline"
)

type stubPipeline struct {
	resp      models.Response
	err       error
	got       models.GenerationRequest
	requestID string
}

func (p *stubPipeline) Handle(ctx context.Context, req models.GenerationRequest) (models.Response, error) {
	p.got = req
	p.requestID = pipeline.RequestID(ctx)
	return p.resp, p.err
}

func post(t *testing.T, srv http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/cover-images", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestCoverImageGenerated(t *testing.T) {
	p := &stubPipeline{resp: models.GeneratedResponse("http://localhost/objects/meal-covers/event-covers/taco-night.png")}
	srv := New(Options{}, p)

	w := post(t, srv, `{"subjectText":"Taco Night!!","groupId":"g1","callerName":"Ana"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if p.got.SubjectText != "Taco Night!!" || p.got.GroupID != "g1" || p.got.CallerName != "Ana" {
		t.Errorf("unexpected request %+v", p.got)
	}
	if p.requestID != "req-42" {
		t.Errorf("expected request id propagated, got %q", p.requestID)
	}
	if w.Header().Get("X-Mealcover-Cache") != "miss" {
		t.Error("expected cache miss header")
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["artifactURL"] != "http://localhost/objects/meal-covers/event-covers/taco-night.png" {
		t.Errorf("unexpected artifactURL %v", resp["artifactURL"])
	}
	if resp["cached"] != false || resp["budgetExceeded"] != false {
		t.Errorf("unexpected flags %v", resp)
	}
	if _, ok := resp["error"]; ok {
		t.Error("error field should be omitted")
	}
}

func TestCoverImageBudgetExceeded(t *testing.T) {
	srv := New(Options{}, &stubPipeline{resp: models.BudgetExceededResponse()})

	w := post(t, srv, `{"subjectText":"x","groupId":"g1","callerName":"Ana"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"artifactURL":null,"cached":false,"budgetExceeded":true}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestCoverImageErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: missing subjectText", pipeline.ErrInvalidInput), http.StatusBadRequest},
		{pipeline.ErrUnauthorized, http.StatusForbidden},
		{pipeline.ErrMisconfigured, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			srv := New(Options{}, &stubPipeline{err: tt.err})
			w := post(t, srv, `{"subjectText":"x","groupId":"g1","callerName":"Ana"}`)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
			if !strings.Contains(w.Body.String(), "mealcover_error") {
				t.Errorf("unexpected body %s", w.Body.String())
			}
		})
	}
}

func TestCoverImageBadRequests(t *testing.T) {
	srv := New(Options{}, &stubPipeline{})

	w := post(t, srv, `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/cover-images", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated request id")
	}
}

func TestObjectsAndMetricsMounted(t *testing.T) {
	objects := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.URL.Path)
	})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "metrics")
	})
	srv := New(Options{Objects: objects, ObjectsPath: "/objects/", Metrics: metrics}, &stubPipeline{})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/objects/meal-covers/event-covers/a.png", nil))
	if w.Body.String() != "/meal-covers/event-covers/a.png" {
		t.Errorf("expected prefix stripped, got %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Body.String() != "metrics" {
		t.Errorf("unexpected metrics body %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 from healthz, got %d", w.Code)
	}
}
