package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dosefit/app"
	"dosefit/internal"
	"dosefit/internal/curvefit"
)

func testServer() *Server {
	svc := app.NewAnalysisService(curvefit.DefaultConfig())
	return NewServer(svc, internal.NewLogger(internal.LogLevelError))
}

// plateBody builds a two-condition request with E tenfold less potent than C.
func plateBody(t *testing.T) []byte {
	t.Helper()
	doses := []float64{0.01, 0.1, 1, 10, 100, 1000, 10000}
	curve := func(d, ec50, offset float64) float64 {
		return 100/(1+math.Exp(-(math.Log(d)-math.Log(ec50)))) + offset
	}

	req := analysisRequest{Doses: doses}
	for _, s := range []struct {
		name   string
		ec50   float64
		offset float64
	}{
		{"C1", 10, 0.5}, {"C2", 10, -0.5},
		{"E1", 100, 0.4}, {"E2", 100, -0.4},
	} {
		values := make([]*float64, len(doses))
		for i, d := range doses {
			v := curve(d, s.ec50, s.offset)
			values[i] = &v
		}
		req.Samples = append(req.Samples, struct {
			Name   string     `json:"name"`
			Values []*float64 `json:"values"`
		}{Name: s.name, Values: values})
	}

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return body
}

func createAnalysis(t *testing.T, srv *Server) analysisResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", bytes.NewReader(plateBody(t)))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/analyses = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp analysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestCreateAnalysis(t *testing.T) {
	resp := createAnalysis(t, testServer())

	if resp.ID == "" {
		t.Error("response is missing an analysis id")
	}
	if got := len(resp.Result.Conditions); got != 2 {
		t.Fatalf("got %d conditions, want 2", got)
	}
	if resp.Result.EC50Contrast == nil {
		t.Fatal("expected an EC50 contrast for two conditions")
	}
	if resp.Result.EC50Contrast.PValue >= 0.05 {
		t.Errorf("p = %g, want < 0.05 for a tenfold shift", resp.Result.EC50Contrast.PValue)
	}
	if len(resp.Result.Curve) == 0 {
		t.Error("expected a non-empty curve grid")
	}
}

func TestGetAnalysis(t *testing.T) {
	srv := testServer()
	created := createAnalysis(t, srv)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/analyses/"+created.ID, nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET analysis = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp analysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != created.ID {
		t.Errorf("id = %s, want %s", resp.ID, created.ID)
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/analyses/nope", nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("GET unknown analysis = %d, want 404", rec.Code)
	}
}

func TestGetReport(t *testing.T) {
	srv := testServer()
	created := createAnalysis(t, srv)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/analyses/%s/report", created.ID), nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET report = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %s, want text/html", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "EC50") {
		t.Error("report should mention EC50")
	}
}

func TestCreateAnalysisBadJSON(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", strings.NewReader("{nope"))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", rec.Code)
	}
}

func TestCreateAnalysisBadSampleName(t *testing.T) {
	body := []byte(`{"doses":[1,10],"samples":[{"name":"123","values":[1,2]}]}`)

	srv := testServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", bytes.NewReader(body))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("unparseable sample name = %d, want 400", rec.Code)
	}
}

func TestCreateAnalysisUnderDetermined(t *testing.T) {
	body := []byte(`{"doses":[1,10,100],"samples":[{"name":"C1","values":[5,50,95]}]}`)

	srv := testServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", bytes.NewReader(body))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("under-determined fit = %d, want 422", rec.Code)
	}
}
