package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/seqvec/helix/internal/hdc"
	"github.com/seqvec/helix/internal/logger"
)

func newTestEcho(t *testing.T, fitted bool) *echo.Echo {
	t.Helper()
	cfg := hdc.DefaultConfig()
	cfg.Dim = 8
	cfg.KmerLength = 2
	cfg.Hidden = 16
	cfg.FinetuneLR = 0.05
	cfg.FinetuneEpochs = 10
	cfg.BatchSize = 4

	m, err := hdc.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if fitted {
		log := logger.Text(io.Discard, slog.LevelError)
		_, err := m.Finetune(
			[]string{"AAACAA", "AACAAA", "TTTGTT", "TTGTTT"},
			[]int{0, 0, 1, 1}, nil, nil, log)
		if err != nil {
			t.Fatal(err)
		}
	}

	e := echo.New()
	NewServer(m, logger.Text(io.Discard, slog.LevelError)).Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestEncodeEndpoint(t *testing.T) {
	e := newTestEcho(t, false)
	rec := doJSON(t, e, http.MethodPost, "/v1/encode", `{"sequences":["ACGTACGT","TT"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp EncodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Dimension != 8 {
		t.Fatalf("dimension = %d, want 8", resp.Dimension)
	}
	if len(resp.Vectors) != 2 || len(resp.Vectors[0]) != 8 {
		t.Fatalf("vectors shape wrong: %v", resp.Vectors)
	}
}

func TestEncodeBinaryEndpoint(t *testing.T) {
	e := newTestEcho(t, false)
	rec := doJSON(t, e, http.MethodPost, "/v1/encode", `{"sequences":["ACGTACGT"],"binary":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp EncodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	for _, v := range resp.Vectors[0] {
		if v != 0 && v != 1 {
			t.Fatalf("binary vector contains %v", v)
		}
	}
}

func TestEncodeRejectsEmptyBody(t *testing.T) {
	e := newTestEcho(t, false)
	if rec := doJSON(t, e, http.MethodPost, "/v1/encode", `{"sequences":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty sequences: status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, e, http.MethodPost, "/v1/encode", `not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestPredictEndpoint(t *testing.T) {
	e := newTestEcho(t, true)
	rec := doJSON(t, e, http.MethodPost, "/v1/predict", `{"sequences":["AAACAA","TTGTTT"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp PredictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Labels) != 2 {
		t.Fatalf("got %d labels, want 2", len(resp.Labels))
	}
}

func TestPredictUnfittedModel(t *testing.T) {
	e := newTestEcho(t, false)
	rec := doJSON(t, e, http.MethodPost, "/v1/predict", `{"sequences":["ACGT"]}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "model_not_fitted") {
		t.Fatalf("body = %s, want model_not_fitted error type", rec.Body.String())
	}
}

func TestPredictProbaEndpoint(t *testing.T) {
	e := newTestEcho(t, true)
	rec := doJSON(t, e, http.MethodPost, "/v1/predict_proba", `{"sequences":["AAACAA"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp PredictProbaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Classes != 2 || len(resp.Probabilities) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	var sum float64
	for _, p := range resp.Probabilities[0] {
		sum += float64(p)
	}
	if sum < 0.99 || sum > 1.01 {
		t.Fatalf("probabilities sum to %v, want ~1", sum)
	}
}

func TestModelEndpoint(t *testing.T) {
	e := newTestEcho(t, true)
	rec := doJSON(t, e, http.MethodGet, "/v1/model", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var info ModelInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.KmerLength != 2 || info.Dimension != 8 || !info.Fitted || info.Classes != 2 {
		t.Fatalf("info = %+v", info)
	}
}

func TestModelEndpointUnfitted(t *testing.T) {
	e := newTestEcho(t, false)
	rec := doJSON(t, e, http.MethodGet, "/v1/model", "")

	var info ModelInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Fitted || info.Classes != 0 {
		t.Fatalf("info = %+v, want unfitted with no classes", info)
	}
}
