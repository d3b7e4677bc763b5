package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ehr/indicators/internal/config"
	"github.com/ehr/indicators/internal/domain/indicator"
	"github.com/ehr/indicators/internal/domain/territory"
	"github.com/ehr/indicators/internal/platform/metrics"
)

const fixture = `{
	"people": [
		{"id": 1, "name": "Bruno", "birth_date": "2024-01-01T00:00:00Z", "active": true, "deceased": false, "team": "ESF A"},
		{"id": 2, "name": "Ana", "birth_date": "2024-02-01T00:00:00Z", "active": true, "deceased": false, "team": "ESF B", "subarea": "03"}
	],
	"events": [
		{"person": 1, "kind": "consultation", "date": "2024-01-10T00:00:00Z", "role_code": "223505", "team": "ESF A"}
	],
	"teams": [{"code": "0001", "name": "ESF A"}, {"code": "0002", "name": "ESF B"}, {"code": "0003", "name": "ESB BUCAL"}],
	"subareas": {"ESF B": ["03"]}
}`

func testConfig() *config.Config {
	return &config.Config{
		Env:         "development",
		PageSize:    15,
		EvalWorkers: 2,
		CORSOrigins: []string{"http://localhost:3000"},
		Clinical:    config.DefaultClinical(),
	}
}

func loadFixture(t *testing.T) *indicator.Dataset {
	t.Helper()
	ds, err := indicator.LoadDataset(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return ds
}

func TestTimelineMatchesDefaults(t *testing.T) {
	if timeline(config.DefaultClinical()) != indicator.DefaultTimeline() {
		t.Errorf("config defaults and engine defaults diverge: %+v vs %+v",
			timeline(config.DefaultClinical()), indicator.DefaultTimeline())
	}
}

func TestEvaluate_Ranking(t *testing.T) {
	var out bytes.Buffer
	err := evaluate(context.Background(), &out, testConfig(), loadFixture(t), evaluateRequest{family: indicator.FamilyInfant, period: "2024-06"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	var scores []indicator.TeamScore
	if err := json.Unmarshal(out.Bytes(), &scores); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(scores) != 2 || scores[0].Team != "ESF A" || scores[0].Percentage != 20 {
		t.Errorf("unexpected ranking %+v", scores)
	}
}

func TestEvaluate_List(t *testing.T) {
	var out bytes.Buffer
	err := evaluate(context.Background(), &out, testConfig(), loadFixture(t),
		evaluateRequest{family: indicator.FamilyInfant, period: "2024-06", subarea: "3", list: true})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	var results []indicator.PersonResult
	if err := json.Unmarshal(out.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Ana" {
		t.Errorf("expected the sub-area filter to apply, got %+v", results)
	}
}

func TestEvaluate_UnknownFamily(t *testing.T) {
	err := evaluate(context.Background(), &bytes.Buffer{}, testConfig(), loadFixture(t), evaluateRequest{family: "dialysis"})
	if !errors.Is(err, indicator.ErrUnknownFamily) {
		t.Errorf("expected ErrUnknownFamily, got %v", err)
	}
}

func TestEvaluateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"evaluate", "--family", "infant", "--ref", "2024-06", "--fixture", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), `"team": "ESF A"`) {
		t.Errorf("expected ranking output, got %s", out.String())
	}
}

func TestEvaluateCommand_MissingFixture(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"evaluate", "--family", "infant", "--fixture", filepath.Join(t.TempDir(), "absent.json")})
	if err := cmd.Execute(); err == nil {
		t.Error("expected missing fixture to fail")
	}
}

func TestFamiliesCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"families"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var entries []indicator.CatalogEntry
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 8 || entries[1].Family != indicator.FamilyPregnancy {
		t.Errorf("unexpected catalog %+v", entries)
	}
}

func TestNewServer_Routes(t *testing.T) {
	ds := loadFixture(t)
	teams := territory.NewMemoryRepo()
	for _, tm := range ds.Teams {
		teams.AddTeam(tm)
	}
	territorySvc := territory.NewService(teams)
	registry, err := indicator.NewRegistry(indicator.DefaultTimeline())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	store := indicator.NewMemoryStore(ds)
	rec := metrics.New()
	svc := indicator.NewService(registry, store, store, territorySvc, indicator.WithMetrics(rec))
	e := newServer(testConfig(), zerolog.Nop(), rec, svc, territorySvc)

	for _, tc := range []struct {
		method string
		target string
		code   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/indicators", http.StatusOK},
		{http.MethodGet, "/api/v1/indicators/teams", http.StatusOK},
		{http.MethodGet, "/api/v1/indicators/subareas?team=ESF%20B", http.StatusOK},
		{http.MethodGet, "/api/v1/indicators/infant?period=2024-06", http.StatusOK},
		{http.MethodGet, "/api/v1/indicators/ranking-infant?period=2024-06", http.StatusOK},
		{http.MethodGet, "/api/v1/indicators/infant/1/vaccinations", http.StatusOK},
		{http.MethodGet, "/api/v1/indicators/unknown", http.StatusNotFound},
		{http.MethodDelete, "/api/v1/indicators/cache", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
	} {
		w := httptest.NewRecorder()
		e.ServeHTTP(w, httptest.NewRequest(tc.method, tc.target, nil))
		if w.Code != tc.code {
			t.Errorf("%s %s: expected %d, got %d", tc.method, tc.target, tc.code, w.Code)
		}
		if tc.target == "/health" && w.Header().Get("X-Request-ID") == "" {
			t.Error("expected a request id header")
		}
	}
}

func TestNewServer_RequiresTokenOutsideDevelopment(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	cfg.AuthSigningKey = "secret"
	territorySvc := territory.NewService(territory.NewMemoryRepo())
	registry, _ := indicator.NewRegistry(indicator.DefaultTimeline())
	store := indicator.NewMemoryStore(nil)
	rec := metrics.New()
	e := newServer(cfg, zerolog.Nop(), rec, indicator.NewService(registry, store, store, territorySvc), territorySvc)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/indicators", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected health to stay public, got %d", w.Code)
	}
}
