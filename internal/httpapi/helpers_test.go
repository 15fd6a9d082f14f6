package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"validprompt/internal/config"
	"validprompt/internal/logging"
	"validprompt/internal/models"
	"validprompt/internal/providers"
	"validprompt/internal/ratelimit"
)

const (
	allowedOrigin = "https://validprompt.app"
	testSecret    = "test-admin-secret"
)

// fakeGenerator returns a canned completion or error and counts calls.
type fakeGenerator struct {
	mu     sync.Mutex
	calls  int
	inputs []string
	text   string
	err    error
}

func (g *fakeGenerator) Generate(ctx context.Context, input string) (*providers.Completion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.inputs = append(g.inputs, input)
	if g.err != nil {
		return nil, g.err
	}
	return &providers.Completion{
		Text:            g.text,
		Model:           "gpt-5-nano",
		ProviderLatency: 12 * time.Millisecond,
		InputTokens:     30,
		OutputTokens:    60,
	}, nil
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// recordingSink keeps every enqueued record.
type recordingSink struct {
	mu      sync.Mutex
	records []*logging.GenerationRecord
}

func (s *recordingSink) Enqueue(rec *logging.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) Shutdown(ctx context.Context) error {
	return nil
}

func (s *recordingSink) Records() []*logging.GenerationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*logging.GenerationRecord(nil), s.records...)
}

// failingLedger fails every call.
type failingLedger struct{}

var errLedgerDown = errors.New("ledger down")

func (failingLedger) TryConsume(ctx context.Context, ip, day string, max int) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errLedgerDown
}
func (failingLedger) Usage(ctx context.Context, ip, day string) (int, error) { return 0, errLedgerDown }
func (failingLedger) List(ctx context.Context, day string) ([]models.UsageRecord, error) {
	return nil, errLedgerDown
}
func (failingLedger) Health(ctx context.Context) error { return errLedgerDown }
func (failingLedger) Close() error                     { return nil }

type testEnv struct {
	mux    *http.ServeMux
	deps   *Dependencies
	ledger ratelimit.Ledger
	gen    providers.Generator
	sink   *recordingSink
	clock  *time.Time
}

func newTestEnv(t *testing.T, gen providers.Generator, ledger ratelimit.Ledger) *testEnv {
	t.Helper()

	if ledger == nil {
		ledger = ratelimit.NewMemoryLedger()
	}
	if gen == nil {
		gen = &fakeGenerator{text: "Write a vivid short poem about the sea at dawn."}
	}

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := &testEnv{
		ledger: ledger,
		gen:    gen,
		sink:   &recordingSink{},
		clock:  &clock,
	}

	env.deps = &Dependencies{
		Ledger:     ledger,
		Generator:  gen,
		Logger:     env.sink,
		DailyLimit: 10,
		Model:      "gpt-5-nano",
		Now:        func() time.Time { return *env.clock },
	}

	cfg := &config.Config{
		AllowedOrigin: allowedOrigin,
		DailyLimit:    10,
		JWTSecret:     []byte(testSecret),
	}
	env.mux = NewMux(env.deps, cfg)
	return env
}

func (e *testEnv) generate(origin, ip, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func (e *testEnv) usage(t *testing.T, ip, day string) int {
	t.Helper()
	count, err := e.ledger.Usage(context.Background(), ip, day)
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	return count
}
