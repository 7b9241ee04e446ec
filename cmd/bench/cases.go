// README: Bench cases; pricing, geocoding, tracking and settings endpoints plus DB/Redis and throughput checks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
			defer db.Close()
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
		defer func() { _ = r.redis.Close() }()
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

var (
	benchPickup   = map[string]float64{"latitude": -7.119, "longitude": -34.908}
	benchDelivery = map[string]float64{"latitude": -7.115, "longitude": -34.905}
)

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	preview := map[string]any{
		"pickup_coordinates":   benchPickup,
		"delivery_coordinates": benchDelivery,
		"apply_surge":          false,
	}
	position := map[string]any{"name": "Bench", "location": benchDelivery}

	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "dsn not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: settings table exists",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "dsn not configured"}
				}
				var exists bool
				err := r.db.QueryRow(ctx,
					"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
					"settings",
				).Scan(&exists)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if !exists {
					return Result{Status: statusFail, Note: "missing table: settings"}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},

		httpCase("API: health", http.MethodGet, base+"/health", nil, http.StatusOK, nil),

		// Pricing
		httpCase("Pricing: short trip clamps to minimum", http.MethodPost, base+"/api/pricing/preview", preview, http.StatusOK,
			func(body []byte) error {
				var q struct {
					Route struct {
						DistanceKm float64 `json:"distance_km"`
					} `json:"route"`
					Pricing struct {
						TotalFare float64 `json:"total_fare"`
						Clamp     string  `json:"clamp"`
					} `json:"pricing"`
				}
				if err := json.Unmarshal(body, &q); err != nil {
					return err
				}
				if q.Route.DistanceKm != 0.72 || q.Pricing.Clamp != "minimum" {
					return fmt.Errorf("distance=%.2f clamp=%q", q.Route.DistanceKm, q.Pricing.Clamp)
				}
				return nil
			}),
		httpCase("Pricing: missing pickup -> 400", http.MethodPost, base+"/api/pricing/preview", map[string]any{
			"delivery_coordinates": benchDelivery,
		}, http.StatusBadRequest, nil),
		httpCase("Pricing: invalid coordinates -> 400", http.MethodPost, base+"/api/pricing/preview", map[string]any{
			"pickup_coordinates":   map[string]float64{"latitude": 123, "longitude": 456},
			"delivery_coordinates": benchDelivery,
		}, http.StatusBadRequest, nil),
		httpCase("Pricing: unknown quote -> 404", http.MethodGet, base+"/api/quotes/00000000-0000-0000-0000-000000000000", nil, http.StatusNotFound, nil),
		httpCase("Settings: read pricing schedule", http.MethodGet, base+"/api/settings/pricing", nil, http.StatusOK, nil),

		// Geocoding
		httpCase("Geocode: empty address -> 400", http.MethodGet, base+"/api/geocode?address=", nil, http.StatusBadRequest, nil),

		// Tracking
		httpCase("Tracking: update position", http.MethodPut, base+"/api/deliverers/bench-1/location", position, http.StatusOK, nil),
		httpCase("Tracking: invalid position -> 400", http.MethodPut, base+"/api/deliverers/bench-1/location", map[string]any{
			"location": map[string]float64{"latitude": 0, "longitude": 200},
		}, http.StatusBadRequest, nil),
		httpCase("Tracking: nearest uses tracked deliverers", http.MethodPost, base+"/api/deliverers/nearest", map[string]any{
			"pickup_location": benchPickup,
		}, http.StatusOK, nil),
		{
			Name: "Tracking: position indexed in Redis",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				pos, err := r.redis.GeoPos(ctx, "tracking:deliverers", "bench-1").Result()
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if len(pos) == 0 || pos[0] == nil {
					return Result{Status: statusFail, Note: "bench-1 not in GEO index"}
				}
				return Result{Status: statusPass, Note: fmt.Sprintf("lat=%.4f lng=%.4f", pos[0].Latitude, pos[0].Longitude)}
			},
		},

		// Performance
		{
			Name: "Perf: preview throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodPost, base+"/api/pricing/preview", preview)
			},
		},
		{
			Name: "Perf: position update throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodPut, base+"/api/deliverers/bench-1/location", position)
			},
		},
	}
}

func httpCase(name, method, url string, body any, want int, check func([]byte) error) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			start := time.Now()
			status, respBody, err := r.do(ctx, method, url, body)
			latency := time.Since(start)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if status != want {
				return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d want=%d", status, want)}
			}
			if check != nil {
				if err := check(respBody); err != nil {
					return Result{Status: statusFail, Latency: latency, Note: err.Error()}
				}
			}
			return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", status)}
		},
	}
}

func (r *Runner) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, err
}

func perfLoad(ctx context.Context, r *Runner, method, url string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var ok, failed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				status, _, err := r.do(ctx, method, url, payload)
				if err != nil || status >= 300 {
					failed.Add(1)
					continue
				}
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	if ok.Load() == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(ok.Load()) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, failed.Load())}
}
