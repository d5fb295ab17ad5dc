// Package main implements a mock trade API server for local development.
// It serves canned reference data, query submission and listing fetches so
// sidekick can run without the real trade site. Failures and throttling can
// be injected to exercise the retry and rate limit paths.
package main

import (
	"crypto/sha1" //nolint:gosec // deterministic ids, not security
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// resultsPerQuery is the number of ids every submitted query matches.
const resultsPerQuery = 25

var builtinData = map[string]string{
	"leagues": `[{"id":"Standard","realm":"pc","text":"Standard"},` +
		`{"id":"Hardcore","realm":"pc","text":"Hardcore"},` +
		`{"id":"Settlers","realm":"pc","text":"Settlers"}]`,
	"static": `[{"id":"Currency","label":"Currency","entries":[` +
		`{"id":"chaos","text":"Chaos Orb"},{"id":"divine","text":"Divine Orb"}]}]`,
	"stats": `[{"id":"pseudo","label":"Pseudo","entries":[` +
		`{"id":"pseudo.pseudo_total_life","text":"+# total maximum Life","type":"pseudo"}]}]`,
	"items": `[{"id":"accessory","label":"Accessories","entries":[` +
		`{"name":"Mageblood","type":"Heavy Belt","text":"Mageblood Heavy Belt","flags":{"unique":true}}]}]`,
}

// server holds the mock state. failFirst and throttleEvery count down
// across requests.
type server struct {
	logger        *slog.Logger
	data          map[string]json.RawMessage
	mu            sync.Mutex
	failFirst     int
	throttleEvery int
	requests      int
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureDir := flag.String("fixtures", "", "directory of <collection>.json files overriding the built-in data")
	failFirst := flag.Int("fail-first", 0, "answer the first N reference data requests with 503")
	throttleEvery := flag.Int("throttle-every", 0, "answer every Nth request with 429 and Retry-After")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	data, err := loadData(*fixtureDir)
	if err != nil {
		logger.Error("failed to load fixtures", "dir", *fixtureDir, "error", err)
		os.Exit(1)
	}

	s := &server{
		logger:        logger,
		data:          data,
		failFirst:     *failFirst,
		throttleEvery: *throttleEvery,
	}

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock trade server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, s.routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// loadData returns the built-in collections, replaced by any
// <collection>.json found in dir.
func loadData(dir string) (map[string]json.RawMessage, error) {
	data := make(map[string]json.RawMessage, len(builtinData))
	for kind, raw := range builtinData {
		data[kind] = json.RawMessage(raw)
	}
	if dir == "" {
		return data, nil
	}

	for kind := range builtinData {
		path := filepath.Join(dir, kind+".json")
		raw, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("parsing %s: invalid JSON", path)
		}
		data[kind] = raw
	}
	return data, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /data/{kind}", s.dataHandler)
	mux.HandleFunc("POST /search/{league}", s.submitHandler(false))
	mux.HandleFunc("POST /exchange/{league}", s.submitHandler(true))
	mux.HandleFunc("GET /fetch/{ids}", s.fetchHandler)
	mux.HandleFunc("GET /fetch/", s.fetchHandler)
	return s.throttle(mux)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func (s *server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		throttled := s.throttleEvery > 0 && s.requests%s.throttleEvery == 0
		s.mu.Unlock()

		if throttled {
			s.logger.Warn("throttling request", "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{"code": 3, "message": "Rate limit exceeded"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) dataHandler(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	raw, ok := s.data[kind]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"code": 1, "message": "Resource not found"},
		})
		return
	}

	s.mu.Lock()
	fail := s.failFirst > 0
	if fail {
		s.failFirst--
	}
	s.mu.Unlock()

	if fail {
		s.logger.Warn("injected reference data failure", "kind", kind)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": map[string]any{"code": 6, "message": "Service unavailable"},
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"result": raw})
}

// submitHandler answers a search or exchange POST. The exchange endpoint
// keys its result by id, the search endpoint returns an array.
func (s *server) submitHandler(exchange bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{"code": 2, "message": "Invalid query"},
			})
			return
		}

		token := queryToken(r.PathValue("league"), body)
		ids := resultIDs(token, resultsPerQuery)

		resp := map[string]any{"id": token, "total": len(ids) * 4}
		if exchange {
			keyed := make(map[string]any, len(ids))
			for _, id := range ids {
				keyed[id] = map[string]any{"id": id}
			}
			resp["result"] = keyed
		} else {
			resp["result"] = ids
		}

		s.logger.Info("query submitted", "league", r.PathValue("league"), "exchange", exchange, "id", token)
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *server) fetchHandler(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.PathValue("ids"), ",") {
		if id != "" {
			ids = append(ids, id)
		}
	}

	results := make([]map[string]any, 0, len(ids))
	for i, id := range ids {
		results = append(results, map[string]any{
			"id": id,
			"listing": map[string]any{
				"method":  "psapi",
				"indexed": time.Date(2024, 1, 1, 12, 0, i, 0, time.UTC).Format(time.RFC3339),
				"account": map[string]any{"name": "seller" + strconv.Itoa(i)},
				"price": map[string]any{
					"type":     "~price",
					"amount":   priceFor(id),
					"currency": "chaos",
				},
			},
			"item": map[string]any{"id": id},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": results})
}

func queryToken(league string, body []byte) string {
	sum := sha1.Sum(append([]byte(league+":"), body...)) //nolint:gosec // deterministic ids, not security
	return hex.EncodeToString(sum[:])[:10]
}

func resultIDs(token string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%02d", token, i)
	}
	return ids
}

// priceFor derives a stable price from id.
func priceFor(id string) int {
	sum := 0
	for _, c := range id {
		sum += int(c)
	}
	return 1 + sum%200
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}
