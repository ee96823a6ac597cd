package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clawguard/clawguard/internal/authn"
)

// IdempotencyMiddleware replays a cached response for a repeated
// Idempotency-Key, so a caller retrying a PUT /policy after a dropped
// connection doesn't double-apply it.
type IdempotencyMiddleware struct {
	redis  *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewIdempotencyMiddleware creates a new idempotency middleware.
func NewIdempotencyMiddleware(redisClient *redis.Client, logger *zap.Logger) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{
		redis:  redisClient,
		logger: logger,
		ttl:    24 * time.Hour,
	}
}

// IdempotencyResult stores the cached result of an idempotent request.
type IdempotencyResult struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
	Timestamp  time.Time           `json:"timestamp"`
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
}

func (r *responseRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
		r.ResponseWriter.WriteHeader(code)
	}
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Middleware returns the HTTP middleware function.
func (im *IdempotencyMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		idempotencyKey := r.Header.Get("Idempotency-Key")
		if idempotencyKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		cacheKey := im.generateCacheKey(r, idempotencyKey)

		if cached, err := im.getCachedResult(ctx, cacheKey); err == nil && cached != nil {
			im.logger.Debug("returning cached idempotent response",
				zap.String("idempotency_key", idempotencyKey),
				zap.String("path", r.URL.Path),
			)
			for key, values := range cached.Headers {
				for _, value := range values {
					w.Header().Add(key, value)
				}
			}
			w.Header().Set("X-Idempotency-Cached", "true")
			w.Header().Set("X-Idempotency-Key", idempotencyKey)
			w.WriteHeader(cached.StatusCode)
			w.Write(cached.Body)
			return
		}

		recorder := newResponseRecorder(w)
		next.ServeHTTP(recorder, r)

		if recorder.statusCode >= 200 && recorder.statusCode < 300 {
			result := &IdempotencyResult{
				StatusCode: recorder.statusCode,
				Headers:    recorder.Header(),
				Body:       recorder.body.Bytes(),
				Timestamp:  time.Now(),
			}
			if err := im.cacheResult(ctx, cacheKey, result); err != nil {
				im.logger.Error("failed to cache idempotent response", zap.Error(err),
					zap.String("idempotency_key", idempotencyKey))
			}
		}
	})
}

func (im *IdempotencyMiddleware) generateCacheKey(r *http.Request, idempotencyKey string) string {
	agentID := ""
	if id := authn.FromContext(r.Context()); id != nil {
		agentID = id.AgentID
	}

	h := sha256.New()
	h.Write([]byte(idempotencyKey))
	h.Write([]byte(agentID))
	h.Write([]byte(r.URL.Path))

	if r.Body != nil {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		h.Write(body)
	}

	hash := hex.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("idempotency:%s", hash[:16])
}

func (im *IdempotencyMiddleware) getCachedResult(ctx context.Context, key string) (*IdempotencyResult, error) {
	data, err := im.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var result IdempotencyResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (im *IdempotencyMiddleware) cacheResult(ctx context.Context, key string, result *IdempotencyResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return im.redis.Set(ctx, key, data, im.ttl).Err()
}

// ServeHTTP implements http.Handler.
func (im *IdempotencyMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
	w.Write([]byte(`{"error":"direct access not allowed"}`))
}
