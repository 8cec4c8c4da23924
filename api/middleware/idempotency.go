package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storedash-backend/api/responses"
	"github.com/angelmondragon/storedash-backend/api/validators"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storedash-backend/pkg/redis"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	defaultIdempotencyTTL = 24 * time.Hour
	// settleTimeout bounds the Redis write that finishes a request. It runs
	// detached from the request context so a disconnect cannot strand a key.
	settleTimeout = 5 * time.Second
)

// idempotentRoutes lists the routes that require an Idempotency-Key, keyed
// by "METHOD pattern".
var idempotentRoutes = map[string]time.Duration{
	"POST /api/v1/categories": defaultIdempotencyTTL,
	"POST /api/v1/products":   defaultIdempotencyTTL,
	"POST /api/v1/orders":     defaultIdempotencyTTL,
}

// idempotencyRecord is what Redis holds per key. A Pending record marks a
// request that is still running.
type idempotencyRecord struct {
	RequestHash string `json:"request_hash"`
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
}

// Idempotency makes the create routes safe to retry. The first request with
// a key reserves it and runs. Repeats with the same body replay the stored
// response. Repeats with a different body, or while the first is still
// running, get IDEMPOTENCY_KEY_REUSED. A 5xx releases the key.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	g := &idempotencyGuard{store: store, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(w, r, next)
		})
	}
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ttl, ok := routeTTL(r.Method, patternOrPath(r))
	if !ok || g.store == nil {
		next.ServeHTTP(w, r)
		return
	}
	ctx := r.Context()

	clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if clientKey == "" {
		g.fail(ctx, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validators.MaxBodyBytes))
	if err != nil {
		g.fail(ctx, w, bodyReadError(err))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	hash := hashBody(body)
	key := g.store.IdempotencyKey(requestScope(r), clientKey)

	acquired, existing, err := g.reserve(ctx, key, hash, ttl)
	if err != nil {
		g.fail(ctx, w, err)
		return
	}
	if !acquired {
		g.replay(ctx, w, existing, hash)
		return
	}

	// A panicking handler never reaches settle. Free the key before the
	// panic continues to the recoverer.
	defer func() {
		if rec := recover(); rec != nil {
			g.release(ctx, key)
			panic(rec)
		}
	}()

	var captured bytes.Buffer
	ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	ww.Tee(&captured)
	next.ServeHTTP(ww, r)

	g.settle(ctx, key, ttl, idempotencyRecord{
		RequestHash: hash,
		Status:      statusOf(ww),
		ContentType: ww.Header().Get("Content-Type"),
		Body:        captured.Bytes(),
	})
}

// reserve claims key with a pending record. When the key is already taken it
// returns the stored record instead.
func (g *idempotencyGuard) reserve(ctx context.Context, key, hash string, ttl time.Duration) (bool, string, error) {
	stored, err := g.store.Get(ctx, key)
	switch {
	case err == nil:
		return false, stored, nil
	case !errors.Is(err, redis.Nil):
		return false, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}

	pending, err := json.Marshal(idempotencyRecord{RequestHash: hash, Pending: true})
	if err != nil {
		return false, "", err
	}
	acquired, err := g.store.SetNX(ctx, key, string(pending), ttl)
	if err != nil {
		return false, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key")
	}
	if acquired {
		return true, "", nil
	}

	stored, err = g.store.Get(ctx, key)
	if err != nil {
		return false, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	return false, stored, nil
}

// settle stores the final response, or frees the key after a server error so
// the client can retry.
func (g *idempotencyGuard) settle(ctx context.Context, key string, ttl time.Duration, record idempotencyRecord) {
	if record.Status >= http.StatusInternalServerError {
		g.release(ctx, key)
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		g.logIfErr(ctx, "idempotency.encode_failed", err)
		g.release(ctx, key)
		return
	}
	sctx, cancel := detached(ctx)
	defer cancel()
	g.logIfErr(ctx, "idempotency.persist_failed", g.store.Set(sctx, key, string(payload), ttl))
}

func (g *idempotencyGuard) release(ctx context.Context, key string) {
	sctx, cancel := detached(ctx)
	defer cancel()
	g.logIfErr(ctx, "idempotency.release_failed", g.store.Del(sctx, key))
}

// detached keeps ctx's values but not its cancellation.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

func bodyReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large").
			WithDetails(map[string]any{"limit_bytes": tooLarge.Limit})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body")
}

func (g *idempotencyGuard) replay(ctx context.Context, w http.ResponseWriter, stored, hash string) {
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		g.fail(ctx, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case record.RequestHash != hash:
		g.fail(ctx, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.Pending:
		g.fail(ctx, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.WriteHeader(record.Status)
		_, _ = w.Write(record.Body)
	}
}

func (g *idempotencyGuard) fail(ctx context.Context, w http.ResponseWriter, err error) {
	responses.WriteError(ctx, g.logg, w, err)
}

func (g *idempotencyGuard) logIfErr(ctx context.Context, msg string, err error) {
	if g.logg != nil && err != nil {
		g.logg.Error(ctx, msg, err)
	}
}

// requestScope binds a key to the caller, the tenant and the route.
func requestScope(r *http.Request) string {
	ctx := r.Context()
	return strings.Join([]string{
		UserIDFromContext(ctx),
		StoreIDFromContext(ctx),
		r.Method,
		r.URL.Path,
	}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	if pattern != "/" {
		pattern = strings.TrimSuffix(pattern, "/")
	}
	ttl, ok := idempotentRoutes[method+" "+pattern]
	return ttl, ok
}

// patternOrPath prefers the chi pattern so parameterised routes match.
func patternOrPath(r *http.Request) string {
	if pattern := routePattern(r); pattern != "" {
		return pattern
	}
	return r.URL.Path
}
