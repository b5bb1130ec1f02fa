package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// memoryResponses is an in-memory responseStore.
type memoryResponses struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryResponses() *memoryResponses {
	return &memoryResponses{data: make(map[string][]byte)}
}

func (m *memoryResponses) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (m *memoryResponses) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value.([]byte)...)
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryResponses) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

const testUserHeader = "X-Test-User"

func newIdempotentRouter(mw gin.HandlerFunc, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user := c.GetHeader(testUserHeader); user != "" {
			c.Set(userIDKey, user)
		}
		c.Next()
	})
	r.Use(mw)
	r.POST("/v1/rides/:id/book", func(c *gin.Context) {
		*calls++
		c.SetCookie(SessionCookie, "token-for-caller", 3600, "/", "", false, true)
		c.Header("Location", "/v1/rides/"+c.Param("id"))
		c.JSON(http.StatusCreated, gin.H{"call": *calls})
	})
	r.POST("/v1/fail", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	return r
}

func post(r http.Handler, path, user, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysForSameUser(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(idempotency(newMemoryResponses()), &calls)

	first := post(r, "/v1/rides/r1/book", "u1", "k1")
	if first.Code != http.StatusCreated || first.Header().Get("Set-Cookie") == "" {
		t.Fatalf("first response code=%d headers=%v", first.Code, first.Header())
	}

	replay := post(r, "/v1/rides/r1/book", "u1", "k1")
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if replay.Code != http.StatusCreated || replay.Body.String() != first.Body.String() {
		t.Fatalf("replay code=%d body=%s, want %d %s", replay.Code, replay.Body, first.Code, first.Body)
	}
	if replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("replay not marked")
	}
	if replay.Header().Get("Location") != "/v1/rides/r1" {
		t.Errorf("replay Location = %q", replay.Header().Get("Location"))
	}
	if got := replay.Header().Get("Set-Cookie"); got != "" {
		t.Errorf("replay carried Set-Cookie %q", got)
	}

	post(r, "/v1/rides/r1/book", "u2", "k1")
	if calls != 2 {
		t.Fatalf("same key from another user was replayed, calls=%d", calls)
	}
}

func TestIdempotency_AnonymousRequestsAreNotStored(t *testing.T) {
	store := newMemoryResponses()
	calls := 0
	r := newIdempotentRouter(idempotency(store), &calls)

	post(r, "/v1/rides/r1/book", "", "shared")
	second := post(r, "/v1/rides/r1/book", "", "shared")
	if calls != 2 || store.len() != 0 {
		t.Fatalf("calls=%d stored=%d, want 2 calls and nothing stored", calls, store.len())
	}
	if second.Header().Get("Idempotent-Replayed") != "" {
		t.Error("anonymous request was replayed")
	}
}

func TestIdempotency_ServerErrorsAreRetried(t *testing.T) {
	store := newMemoryResponses()
	calls := 0
	r := newIdempotentRouter(idempotency(store), &calls)

	post(r, "/v1/fail", "u1", "k1")
	post(r, "/v1/fail", "u1", "k1")
	if calls != 2 || store.len() != 0 {
		t.Fatalf("calls=%d stored=%d, want 2 calls and nothing stored", calls, store.len())
	}
}

func TestIdempotency_NilClientPassesThrough(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(IdempotencyMiddleware(nil), &calls)

	post(r, "/v1/rides/r1/book", "u1", "k1")
	post(r, "/v1/rides/r1/book", "u1", "k1")
	if calls != 2 {
		t.Fatalf("calls=%d, want 2", calls)
	}
}
