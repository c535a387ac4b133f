package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-classifieds/internal/domain"
)

// authServer 模拟服务端的 access/refresh 生命周期，refresh token 旋转一次性
type authServer struct {
	mu           sync.Mutex
	access       string
	refresh      string
	refreshCalls int64
}

func (a *authServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /user/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&a.refreshCalls, 1)
		ck, err := r.Cookie("refreshToken")
		a.mu.Lock()
		defer a.mu.Unlock()
		if err != nil || ck.Value != a.refresh {
			writeWireError(w, http.StatusUnauthorized, domain.KindAuth, "invalid refresh token")
			return
		}
		a.access += "x"
		a.refresh += "x"
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: a.refresh})
		json.NewEncoder(w).Encode(map[string]string{"accessToken": a.access})
	})

	mux.HandleFunc("POST /protected", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		ok := r.Header.Get("Authorization") == "Bearer "+a.access
		a.mu.Unlock()
		if !ok {
			writeWireError(w, http.StatusUnauthorized, domain.KindAuth, "token expired")
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"ok": "1"})
	})

	return mux
}

func writeWireError(w http.ResponseWriter, status int, kind domain.Kind, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"kind": kind, "message": msg},
	})
}

func newAuthGateway(t *testing.T, srv *authServer) (*Gateway, *TokenStore, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)
	tokens, err := NewTokenStore("")
	require.NoError(t, err)
	return NewGateway(ts.URL, tokens), tokens, ts
}

func TestConcurrentExpiredCallsRenewOnce(t *testing.T) {
	srv := &authServer{access: "good", refresh: "r1"}
	gw, tokens, _ := newAuthGateway(t, srv)

	// 本地持有过期 access，refresh 有效
	require.NoError(t, tokens.Set("stale", "r1"))

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out map[string]string
			errs[i] = gw.PostJSON(context.Background(), "/protected", struct{}{}, &out, true)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "call %d", i)
	}
	// refresh token 旋转一次性：第二次续期必然失败，所以恰好一次即是正确性而非优化
	assert.Equal(t, int64(1), atomic.LoadInt64(&srv.refreshCalls))
	assert.Equal(t, "goodx", tokens.Access())
	assert.Equal(t, "r1x", tokens.Refresh())
}

func TestRenewThenRetrySequential(t *testing.T) {
	srv := &authServer{access: "good", refresh: "r1"}
	gw, tokens, _ := newAuthGateway(t, srv)
	require.NoError(t, tokens.Set("stale", "r1"))

	var out map[string]string
	require.NoError(t, gw.PostJSON(context.Background(), "/protected", struct{}{}, &out, true))
	assert.Equal(t, "1", out["ok"])

	// 第二次调用直接用新 access，不再触发续期
	require.NoError(t, gw.PostJSON(context.Background(), "/protected", struct{}{}, &out, true))
	assert.Equal(t, int64(1), atomic.LoadInt64(&srv.refreshCalls))
}

func TestTerminalAuthFailureClearsTokens(t *testing.T) {
	srv := &authServer{access: "good", refresh: "server-side-revoked"}
	gw, tokens, _ := newAuthGateway(t, srv)
	require.NoError(t, tokens.Set("stale", "revoked-locally-held"))

	var out map[string]string
	err := gw.PostJSON(context.Background(), "/protected", struct{}{}, &out, true)
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
	assert.Empty(t, tokens.Access(), "terminal auth failure clears the session")
	assert.Empty(t, tokens.Refresh())
}

func TestRenewNetworkFailureKeepsTokens(t *testing.T) {
	srv := &authServer{access: "good", refresh: "r1"}
	gw, tokens, ts := newAuthGateway(t, srv)
	require.NoError(t, tokens.Set("stale", "r1"))

	// 首个 401 之后续期遇到网络故障
	ts.Close()

	var out map[string]string
	err := gw.PostJSON(context.Background(), "/protected", struct{}{}, &out, true)
	require.Error(t, err)
	assert.NotEqual(t, domain.KindAuth, domain.KindOf(err))
	// 网络抖动不清令牌，用户重试即可
	assert.Equal(t, "stale", tokens.Access())
	assert.Equal(t, "r1", tokens.Refresh())
}

func TestErrorBodyDecodesIntoKinds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /missing", func(w http.ResponseWriter, r *http.Request) {
		writeWireError(w, http.StatusNotFound, domain.KindNotFound, "announcement not found")
	})
	mux.HandleFunc("GET /invalid", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"kind":    domain.KindValidation,
				"message": "validation failed",
				"fields":  map[string]string{"title": "Min length: 3"},
			},
		})
	})
	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream says no"))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	tokens, err := NewTokenStore("")
	require.NoError(t, err)
	gw := NewGateway(ts.URL, tokens)
	ctx := context.Background()

	err = gw.Get(ctx, "/missing", nil)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	err = gw.Get(ctx, "/invalid", nil)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.KindValidation, de.Kind)
	assert.Equal(t, "Min length: 3", de.Fields["title"])

	// 非结构化错误体归为 internal
	err = gw.Get(ctx, "/broken", nil)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func TestUnauthenticatedGetSkipsRenewal(t *testing.T) {
	srv := &authServer{access: "good", refresh: "r1"}
	mux := http.NewServeMux()
	mux.Handle("/", srv.handler())
	mux.HandleFunc("GET /public", func(w http.ResponseWriter, r *http.Request) {
		writeWireError(w, http.StatusUnauthorized, domain.KindAuth, "nope")
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	tokens, err := NewTokenStore("")
	require.NoError(t, err)
	require.NoError(t, tokens.Set("stale", "r1"))
	gw := NewGateway(ts.URL, tokens)

	err = gw.Get(context.Background(), "/public", nil)
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
	assert.Zero(t, atomic.LoadInt64(&srv.refreshCalls), "public calls never renew")
	assert.Equal(t, "stale", tokens.Access(), "public 401 does not clear the session")
}
