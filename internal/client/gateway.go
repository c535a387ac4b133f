package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"go-classifieds/internal/domain"
)

// Gateway 薄请求层：挂 access token，401 时触发一次续期并重放。
// 并发触发的续期经 singleflight 合并，同一个 refresh token 只换一次。
type Gateway struct {
	base   string
	http   *http.Client
	tokens *TokenStore
	sf     singleflight.Group
}

func NewGateway(base string, tokens *TokenStore) *Gateway {
	return &Gateway{
		base:   base,
		http:   &http.Client{Timeout: 30 * time.Second},
		tokens: tokens,
	}
}

// bodyFn 重放请求时重建 body
type bodyFn func() (io.Reader, string)

func noBody() (io.Reader, string) { return nil, "" }

func jsonBody(v any) (bodyFn, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return func() (io.Reader, string) { return bytes.NewReader(b), "application/json" }, nil
}

func bytesBody(b []byte, contentType string) bodyFn {
	return func() (io.Reader, string) { return bytes.NewReader(b), contentType }
}

// wireError 服务端结构化错误体，还原为 domain.Error，保留 kind/fields
type wireError struct {
	Error struct {
		Kind    domain.Kind       `json:"kind"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func (g *Gateway) Get(ctx context.Context, path string, out any) error {
	return g.call(ctx, http.MethodGet, path, noBody, false, out)
}

func (g *Gateway) PostJSON(ctx context.Context, path string, in, out any, auth bool) error {
	mk, err := jsonBody(in)
	if err != nil {
		return domain.NewInternal(err)
	}
	return g.call(ctx, http.MethodPost, path, mk, auth, out)
}

// PostJSONCookies 同 PostJSON，但把响应 cookie 一并带回（register/login 取 refresh token 用）
func (g *Gateway) PostJSONCookies(ctx context.Context, path string, in, out any) ([]*http.Cookie, error) {
	mk, err := jsonBody(in)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	res, err := g.doOnce(ctx, http.MethodPost, path, mk, false, "")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	cookies := res.Cookies()
	if err := decodeResponse(res, out); err != nil {
		return nil, err
	}
	return cookies, nil
}

func (g *Gateway) Multipart(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	return g.call(ctx, method, path, bytesBody(body, contentType), true, out)
}

func (g *Gateway) Delete(ctx context.Context, path string) error {
	return g.call(ctx, http.MethodDelete, path, noBody, true, nil)
}

func (g *Gateway) call(ctx context.Context, method, path string, mk bodyFn, auth bool, out any) error {
	access := g.tokens.Access()
	res, err := g.doOnce(ctx, method, path, mk, auth, access)
	if err != nil {
		return err
	}

	if res.StatusCode == http.StatusUnauthorized && auth {
		io.Copy(io.Discard, res.Body)
		res.Body.Close()

		if err := g.renew(ctx, access); err != nil {
			// 只有明确的鉴权失败才是终态；网络抖动保留令牌，由用户重试
			if domain.IsKind(err, domain.KindAuth) {
				_ = g.tokens.Clear()
			}
			return err
		}
		res, err = g.doOnce(ctx, method, path, mk, auth, g.tokens.Access())
		if err != nil {
			return err
		}
		if res.StatusCode == http.StatusUnauthorized {
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
			_ = g.tokens.Clear()
			return domain.NewAuth("unauthorized after refresh")
		}
	}

	defer res.Body.Close()
	return decodeResponse(res, out)
}

func (g *Gateway) doOnce(ctx context.Context, method, path string, mk bodyFn, auth bool, access string) (*http.Response, error) {
	body, contentType := mk()
	req, err := http.NewRequestWithContext(ctx, method, g.base+path, body)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth && access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	// 浏览器会自动带 cookie，这里手动补上（logout 撤销 refresh token 依赖它）
	if rt := g.tokens.Refresh(); rt != "" {
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: rt})
	}
	res, err := g.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewNetwork(err)
	}
	return res, nil
}

// renew 只允许一个在途续期；usedAccess 用来识别“别人已经续完”的情况
func (g *Gateway) renew(ctx context.Context, usedAccess string) error {
	_, err, _ := g.sf.Do("refresh", func() (any, error) {
		// 在等锁期间令牌已被同伴换新，直接复用
		if cur := g.tokens.Access(); cur != "" && cur != usedAccess {
			return nil, nil
		}
		refresh := g.tokens.Refresh()
		if refresh == "" {
			return nil, domain.NewAuth("no refresh token")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base+"/user/refresh", nil)
		if err != nil {
			return nil, domain.NewInternal(err)
		}
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
		res, err := g.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, domain.NewNetwork(err)
		}
		defer res.Body.Close()

		var out struct {
			AccessToken string `json:"accessToken"`
		}
		if err := decodeResponse(res, &out); err != nil {
			return nil, err
		}
		newRefresh := ""
		for _, ck := range res.Cookies() {
			if ck.Name == "refreshToken" {
				newRefresh = ck.Value
			}
		}
		return nil, g.tokens.Set(out.AccessToken, newRefresh)
	})
	return err
}

func decodeResponse(res *http.Response, out any) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if out == nil || res.StatusCode == http.StatusNoContent {
			io.Copy(io.Discard, res.Body)
			return nil
		}
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return domain.NewInternal(err)
		}
		return nil
	}

	var we wireError
	if err := json.NewDecoder(res.Body).Decode(&we); err == nil && we.Error.Kind != "" {
		return &domain.Error{
			Kind:    we.Error.Kind,
			Message: we.Error.Message,
			Fields:  we.Error.Fields,
		}
	}
	return domain.NewInternal(fmt.Errorf("unexpected status %d", res.StatusCode))
}
