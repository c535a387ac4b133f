package client

import (
	"context"
	"sync"

	"go-classifieds/internal/domain"
)

type SessionState string

const (
	StateAnonymous      SessionState = "anonymous"
	StateAuthenticating SessionState = "authenticating"
	StateAuthenticated  SessionState = "authenticated"
	StateRefreshing     SessionState = "refreshing"
)

// SessionManager 会话生命周期；TokenStore 只由这里和续期路径写
type SessionManager struct {
	mu     sync.Mutex
	gw     *Gateway
	tokens *TokenStore
	state  SessionState
	user   *domain.User
}

func NewSessionManager(gw *Gateway, tokens *TokenStore) *SessionManager {
	state := StateAnonymous
	if tokens.Access() != "" {
		state = StateAuthenticated
	}
	return &SessionManager{gw: gw, tokens: tokens, state: state}
}

func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncWithTokens()
	return m.state
}

func (m *SessionManager) CurrentUser() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncWithTokens()
	return m.user
}

// syncWithTokens Gateway 在终态鉴权失败时直接清空 TokenStore，
// 这里把已失效的会话同步成 anonymous。调用方需持锁。
func (m *SessionManager) syncWithTokens() {
	if m.state == StateAuthenticated && m.tokens.Access() == "" {
		m.state = StateAnonymous
		m.user = nil
	}
}

type authOut struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

func (m *SessionManager) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return m.authenticate(ctx, "/user/register", map[string]string{
		"name": name, "email": email, "password": password,
	})
}

func (m *SessionManager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return m.authenticate(ctx, "/user/login", map[string]string{
		"email": email, "password": password,
	})
}

func (m *SessionManager) authenticate(ctx context.Context, path string, in map[string]string) (*domain.User, error) {
	m.setState(StateAuthenticating)

	var out authOut
	cookies, err := m.gw.PostJSONCookies(ctx, path, in, &out)
	if err != nil {
		m.toAnonymous()
		return nil, err
	}
	refresh := ""
	for _, ck := range cookies {
		if ck.Name == "refreshToken" {
			refresh = ck.Value
		}
	}
	if err := m.tokens.Set(out.AccessToken, refresh); err != nil {
		m.toAnonymous()
		return nil, domain.NewInternal(err)
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = out.User
	m.mu.Unlock()
	return out.User, nil
}

// Logout 无条件清本地令牌：用户意图是结束会话，网络失败不改变这一点
func (m *SessionManager) Logout(ctx context.Context) error {
	err := m.gw.PostJSON(ctx, "/user/logout", struct{}{}, nil, true)
	_ = m.tokens.Clear()
	m.toAnonymous()
	if err != nil && !domain.IsKind(err, domain.KindAuth) {
		return err
	}
	return nil
}

// RefreshNow 显式续期；失败即终态，回到 anonymous
func (m *SessionManager) RefreshNow(ctx context.Context) error {
	m.setState(StateRefreshing)
	if err := m.gw.renew(ctx, m.tokens.Access()); err != nil {
		if domain.IsKind(err, domain.KindAuth) {
			_ = m.tokens.Clear()
			m.toAnonymous()
		} else {
			m.setState(StateAuthenticated)
		}
		return err
	}
	m.setState(StateAuthenticated)
	return nil
}

func (m *SessionManager) Activate(ctx context.Context, code string) error {
	return m.gw.Get(ctx, "/user/activate/"+code, nil)
}

func (m *SessionManager) setState(s SessionState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *SessionManager) toAnonymous() {
	m.mu.Lock()
	m.state = StateAnonymous
	m.user = nil
	m.mu.Unlock()
}
