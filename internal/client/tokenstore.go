package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// TokenStore 进程内唯一可变凭证状态；显式注入，不做包级全局。
// 落盘保证重启后会话仍在。
type TokenStore struct {
	mu      sync.Mutex
	path    string // 为空则只存内存（测试用）
	access  string
	refresh string
}

type tokenFile struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func NewTokenStore(path string) (*TokenStore, error) {
	s := &TokenStore{path: path}
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	var f tokenFile
	if err := json.Unmarshal(b, &f); err != nil {
		// 文件损坏按空会话处理
		return s, nil
	}
	s.access, s.refresh = f.AccessToken, f.RefreshToken
	return s, nil
}

func (s *TokenStore) Access() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

func (s *TokenStore) Refresh() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

func (s *TokenStore) Set(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	if refresh != "" {
		s.refresh = refresh
	}
	return s.persist()
}

func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = "", ""
	return s.persist()
}

// persist 临时文件 + rename，半写文件不会出现
func (s *TokenStore) persist() error {
	if s.path == "" {
		return nil
	}
	b, err := json.Marshal(tokenFile{AccessToken: s.access, RefreshToken: s.refresh})
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
