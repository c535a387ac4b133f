package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go-classifieds/internal/domain"
)

// ErrStaleRequest 响应晚于同槽位更新的请求到达，被丢弃
var ErrStaleRequest = errors.New("stale response discarded")

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

type ListState struct {
	Status Status
	Page   domain.Page
	Err    error
}

type DetailState struct {
	Status       Status
	Announcement *domain.Announcement
	Err          error
}

type Filter struct {
	Category   string
	Query      string
	PriceMin   int
	PriceMax   int
	Exceptions []string
}

// AnnouncementStore 列表/详情两个槽位，槽位各带单调递增请求序号。
// 只有序号仍是最新的响应才会落到状态里（last-request-wins）。
type AnnouncementStore struct {
	gw *Gateway

	mu        sync.Mutex
	listSeq   uint64
	detailSeq uint64
	list      ListState
	detail    DetailState

	creating bool
	updating bool
	created  *domain.Announcement // 创建成功后指向新资源，驱动详情页跳转
	updated  *domain.Announcement
}

func NewAnnouncementStore(gw *Gateway) *AnnouncementStore {
	return &AnnouncementStore{
		gw:     gw,
		list:   ListState{Status: StatusIdle},
		detail: DetailState{Status: StatusIdle},
	}
}

func (s *AnnouncementStore) ListState() ListState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list
}

func (s *AnnouncementStore) DetailState() DetailState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detail
}

// Created 最近一次创建结果；消费后用 ClearMutated 复位
func (s *AnnouncementStore) Created() *domain.Announcement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created
}

func (s *AnnouncementStore) Updated() *domain.Announcement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

func (s *AnnouncementStore) FetchList(ctx context.Context, f Filter, page, pageSize int) (*domain.Page, error) {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.list.Status = StatusLoading
	s.mu.Unlock()

	var out domain.Page
	err := s.gw.Get(ctx, "/announcement?"+listQuery(f, page, pageSize), &out)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.listSeq {
		return nil, ErrStaleRequest
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// 调用方已离开视图，不记失败
			s.list = ListState{Status: StatusIdle}
			return nil, err
		}
		s.list = ListState{Status: StatusFailed, Err: err}
		return nil, err
	}
	s.list = ListState{Status: StatusReady, Page: out}
	return &out, nil
}

func (s *AnnouncementStore) FetchOne(ctx context.Context, id string) (*domain.Announcement, error) {
	s.mu.Lock()
	s.detailSeq++
	seq := s.detailSeq
	s.detail.Status = StatusLoading
	s.mu.Unlock()

	var out domain.Announcement
	err := s.gw.Get(ctx, "/announcement/"+url.PathEscape(id), &out)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.detailSeq {
		return nil, ErrStaleRequest
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.detail = DetailState{Status: StatusIdle}
			return nil, err
		}
		s.detail = DetailState{Status: StatusFailed, Err: err}
		return nil, err
	}
	s.detail = DetailState{Status: StatusReady, Announcement: &out}
	return &out, nil
}

func (s *AnnouncementStore) Create(ctx context.Context, p CreatePayload) (*domain.Announcement, error) {
	if fields := p.Validate(); len(fields) > 0 {
		return nil, domain.NewValidation(fields)
	}
	body, contentType, err := encodeMultipart(p.AnnouncementFields, &p.Image)
	if err != nil {
		return nil, domain.NewInternal(err)
	}

	s.setCreating(true)
	defer s.setCreating(false)

	var out domain.Announcement
	if err := s.gw.Multipart(ctx, http.MethodPost, "/announcement", body, contentType, &out); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.created = &out
	s.mu.Unlock()
	return &out, nil
}

func (s *AnnouncementStore) Update(ctx context.Context, id string, p UpdatePayload) (*domain.Announcement, error) {
	if fields := p.Validate(); len(fields) > 0 {
		return nil, domain.NewValidation(fields)
	}
	body, contentType, err := encodeMultipart(p.AnnouncementFields, p.Image)
	if err != nil {
		return nil, domain.NewInternal(err)
	}

	s.setUpdating(true)
	defer s.setUpdating(false)

	var out domain.Announcement
	if err := s.gw.Multipart(ctx, http.MethodPatch, "/announcement/"+url.PathEscape(id), body, contentType, &out); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.updated = &out
	s.mu.Unlock()
	return &out, nil
}

func (s *AnnouncementStore) Delete(ctx context.Context, id string) error {
	return s.gw.Delete(ctx, "/announcement/"+url.PathEscape(id))
}

// ClearDetail 离开详情/编辑视图时调用；序号一并前进，
// 在途的详情响应到达后按 stale 丢弃，不会泄漏进下一个创建流程。
func (s *AnnouncementStore) ClearDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailSeq++
	s.detail = DetailState{Status: StatusIdle}
}

func (s *AnnouncementStore) ClearMutated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = nil
	s.updated = nil
}

func (s *AnnouncementStore) IsCreating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creating
}

func (s *AnnouncementStore) IsUpdating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updating
}

func (s *AnnouncementStore) setCreating(v bool) {
	s.mu.Lock()
	s.creating = v
	s.mu.Unlock()
}

func (s *AnnouncementStore) setUpdating(v bool) {
	s.mu.Lock()
	s.updating = v
	s.mu.Unlock()
}

func listQuery(f Filter, page, pageSize int) string {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.PriceMin > 0 {
		q.Set("priceMin", strconv.Itoa(f.PriceMin))
	}
	if f.PriceMax > 0 {
		q.Set("priceMax", strconv.Itoa(f.PriceMax))
	}
	if len(f.Exceptions) > 0 {
		q.Set("exceptions", strings.Join(f.Exceptions, ","))
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	return q.Encode()
}
