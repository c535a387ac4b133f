package client

import (
	"fmt"

	"go-classifieds/internal/domain"
)

type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewLine ViewMode = "line"
)

// RenderedItem PositionClass 形如 "item-3" / "item-3 vip"，只影响布局，不参与排序
type RenderedItem struct {
	domain.Announcement
	PositionClass string
}

// ComposeListing 展示集 = (items \ exceptions) 截断到 limit，顺序保持服务端给定。
// 视图模式只换容器布局，展示集不变。limit<=0 表示不截断。
func ComposeListing(items []domain.Announcement, exceptions []string, limit int, mode ViewMode) []RenderedItem {
	excluded := make(map[string]struct{}, len(exceptions))
	for _, id := range exceptions {
		excluded[id] = struct{}{}
	}

	out := make([]RenderedItem, 0, len(items))
	for _, a := range items {
		if _, skip := excluded[a.ID]; skip {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		cls := fmt.Sprintf("item-%d", len(out)+1)
		if a.Vip {
			cls += " vip"
		}
		out = append(out, RenderedItem{Announcement: a, PositionClass: cls})
	}
	return out
}

func ContainerClass(mode ViewMode) string {
	if mode == ViewLine {
		return "announcements-line"
	}
	return "announcements-grid"
}
