package store

import (
	"context"
	"time"

	"blogium/models"
)

// SiteStats aggregates platform-wide counters for the stats endpoint.
type SiteStats struct {
	UserCount    int64 `json:"user_count"`
	PostCount    int64 `json:"post_count"`
	CommentCount int64 `json:"comment_count"`
	ViewsToday   int64 `json:"views_today"`
}

// Stats counts users, posts and comments plus today's recorded page views.
// Individual failures degrade to zero rather than failing the endpoint.
func (s *Store) Stats(ctx context.Context) SiteStats {
	var out SiteStats
	db := s.db.WithContext(ctx)

	_ = db.Model(&models.User{}).Count(&out.UserCount).Error
	_ = db.Model(&models.Post{}).Count(&out.PostCount).Error
	_ = db.Model(&models.Comment{}).Count(&out.CommentCount).Error

	today := time.Now().In(time.Local).Format("2006-01-02")
	_ = db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&out.ViewsToday).Error
	return out
}

// PostStats returns accumulated page views and the live comment count for
// one post.
func (s *Store) PostStats(ctx context.Context, postID string) (views int64, comments int64) {
	db := s.db.WithContext(ctx)
	_ = db.Model(&models.PageView{}).
		Where("path = ?", "/api/v1/posts/"+postID).
		Select("COALESCE(SUM(count),0)").
		Scan(&views).Error
	_ = db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&comments).Error
	return views, comments
}
