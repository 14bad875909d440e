package controllers

import (
	"github.com/gin-gonic/gin"

	"blogium/store"
	"blogium/utils"
)

// StatsController exposes platform counters and per-post view numbers.
type StatsController struct {
	store *store.Store
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(st *store.Store) *StatsController {
	return &StatsController{store: st}
}

// GetStats returns aggregate statistics for the platform.
func (s *StatsController) GetStats(ctx *gin.Context) {
	utils.Success(ctx, s.store.Stats(ctx.Request.Context()))
}

// GetPostStats returns accumulated views and the comment count for a post.
func (s *StatsController) GetPostStats(ctx *gin.Context) {
	id := ctx.Param("id")
	views, comments := s.store.PostStats(ctx.Request.Context(), id)
	utils.Success(ctx, gin.H{
		"views":          views,
		"comments_count": comments,
	})
}
