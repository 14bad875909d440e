package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blogium/models"
)

// PageViewRecorder records successful GET reads of posts and profiles as
// per-day, per-path counters feeding the stats endpoints.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		path := c.Request.URL.Path
		// Count content reads only; health, stats and auth endpoints would
		// skew the numbers.
		if !strings.HasPrefix(path, "/api/v1/posts/") &&
			!strings.HasPrefix(path, "/api/v1/users/") &&
			!strings.HasPrefix(path, "/api/v1/categories/") {
			return
		}
		if strings.HasSuffix(path, "/stats") {
			return
		}

		// Use local midnight to align with the DATE column
		now := time.Now().In(time.Local)
		localMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		// Atomic upsert to avoid duplicate key errors under concurrency
		_ = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.PageView{Date: localMidnight, Path: path, Count: 1}).Error
	}
}
