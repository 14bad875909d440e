package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blogium/models"
)

var testDBSeq int64

// newTestDB opens a fresh in-memory sqlite database per test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Location{},
		&models.Post{},
		&models.Comment{},
		&models.UploadedFile{},
		&models.PageView{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestStore(t *testing.T, pageSize int) (*Store, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return New(db, pageSize), db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, PasswordHash: "x"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedCategory(t *testing.T, db *gorm.DB, slug string, published bool) models.Category {
	t.Helper()
	c := models.Category{Title: slug, Slug: slug, IsPublished: published}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed category %s: %v", slug, err)
	}
	return c
}

type postSpec struct {
	author    models.User
	category  *models.Category
	pubDate   time.Time
	published bool
	title     string
}

func seedPost(t *testing.T, db *gorm.DB, spec postSpec) models.Post {
	t.Helper()
	title := spec.title
	if title == "" {
		title = "post"
	}
	p := models.Post{
		AuthorID:    spec.author.ID,
		Title:       title,
		Text:        "text",
		PubDate:     spec.pubDate,
		IsPublished: spec.published,
	}
	if spec.category != nil {
		p.CategoryID = &spec.category.ID
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p
}

func seedComment(t *testing.T, db *gorm.DB, post models.Post, author models.User, text string) models.Comment {
	t.Helper()
	c := models.Comment{PostID: post.ID, AuthorID: author.ID, Text: text}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return c
}

func ctx() context.Context { return context.Background() }
