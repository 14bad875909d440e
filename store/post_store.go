package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"blogium/models"
)

// commentCountSelect annotates each row with its live comment count.
const commentCountSelect = "posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"

// postListOrder: newest publication first; equal pub_dates fall back to
// insertion order.
const postListOrder = "posts.pub_date DESC, posts.id ASC"

// publiclyVisible is the SQL mirror of models.Post.PubliclyVisibleAt. The
// inner join drops posts without a category on purpose.
func publiclyVisible(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Joins("JOIN categories ON categories.id = posts.category_id").
			Where("posts.is_published = ? AND categories.is_published = ? AND posts.pub_date <= ?", true, true, now)
	}
}

// PostFields carries the author-editable attributes of a post. AuthorID and
// CreatedAt are never part of it.
type PostFields struct {
	Title       string
	Text        string
	PubDate     time.Time
	CategoryID  *uint
	LocationID  *uint
	ImageURL    string
	IsPublished bool
}

func (s *Store) listPosts(ctx context.Context, page int, build func(*gorm.DB) *gorm.DB) ([]models.Post, Pagination, error) {
	base := build(s.db.WithContext(ctx).Model(&models.Post{}))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	pg, offset := s.newPagination(page, total)
	var posts []models.Post
	err := base.Select(commentCountSelect).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Order(postListOrder).
		Offset(offset).
		Limit(s.pageSize).
		Find(&posts).Error
	if err != nil {
		return nil, Pagination{}, err
	}
	return posts, pg, nil
}

// ListPublic returns the page of posts any reader may see.
func (s *Store) ListPublic(ctx context.Context, page int) ([]models.Post, Pagination, error) {
	now := time.Now()
	return s.listPosts(ctx, page, func(q *gorm.DB) *gorm.DB {
		return q.Scopes(publiclyVisible(now))
	})
}

// ListByCategory resolves the category by slug and returns its publicly
// visible posts. An absent or unpublished category is ErrNotFound.
func (s *Store) ListByCategory(ctx context.Context, slug string, page int) (models.Category, []models.Post, Pagination, error) {
	var cat models.Category
	err := s.db.WithContext(ctx).
		Where("slug = ? AND is_published = ?", slug, true).
		First(&cat).Error
	if err != nil {
		return models.Category{}, nil, Pagination{}, asStoreErr(err)
	}

	now := time.Now()
	posts, pg, err := s.listPosts(ctx, page, func(q *gorm.DB) *gorm.DB {
		return q.Scopes(publiclyVisible(now)).Where("posts.category_id = ?", cat.ID)
	})
	return cat, posts, pg, err
}

// ListByAuthor returns the profile user's posts. When the viewer is the
// profile owner the visibility filter is bypassed entirely: drafts and
// scheduled posts are included. Everyone else sees public posts only.
func (s *Store) ListByAuthor(ctx context.Context, username string, viewerID uint, page int) (models.User, []models.Post, Pagination, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return models.User{}, nil, Pagination{}, asStoreErr(err)
	}

	now := time.Now()
	posts, pg, err := s.listPosts(ctx, page, func(q *gorm.DB) *gorm.DB {
		q = q.Where("posts.author_id = ?", user.ID)
		if viewerID != user.ID {
			q = q.Scopes(publiclyVisible(now))
		}
		return q
	})
	return user, posts, pg, err
}

// GetDetail returns the post with its comments ordered oldest first. The
// author may preview their own unpublished or scheduled post; any other
// viewer gets ErrNotFound unless the post is publicly visible.
func (s *Store) GetDetail(ctx context.Context, postID, viewerID uint) (models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Select(commentCountSelect).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC, comments.id ASC")
		}).
		Preload("Comments.Author").
		Where("posts.id = ?", postID).
		First(&post).Error
	if err != nil {
		return models.Post{}, asStoreErr(err)
	}

	if post.AuthorID != viewerID && !post.PubliclyVisibleAt(time.Now()) {
		return models.Post{}, ErrNotFound
	}
	return post, nil
}

// CreatePost persists a new post owned by authorID. Creation is always
// allowed for an authenticated user; no visibility check applies.
func (s *Store) CreatePost(ctx context.Context, authorID uint, fields PostFields) (models.Post, error) {
	post := models.Post{
		AuthorID:    authorID,
		Title:       fields.Title,
		Text:        fields.Text,
		PubDate:     fields.PubDate,
		CategoryID:  fields.CategoryID,
		LocationID:  fields.LocationID,
		ImageURL:    fields.ImageURL,
		IsPublished: fields.IsPublished,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return releaseUpload(tx, post.ImageURL)
	})
	if err != nil {
		return models.Post{}, err
	}
	return s.GetDetail(ctx, post.ID, authorID)
}

// UpdatePost replaces the editable fields of the post. Only the author may
// update; anyone else gets ErrNotOwner and no state changes.
func (s *Store) UpdatePost(ctx context.Context, actorID, postID uint, fields PostFields) (models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, postID).Error; err != nil {
		return models.Post{}, asStoreErr(err)
	}
	if post.AuthorID != actorID {
		return models.Post{}, ErrNotOwner
	}

	post.Title = fields.Title
	post.Text = fields.Text
	post.PubDate = fields.PubDate
	post.CategoryID = fields.CategoryID
	post.LocationID = fields.LocationID
	post.ImageURL = fields.ImageURL
	post.IsPublished = fields.IsPublished

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&post).Error; err != nil {
			return err
		}
		return releaseUpload(tx, post.ImageURL)
	})
	if err != nil {
		return models.Post{}, err
	}
	return s.GetDetail(ctx, post.ID, actorID)
}

// DeletePost removes the post and all of its comments in one transaction.
// Only the author may delete.
func (s *Store) DeletePost(ctx context.Context, actorID, postID uint) error {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, postID).Error; err != nil {
		return asStoreErr(err)
	}
	if post.AuthorID != actorID {
		return ErrNotOwner
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
}
