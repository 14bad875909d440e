package store

import (
	"context"
	"time"

	"blogium/models"
)

// AddComment creates a comment owned by actorID on the target post. The
// post must satisfy the public-visibility predicate: unlike the detail
// view there is no author bypass here, so even the post's own author
// cannot comment on a hidden or scheduled post.
func (s *Store) AddComment(ctx context.Context, actorID, postID uint, text string) (models.Comment, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Category").First(&post, postID).Error
	if err != nil {
		return models.Comment{}, asStoreErr(err)
	}
	if !post.PubliclyVisibleAt(time.Now()) {
		return models.Comment{}, ErrNotFound
	}

	comment := models.Comment{PostID: post.ID, AuthorID: actorID, Text: text}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return models.Comment{}, err
	}
	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, comment.ID).Error; err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// getOwnComment resolves a comment scoped to its post: a valid comment id
// under a different post is ErrNotFound, not a hint that it exists.
func (s *Store) getOwnComment(ctx context.Context, actorID, postID, commentID uint) (models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).
		Where("id = ? AND post_id = ?", commentID, postID).
		First(&comment).Error
	if err != nil {
		return models.Comment{}, asStoreErr(err)
	}
	if comment.AuthorID != actorID {
		return models.Comment{}, ErrNotOwner
	}
	return comment, nil
}

// UpdateComment replaces the comment text; author only.
func (s *Store) UpdateComment(ctx context.Context, actorID, postID, commentID uint, text string) (models.Comment, error) {
	comment, err := s.getOwnComment(ctx, actorID, postID, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	comment.Text = text
	if err := s.db.WithContext(ctx).Save(&comment).Error; err != nil {
		return models.Comment{}, err
	}
	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, comment.ID).Error; err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// DeleteComment removes a single comment; author only. The post itself is
// untouched.
func (s *Store) DeleteComment(ctx context.Context, actorID, postID, commentID uint) (models.Comment, error) {
	comment, err := s.getOwnComment(ctx, actorID, postID, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	if err := s.db.WithContext(ctx).Delete(&comment).Error; err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}
