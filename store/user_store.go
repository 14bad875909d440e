package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"blogium/models"
)

// CreateUser registers a new user. Duplicate usernames map to
// ErrUsernameTaken.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	var existing models.User
	err := s.db.WithContext(ctx).Where("username = ?", user.Username).First(&existing).Error
	if err == nil {
		return ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(user).Error
}

// GetUserByID loads a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, asStoreErr(err)
	}
	return user, nil
}

// GetUserByUsername loads a user by unique username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return models.User{}, asStoreErr(err)
	}
	return user, nil
}

// SaveUser persists profile or credential changes. Renaming onto an
// existing username is rejected with ErrUsernameTaken.
func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	var existing models.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND id <> ?", user.Username, user.ID).
		First(&existing).Error
	if err == nil {
		return ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Save(user).Error
}
