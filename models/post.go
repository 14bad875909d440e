package models

import "time"

// Post represents a blog publication. A post with a future PubDate is a
// scheduled publication and stays hidden from readers until that moment.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	LocationID  *uint     `gorm:"index" json:"location_id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	ImageURL    string    `gorm:"size:1024" json:"image_url"`
	PubDate     time.Time `gorm:"index;not null" json:"pub_date"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Author      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Category    *Category `json:"category,omitempty"`
	Location    *Location `json:"location,omitempty"`
	Comments    []Comment `json:"comments,omitempty"`

	// CommentCount is filled by annotated list queries, never stored.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
}

// PubliclyVisibleAt is the canonical visibility predicate: a post is visible
// to the public iff it is published, belongs to a published category and its
// publication date is not in the future. Posts without a category are never
// publicly visible. The store's SQL scope mirrors this predicate; change
// both together.
func (p *Post) PubliclyVisibleAt(now time.Time) bool {
	if !p.IsPublished {
		return false
	}
	if p.Category == nil || !p.Category.IsPublished {
		return false
	}
	return !p.PubDate.After(now)
}
