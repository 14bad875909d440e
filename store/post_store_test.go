package store

import (
	"errors"
	"testing"
	"time"

	"blogium/models"
)

func TestListPublicAppliesVisibilityPredicate(t *testing.T) {
	st, db := newTestStore(t, 10)
	author := seedUser(t, db, "author")
	visible := seedCategory(t, db, "go", true)
	hidden := seedCategory(t, db, "drafts", false)

	yesterday := time.Now().Add(-24 * time.Hour)
	tomorrow := time.Now().Add(24 * time.Hour)

	wantPost := seedPost(t, db, postSpec{author: author, category: &visible, pubDate: yesterday, published: true, title: "public"})
	seedPost(t, db, postSpec{author: author, category: &visible, pubDate: yesterday, published: false, title: "unpublished"})
	seedPost(t, db, postSpec{author: author, category: &visible, pubDate: tomorrow, published: true, title: "scheduled"})
	seedPost(t, db, postSpec{author: author, category: &hidden, pubDate: yesterday, published: true, title: "hidden category"})
	seedPost(t, db, postSpec{author: author, category: nil, pubDate: yesterday, published: true, title: "no category"})

	posts, pg, err := st.ListPublic(ctx(), 1)
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	if posts[0].ID != wantPost.ID {
		t.Errorf("got post %d, want %d", posts[0].ID, wantPost.ID)
	}
	if pg.Total != 1 {
		t.Errorf("pagination total = %d, want 1", pg.Total)
	}
}

func TestListPublicOrderingAndTieBreak(t *testing.T) {
	st, db := newTestStore(t, 10)
	author := seedUser(t, db, "author")
	cat := seedCategory(t, db, "go", true)

	older := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	newer := time.Now().Add(-1 * time.Hour).Truncate(time.Second)

	first := seedPost(t, db, postSpec{author: author, category: &cat, pubDate: older, published: true, title: "tie a"})
	second := seedPost(t, db, postSpec{author: author, category: &cat, pubDate: older, published: true, title: "tie b"})
	newest := seedPost(t, db, postSpec{author: author, category: &cat, pubDate: newer, published: true, title: "newest"})

	posts, _, err := st.ListPublic(ctx(), 1)
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want 3", len(posts))
	}
	// Newest publication first; equal pub_dates keep insertion order.
	wantOrder := []uint{newest.ID, first.ID, second.ID}
	for i, want := range wantOrder {
		if posts[i].ID != want {
			t.Errorf("position %d: got post %d, want %d", i, posts[i].ID, want)
		}
	}
}

func TestListPublicPagination(t *testing.T) {
	st, db := newTestStore(t, 2)
	author := seedUser(t, db, "author")
	cat := seedCategory(t, db, "go", true)
	for i := 0; i < 5; i++ {
		seedPost(t, db, postSpec{
			author: author, category: &cat, published: true,
			pubDate: time.Now().Add(-time.Duration(i+1) * time.Hour),
		})
	}

	posts, pg, err := st.ListPublic(ctx(), 1)
	if err != nil {
		t.Fatalf("ListPublic page 1: %v", err)
	}
	if len(posts) != 2 || pg.Total != 5 || pg.TotalPages != 3 {
		t.Fatalf("page 1: len=%d total=%d pages=%d, want 2/5/3", len(posts), pg.Total, pg.TotalPages)
	}

	posts, _, err = st.ListPublic(ctx(), 3)
	if err != nil {
		t.Fatalf("ListPublic page 3: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("page 3: got %d posts, want 1", len(posts))
	}
}

func TestListPublicAnnotatesCommentCounts(t *testing.T) {
	st, db := newTestStore(t, 10)
	author := seedUser(t, db, "author")
	reader := seedUser(t, db, "reader")
	cat := seedCategory(t, db, "go", true)
	yesterday := time.Now().Add(-24 * time.Hour)

	commented := seedPost(t, db, postSpec{author: author, category: &cat, pubDate: yesterday, published: true, title: "commented"})
	bare := seedPost(t, db, postSpec{author: author, category: &cat, pubDate: yesterday.Add(-time.Hour), published: true, title: "bare"})
	seedComment(t, db, commented, reader, "one")
	seedComment(t, db, commented, author, "two")

	posts, _, err := st.ListPublic(ctx(), 1)
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	counts := map[uint]int64{}
	for _, p := range posts {
		counts[p.ID] = p.CommentCount
	}
	if counts[commented.ID] != 2 {
		t.Errorf("commented post count = %d, want 2", counts[commented.ID])
	}
	if counts[bare.ID] != 0 {
		t.Errorf("bare post count = %d, want 0", counts[bare.ID])
	}
}

func TestGetDetailAuthorPreviewAsymmetry(t *testing.T) {
	st, db := newTestStore(t, 10)
	author := seedUser(t, db, "author")
	stranger := seedUser(t, db, "stranger")
	cat := seedCategory(t, db, "go", true)

	cases := []struct {
		name string
		spec postSpec
	}{
		{"unpublished", postSpec{author: author, category: &cat, pubDate: time.Now().Add(-time.Hour), published: false}},
		{"scheduled", postSpec{author: author, category: &cat, pubDate: time.Now().Add(24 * time.Hour), published: true}},
		{"no category", postSpec{author: author, category: nil, pubDate: time.Now().Add(-time.Hour), published: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			post := seedPost(t, db, tc.spec)

			if _, err := st.GetDetail(ctx(), post.ID, author.ID); err != nil {
				t.Errorf("author preview failed: %v", err)
			}
			if _, err := st.GetDetail(ctx(), post.ID, stranger.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("stranger got %v, want ErrNotFound", err)
			}
			if _, err := st.GetDetail(ctx(), post.ID, 0); !errors.Is(err, ErrNotFound) {
				t.Errorf("anonymous got %v, want ErrNotFound", err)
			}
		})
	}

	if _, err := st.GetDetail(ctx(), 9999, author.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id got %v, want ErrNotFound", err)
	}
}

func TestGetDetailOrdersCommentsOldestFirst(t *testing.T) {
	st, db := newTestStore(t, 10)
	author := seedUser(t, db, "author")
	reader := seedUser(t, db, "reader")
	cat := seedCategory(t, db, "go", true)
	post := seedPost(t, db, postSpec{author: author, category: &cat, pubDate: time.Now().Add(-time.Hour), published: true})

	c1 := seedComment(t, db, post, reader, "first")
	c2 := seedComment(t, db, post, author, "second")
	c3 := seedComment(t, db, post, reader, "third")

	got, err := st.GetDetail(ctx(), post.ID, 0)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(got.Comments) != 3 {
		t.Fatalf("got %d comments, want 3", len(got.Comments))
	}
	wantOrder := []uint{c1.ID, c2.ID, c3.ID}
	for i, want := range wantOrder {
		if got.Comments[i].ID != want {
			t.Errorf("comment %d: got id %d, want %d", i, got.Comments[i].ID, want)
		}
	}
	if got.CommentCount != 3 {
		t.Errorf("comment count = %d, want 3", got.CommentCount)
	}
}

func TestListByCategory(t *testing.T) {
	st, db := newTestStore(t, 10)
	author := seedUser(t, db, "author")
	golang := seedCategory(t, db, "go", true)
	travel := seedCategory(t, db, "travel", true)
	hidden := seedCategory(t, db, "hidden", false)
	yesterday := time.Now().Add(-time.Hour)

	inCat := seedPost(t, db, postSpec{author: author, category: &golang, pubDate: yesterday, published: true})
	seedPost(t, db, postSpec{author: author, category: &travel, pubDate: yesterday, published: true})
	seedPost(t, db, postSpec{author: author, category: &golang, pubDate: yesterday, published: false})

	cat, posts, _, err := st.ListByCategory(ctx(), "go", 1)
	if err != nil {
		t.Fatalf("ListByCategory: %v", err)
	}
	if cat.ID != golang.ID {
		t.Errorf("resolved category %d, want %d", cat.ID, golang.ID)
	}
	if len(posts) != 1 || posts[0].ID != inCat.ID {
		t.Errorf("got %d posts, want exactly the public post in category", len(posts))
	}

	if _, _, _, err := st.ListByCategory(ctx(), "missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing slug: got %v, want ErrNotFound", err)
	}
	// An unpublished category is indistinguishable from a missing one.
	if _, _, _, err := st.ListByCategory(ctx(), hidden.Slug, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unpublished category: got %v, want ErrNotFound", err)
	}
}

func TestListByAuthorSelfViewBypassesVisibility(t *testing.T) {
	st, db := newTestStore(t, 10)
	author := seedUser(t, db, "author")
	other := seedUser(t, db, "other")
	cat := seedCategory(t, db, "go", true)

	public := seedPost(t, db, postSpec{author: author, category: &cat, pubDate: time.Now().Add(-time.Hour), published: true})
	draft := seedPost(t, db, postSpec{author: author, category: &cat, pubDate: time.Now().Add(-time.Hour), published: false})
	scheduled := seedPost(t, db, postSpec{author: author, category: &cat, pubDate: time.Now().Add(time.Hour), published: true})
	uncategorized := seedPost(t, db, postSpec{author: author, category: nil, pubDate: time.Now().Add(-time.Hour), published: true})

	_, posts, _, err := st.ListByAuthor(ctx(), "author", author.ID, 1)
	if err != nil {
		t.Fatalf("self view: %v", err)
	}
	if len(posts) != 4 {
		t.Errorf("self view: got %d posts, want all 4 (including %d/%d/%d)", len(posts), draft.ID, scheduled.ID, uncategorized.ID)
	}

	_, posts, _, err = st.ListByAuthor(ctx(), "author", other.ID, 1)
	if err != nil {
		t.Fatalf("other view: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != public.ID {
		t.Errorf("other view: got %d posts, want only the public one", len(posts))
	}

	_, posts, _, err = st.ListByAuthor(ctx(), "author", 0, 1)
	if err != nil {
		t.Fatalf("anonymous view: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("anonymous view: got %d posts, want 1", len(posts))
	}

	if _, _, _, err := st.ListByAuthor(ctx(), "ghost", author.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown username: got %v, want ErrNotFound", err)
	}
}

func TestCreatePostAlwaysAllowed(t *testing.T) {
	st, db := newTestStore(t, 10)
	author := seedUser(t, db, "author")
	cat := seedCategory(t, db, "go", false) // even into an unpublished category

	post, err := st.CreatePost(ctx(), author.ID, PostFields{
		Title:       "draft in hidden category",
		Text:        "text",
		PubDate:     time.Now().Add(48 * time.Hour),
		CategoryID:  &cat.ID,
		IsPublished: false,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.AuthorID != author.ID {
		t.Errorf("author = %d, want %d", post.AuthorID, author.ID)
	}
	if post.CreatedAt.IsZero() {
		t.Error("created_at was not stamped")
	}
}

func TestCreatePostPersistsDraftFlag(t *testing.T) {
	st, db := newTestStore(t, 10)
	author := seedUser(t, db, "author")
	reader := seedUser(t, db, "reader")
	cat := seedCategory(t, db, "go", true)

	draft, err := st.CreatePost(ctx(), author.ID, PostFields{
		Title:       "draft",
		Text:        "text",
		PubDate:     time.Now().Add(-time.Hour),
		CategoryID:  &cat.ID,
		IsPublished: false,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	// The stored row must keep is_published=false, not pick up a column
	// default.
	var row models.Post
	if err := db.First(&row, draft.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if row.IsPublished {
		t.Fatal("draft stored as published")
	}

	if _, err := st.GetDetail(ctx(), draft.ID, reader.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("fresh draft visible to reader: got %v, want ErrNotFound", err)
	}
	if _, err := st.AddComment(ctx(), author.ID, draft.ID, "first!"); !errors.Is(err, ErrNotFound) {
		t.Errorf("author commented on own fresh draft: got %v, want ErrNotFound", err)
	}

	var hidden models.Category
	if err := db.Create(&models.Category{Title: "hidden", Slug: "hidden-cat", IsPublished: false}).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	if err := db.Where("slug = ?", "hidden-cat").First(&hidden).Error; err != nil {
		t.Fatalf("reload category: %v", err)
	}
	if hidden.IsPublished {
		t.Fatal("unpublished category stored as published")
	}
}

func TestUpdatePostOwnership(t *testing.T) {
	st, db := newTestStore(t, 10)
	owner := seedUser(t, db, "owner")
	intruder := seedUser(t, db, "intruder")
	cat := seedCategory(t, db, "go", true)
	post := seedPost(t, db, postSpec{author: owner, category: &cat, pubDate: time.Now().Add(-time.Hour), published: true, title: "original"})

	fields := PostFields{Title: "hijacked", Text: "text", PubDate: post.PubDate, CategoryID: post.CategoryID, IsPublished: true}
	if _, err := st.UpdatePost(ctx(), intruder.ID, post.ID, fields); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("intruder update: got %v, want ErrNotOwner", err)
	}

	// Denied update must not change state.
	got, err := st.GetDetail(ctx(), post.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if got.Title != "original" {
		t.Errorf("title = %q after denied update, want %q", got.Title, "original")
	}

	fields.Title = "edited"
	updated, err := st.UpdatePost(ctx(), owner.ID, post.ID, fields)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "edited" {
		t.Errorf("title = %q, want %q", updated.Title, "edited")
	}

	if _, err := st.UpdatePost(ctx(), owner.ID, 9999, fields); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing post: got %v, want ErrNotFound", err)
	}
}

func TestDeletePostCascadesComments(t *testing.T) {
	st, db := newTestStore(t, 10)
	owner := seedUser(t, db, "owner")
	reader := seedUser(t, db, "reader")
	intruder := seedUser(t, db, "intruder")
	cat := seedCategory(t, db, "go", true)

	doomed := seedPost(t, db, postSpec{author: owner, category: &cat, pubDate: time.Now().Add(-time.Hour), published: true})
	survivor := seedPost(t, db, postSpec{author: owner, category: &cat, pubDate: time.Now().Add(-2 * time.Hour), published: true})
	seedComment(t, db, doomed, reader, "gone")
	seedComment(t, db, doomed, owner, "gone too")
	kept := seedComment(t, db, survivor, reader, "kept")

	if err := st.DeletePost(ctx(), intruder.ID, doomed.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("intruder delete: got %v, want ErrNotOwner", err)
	}
	if err := st.DeletePost(ctx(), owner.ID, doomed.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	var commentCount int64
	db.Table("comments").Where("post_id = ?", doomed.ID).Count(&commentCount)
	if commentCount != 0 {
		t.Errorf("%d comments survived the cascade, want 0", commentCount)
	}
	db.Table("comments").Where("id = ?", kept.ID).Count(&commentCount)
	if commentCount != 1 {
		t.Errorf("comment on another post was removed")
	}

	if err := st.DeletePost(ctx(), owner.ID, doomed.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}
