package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"blogium/middleware"
	"blogium/store"
	"blogium/utils"
)

// PostController exposes the blog read and write operations. Every handler
// follows the same shape: resolve, authorize, query or mutate, respond.
type PostController struct {
	store *store.Store
}

// NewPostController creates a new PostController instance.
func NewPostController(st *store.Store) *PostController {
	return &PostController{store: st}
}

type postRequest struct {
	Title       string    `json:"title" binding:"required,min=1,max=256"`
	Text        string    `json:"text" binding:"required"`
	PubDate     time.Time `json:"pub_date"`
	CategoryID  *uint     `json:"category_id"`
	LocationID  *uint     `json:"location_id"`
	ImageURL    string    `json:"image_url"`
	IsPublished *bool     `json:"is_published"`
}

// fields normalizes the request into store fields. An omitted pub_date
// means "publish now"; a future one schedules the post.
func (r *postRequest) fields() (store.PostFields, error) {
	title := utils.Sanitize(strings.TrimSpace(r.Title))
	if title == "" {
		return store.PostFields{}, errors.New("title cannot be empty")
	}
	pubDate := r.PubDate
	if pubDate.IsZero() {
		pubDate = time.Now()
	}
	published := true
	if r.IsPublished != nil {
		published = *r.IsPublished
	}
	return store.PostFields{
		Title:       title,
		Text:        utils.Sanitize(r.Text),
		PubDate:     pubDate,
		CategoryID:  r.CategoryID,
		LocationID:  r.LocationID,
		ImageURL:    strings.TrimSpace(r.ImageURL),
		IsPublished: published,
	}, nil
}

func listPayload(posts interface{}, pg store.Pagination) gin.H {
	return gin.H{"items": posts, "pagination": pg}
}

// ListPosts returns the paginated public feed, newest publication first.
// The feed is identical for every viewer, so responses are cached.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page := parsePage(ctx.Query("page"))

	cacheKey := fmt.Sprintf("cache:posts:list:page=%d", page)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	posts, pg, err := p.store.ListPublic(ctx.Request.Context(), page)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list posts")
		return
	}

	payload := listPayload(posts, pg)
	cacheEnvelope(cacheKey, payload)
	utils.Success(ctx, payload)
}

// ListCategoryPosts returns the public feed restricted to one category. An
// unknown or unpublished category is a plain 404.
func (p *PostController) ListCategoryPosts(ctx *gin.Context) {
	slug := strings.TrimSpace(ctx.Param("slug"))
	page := parsePage(ctx.Query("page"))

	cacheKey := fmt.Sprintf("cache:posts:category:%s:page=%d", slug, page)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	cat, posts, pg, err := p.store.ListByCategory(ctx.Request.Context(), slug, page)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list category posts")
		return
	}

	payload := gin.H{"category": cat, "items": posts, "pagination": pg}
	cacheEnvelope(cacheKey, payload)
	utils.Success(ctx, payload)
}

// ListProfilePosts returns a user's posts. The profile owner sees drafts
// and scheduled posts as well; everyone else sees the public subset. Only
// anonymous responses are cached because of that asymmetry.
func (p *PostController) ListProfilePosts(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	page := parsePage(ctx.Query("page"))
	viewerID, _ := getUserID(ctx)

	cacheKey := fmt.Sprintf("cache:user:%s:posts:page=%d", username, page)
	if viewerID == 0 {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	user, posts, pg, err := p.store.ListByAuthor(ctx.Request.Context(), username, viewerID, page)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to list user posts")
		return
	}

	payload := gin.H{"profile": publicUser(user), "items": posts, "pagination": pg}
	if viewerID == 0 {
		cacheEnvelope(cacheKey, payload)
	}
	utils.Success(ctx, payload)
}

// GetPost returns one post with its comments ordered oldest first, plus a
// blank comment form placeholder. Authors can open their own hidden or
// scheduled posts; other viewers get a 404 indistinguishable from a
// missing id.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	viewerID, _ := getUserID(ctx)

	cacheKey := "cache:post:detail:" + strconv.FormatUint(uint64(postID), 10)
	if viewerID == 0 {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	post, err := p.store.GetDetail(ctx.Request.Context(), postID, viewerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	payload := gin.H{"post": post, "comment_form": gin.H{"text": ""}}
	if viewerID == 0 {
		cacheEnvelope(cacheKey, payload)
	}
	utils.Success(ctx, payload)
}

// CreatePost persists a new post owned by the authenticated user. Any
// authenticated user may create; there is no visibility gate on creation.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40020, err)
		return
	}
	fields, err := req.fields()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, err.Error())
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post, err := p.store.CreatePost(ctx.Request.Context(), userID, fields)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.InvalidateByPrefix("cache:user:" + post.Author.Username + ":posts:")

	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost lets the author edit their post. A non-owner is silently
// redirected to the post detail URL instead of receiving an error body.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
		return
	}

	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40024, err)
		return
	}
	fields, err := req.fields()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, err.Error())
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	post, err := p.store.UpdatePost(ctx.Request.Context(), userID, postID, fields)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
		case errors.Is(err, store.ErrNotOwner):
			redirectToPost(ctx, postID)
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		}
		return
	}

	p.invalidatePost(postID, post.Author.Username)
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes the author's post together with all of its comments.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}

	if err := p.store.DeletePost(ctx.Request.Context(), userID, postID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
		case errors.Is(err, store.ErrNotOwner):
			redirectToPost(ctx, postID)
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete post")
		}
		return
	}

	username, _ := getUsername(ctx)
	p.invalidatePost(postID, username)
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

func (p *PostController) invalidatePost(postID uint, username string) {
	utils.InvalidateByPrefix("cache:posts:")
	utils.InvalidateByPrefix("cache:post:detail:" + strconv.FormatUint(uint64(postID), 10))
	if username != "" {
		utils.InvalidateByPrefix("cache:user:" + username + ":posts:")
	}
}

// redirectToPost is the deliberate unauthorized-mutation behavior: no 403
// page, no hint beyond what a reader already sees, just a bounce back to
// the post.
func redirectToPost(ctx *gin.Context, postID uint) {
	ctx.Redirect(http.StatusSeeOther, "/posts/"+strconv.FormatUint(uint64(postID), 10))
}

func parsePage(pageStr string) int {
	page := 1
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	return page
}

func parseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// cacheEnvelope stores the standard success wrapper so cached bytes replay
// byte-identical responses.
func cacheEnvelope(key string, payload interface{}) {
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(key, wrapper, time.Hour)
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func getUsername(ctx *gin.Context) (string, bool) {
	value, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return "", false
	}
	name, _ := value.(string)
	return name, name != ""
}
