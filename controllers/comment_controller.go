package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"blogium/store"
	"blogium/utils"
)

type commentRequest struct {
	Text string `json:"text" binding:"required,min=1"`
}

// CreateComment adds a comment on a publicly visible post. The visibility
// gate has no author bypass: even the post's author cannot comment on a
// hidden or scheduled post, and gets the same 404 as everyone else.
func (p *PostController) CreateComment(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return
	}

	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40022, err)
		return
	}
	text := utils.Sanitize(req.Text)
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "text cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	comment, err := p.store.AddComment(ctx.Request.Context(), userID, postID, text)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to create comment")
		return
	}

	p.invalidatePost(postID, "")
	utils.Success(ctx, gin.H{"comment": comment})
}

// UpdateComment lets the comment author change its text. Comment ids are
// resolved scoped to the post in the URL; a mismatch is a 404.
func (p *PostController) UpdateComment(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
		return
	}
	commentID, ok := parseID(ctx.Param("commentId"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
		return
	}

	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40026, err)
		return
	}
	text := utils.Sanitize(req.Text)
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40027, "text cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	comment, err := p.store.UpdateComment(ctx.Request.Context(), userID, postID, commentID, text)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
		case errors.Is(err, store.ErrNotOwner):
			redirectToPost(ctx, postID)
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to update comment")
		}
		return
	}

	p.invalidatePost(postID, "")
	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment removes a single comment; the post stays untouched.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40421, "comment not found")
		return
	}
	commentID, ok := parseID(ctx.Param("commentId"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40421, "comment not found")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40115, "unauthorized")
		return
	}

	if _, err := p.store.DeleteComment(ctx.Request.Context(), userID, postID, commentID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40421, "comment not found")
		case errors.Is(err, store.ErrNotOwner):
			redirectToPost(ctx, postID)
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to delete comment")
		}
		return
	}

	p.invalidatePost(postID, "")
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
