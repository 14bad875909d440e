package controllers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"blogium/config"
	"blogium/models"
	"blogium/utils"
)

// Post images only; 10MB is plenty for a blog illustration.
const maxImageSize = 10 * 1024 * 1024

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// UploadImage stores a post image and returns its public URL. The file is
// recorded as unattached; creating or updating a post with this URL keeps
// it, otherwise the cleaner removes it after the configured grace period.
func (p *PostController) UploadImage(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40119, "unauthorized")
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "no file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		utils.Error(ctx, http.StatusBadRequest, 40051, "only image files are accepted")
		return
	}
	if header.Size > 0 && header.Size > maxImageSize {
		utils.Error(ctx, http.StatusBadRequest, 40052, "file size exceeds 10MB")
		return
	}

	now := time.Now()
	baseDir := filepath.Join(".", "static", "uploads", now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create upload directory")
		return
	}

	safeName := fmt.Sprintf("%d_%d%s", now.UnixNano(), userID, ext)
	dstPath := filepath.Join(baseDir, safeName)

	out, err := os.Create(dstPath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to save file")
		return
	}
	defer out.Close()

	lr := &io.LimitedReader{R: file, N: maxImageSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil || written > maxImageSize {
		_ = out.Close()
		_ = os.Remove(dstPath)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to write file")
		} else {
			utils.Error(ctx, http.StatusBadRequest, 40052, "file size exceeds 10MB")
		}
		return
	}

	relURL := fmt.Sprintf("/static/uploads/%s/%s/%s/%s",
		now.Format("2006"), now.Format("01"), now.Format("02"), safeName)

	ttl := config.Get().UploadTTLMinutes
	absPath, _ := filepath.Abs(dstPath)
	record := models.UploadedFile{
		FilePath: absPath,
		URL:      relURL,
		ExpireAt: now.Add(time.Duration(ttl) * time.Minute),
	}
	if err := p.store.RecordUpload(ctx.Request.Context(), &record); err != nil {
		utils.Sugar.Warnf("failed to record upload %s: %v", relURL, err)
	}

	utils.Success(ctx, gin.H{"url": relURL})
}
