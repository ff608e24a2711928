package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/iceymoss/og-prank/internal/core"
	"github.com/iceymoss/og-prank/internal/service"
	xerrors "github.com/iceymoss/og-prank/pkg/errors"
	"github.com/iceymoss/og-prank/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgStorageFailed = "We could not store your images. Please try again."
	msgInternal      = "Something went wrong. Please try again."
)

type articleHandler struct {
	svc            ArticleService
	maxUploadBytes int64
}

func (h *articleHandler) form(c *gin.Context) {
	c.HTML(http.StatusOK, "create.html", gin.H{})
}

func (h *articleHandler) create(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(8 << 20); err != nil {
		if isTooLarge(err) {
			c.HTML(http.StatusRequestEntityTooLarge, "create.html", gin.H{
				"Error": fmt.Sprintf("Upload is too large (max %d MB).", h.maxUploadBytes>>20),
			})
			return
		}
		// 非 multipart 请求继续走校验，给出缺少字段的提示
	}

	headline := c.PostForm("headline")
	preview, closePreview := formFile(c, "og_image")
	defer closePreview()
	payload, closePayload := formFile(c, "troll_image")
	defer closePayload()

	id, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		Headline: headline,
		Preview:  preview,
		Payload:  payload,
	})
	if err != nil {
		data := gin.H{"Headline": headline}
		switch {
		case service.IsValidation(err):
			data["Error"] = xerrors.Message(err)
			c.HTML(http.StatusOK, "create.html", data)
		case errors.Is(err, xerrors.ErrStorage):
			logger.Error("create article failed", zap.Error(err))
			data["Error"] = msgStorageFailed
			c.HTML(http.StatusBadGateway, "create.html", data)
		default:
			logger.Error("create article failed", zap.Error(err))
			data["Error"] = msgInternal
			c.HTML(http.StatusInternalServerError, "create.html", data)
		}
		return
	}

	c.Redirect(http.StatusFound, "/a/"+id)
}

func (h *articleHandler) view(c *gin.Context) {
	view, err := h.svc.View(c.Request.Context(), c.Param("id"))
	if errors.Is(err, xerrors.ErrNotFound) {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}
	if err != nil {
		logger.Error("view article failed", zap.String("article_id", c.Param("id")), zap.Error(err))
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}

	c.HTML(http.StatusOK, "article.html", gin.H{
		"Headline":   view.Record.Headline,
		"PreviewURL": view.PreviewURL,
		"PayloadURL": view.PayloadURL,
		"PageURL":    pageURL(c.Request),
	})
}

// formFile 取表单文件，没有上传时返回 nil
func formFile(c *gin.Context, field string) (*core.UploadFile, func()) {
	noop := func() {}
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		return nil, noop
	}
	f, err := fh.Open()
	if err != nil {
		logger.Warn("open uploaded file failed", zap.String("field", field), zap.Error(err))
		return nil, noop
	}
	return uploadFile(fh, f), func() { _ = f.Close() }
}

func uploadFile(fh *multipart.FileHeader, f multipart.File) *core.UploadFile {
	return &core.UploadFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     f,
	}
}

// isTooLarge multipart 解析可能丢掉错误链，退回按消息判断
func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// pageURL 当前请求的完整地址，用作 canonical / og:url
func pageURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host + r.URL.RequestURI()
}
