package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iceymoss/og-prank/internal/asset"
	"github.com/iceymoss/og-prank/internal/core"
	"github.com/iceymoss/og-prank/internal/idgen"
	"github.com/iceymoss/og-prank/internal/metrics"
	"github.com/iceymoss/og-prank/internal/repo"
	"github.com/iceymoss/og-prank/pkg/db/objects"
	xerrors "github.com/iceymoss/og-prank/pkg/errors"
	"github.com/iceymoss/og-prank/pkg/logger"
	"github.com/iceymoss/og-prank/pkg/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 校验失败时展示给用户的消息，顺序即校验顺序
const (
	MsgHeadlineRequired = "Headline is required."
	MsgPreviewRequired  = "Preview image is required."
	MsgPayloadRequired  = "Troll article image is required."
	MsgPreviewType      = "Preview image must be PNG, JPG, JPEG, GIF, or WEBP."
	MsgPayloadType      = "Troll image must be PNG, JPG, JPEG, GIF, or WEBP."
)

// maxAllocateAttempts ID 已存在时最多重试次数
const maxAllocateAttempts = 3

// AssetBinder 图片存储
type AssetBinder interface {
	Put(ctx context.Context, articleID string, role core.Role, file *core.UploadFile) (string, error)
	URLFor(key string) string
}

// ArticleStore 文章库
type ArticleStore interface {
	Get(ctx context.Context, id string) (*objects.ArticleRecord, bool, error)
	Exists(ctx context.Context, id string) (bool, error)
	Insert(ctx context.Context, rec *objects.ArticleRecord) error
}

// HeadlineFilter 标题过滤，例如敏感词遮盖
type HeadlineFilter interface {
	Mask(content string) string
}

// CreateInput 创建请求
type CreateInput struct {
	Headline string
	Preview  *core.UploadFile // og_image
	Payload  *core.UploadFile // troll_image
}

// ArticleView 渲染文章页所需的数据，URL 为空表示该字段不输出
type ArticleView struct {
	Record     *objects.ArticleRecord
	Scheme     objects.Scheme
	PreviewURL string
	PayloadURL string
}

type Option func(*ArticleService)

// WithIDSource 替换 ID 生成器，测试中用于固定 ID
func WithIDSource(fn func() string) Option {
	return func(s *ArticleService) { s.newID = fn }
}

// WithLegacyBaseURL 旧记录文件名拼接的地址
func WithLegacyBaseURL(base string) Option {
	return func(s *ArticleService) { s.legacyBaseURL = base }
}

func WithHeadlineFilter(f HeadlineFilter) Option {
	return func(s *ArticleService) { s.headlineFilter = f }
}

// ArticleService 创建 / 查看文章
type ArticleService struct {
	assets         AssetBinder
	store          ArticleStore
	newID          func() string
	legacyBaseURL  string
	headlineFilter HeadlineFilter
}

func NewArticleService(assets AssetBinder, store ArticleStore, opts ...Option) *ArticleService {
	s := &ArticleService{
		assets: assets,
		store:  store,
		newID:  idgen.Allocate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate 按固定顺序校验，返回第一个失败项
func Validate(in CreateInput) error {
	switch {
	case strings.TrimSpace(in.Headline) == "":
		return fail("headline_required", MsgHeadlineRequired)
	case !present(in.Preview):
		return fail("preview_required", MsgPreviewRequired)
	case !present(in.Payload):
		return fail("payload_required", MsgPayloadRequired)
	case !asset.Allowed(in.Preview.Filename):
		return fail("preview_type", MsgPreviewType)
	case !asset.Allowed(in.Payload.Filename):
		return fail("payload_type", MsgPayloadType)
	}
	return nil
}

func present(f *core.UploadFile) bool {
	return f != nil && f.Content != nil && f.Filename != ""
}

func fail(reason, msg string) error {
	metrics.ValidationFailures.WithLabelValues(reason).Inc()
	return xerrors.NewValidation(msg)
}

// Create 校验 -> 分配 ID -> 上传两张图 -> 写入记录
// 图片先于记录落盘，中途失败只会留下无人引用的图片
func (s *ArticleService) Create(ctx context.Context, in CreateInput) (string, error) {
	if err := Validate(in); err != nil {
		return "", err
	}

	headline := strings.TrimSpace(in.Headline)
	if s.headlineFilter != nil {
		headline = s.headlineFilter.Mask(headline)
	}

	id, err := s.allocate(ctx)
	if err != nil {
		return "", err
	}

	// 两次上传互不依赖，并发执行，必须都成功
	var previewKey, payloadKey string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		key, err := s.assets.Put(gctx, id, core.RolePreview, in.Preview)
		previewKey = key
		return err
	})
	g.Go(func() error {
		key, err := s.assets.Put(gctx, id, core.RolePayload, in.Payload)
		payloadKey = key
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	rec := &objects.ArticleRecord{
		ID:              id,
		Headline:        headline,
		PreviewAssetKey: previewKey,
		PayloadAssetKey: payloadKey,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return "", fmt.Errorf("insert article %s: %w", id, err)
	}

	metrics.ArticlesCreated.Inc()
	logger.Info("article created",
		zap.String("article_id", id),
		zap.String("preview_key", previewKey),
		zap.String("payload_key", payloadKey),
	)
	return id, nil
}

// allocate 分配一个库中尚不存在的 ID
// 40 bit 熵下碰撞极少见，检查只是为了保证上传不会覆盖已有文章的图片
func (s *ArticleService) allocate(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxAllocateAttempts; attempt++ {
		id := s.newID()
		exists, err := s.store.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check article id: %w", err)
		}
		if !exists {
			return id, nil
		}
		logger.Warn("article id collision, retrying", zap.String("article_id", id), zap.Int("attempt", attempt))
	}
	return "", fmt.Errorf("allocate article id: %w", repo.ErrDuplicateID)
}

// View 读取文章并解析两张图的地址，不修改任何状态
func (s *ArticleService) View(ctx context.Context, id string) (*ArticleView, error) {
	rec, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load article %s: %w", id, err)
	}
	if !ok {
		return nil, xerrors.NewNotFound("article not found")
	}

	view := &ArticleView{Record: rec, Scheme: rec.Scheme()}
	switch view.Scheme {
	case objects.SchemeCurrent:
		view.PreviewURL = s.assets.URLFor(rec.PreviewAssetKey)
		view.PayloadURL = s.assets.URLFor(rec.PayloadAssetKey)
	case objects.SchemeLegacy:
		if s.legacyBaseURL != "" {
			view.PreviewURL = storage.JoinURL(s.legacyBaseURL, rec.OgFilename)
			view.PayloadURL = storage.JoinURL(s.legacyBaseURL, rec.TrollFilename)
		}
	default:
		logger.Warn("article record has no usable asset fields", zap.String("article_id", id))
	}
	return view, nil
}

// IsValidation 是否为可直接展示给用户的校验错误
func IsValidation(err error) bool {
	return errors.Is(err, xerrors.ErrValidation)
}
