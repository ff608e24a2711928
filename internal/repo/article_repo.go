package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/iceymoss/og-prank/internal/core"
	"github.com/iceymoss/og-prank/internal/metrics"
	"github.com/iceymoss/og-prank/pkg/db"
	"github.com/iceymoss/og-prank/pkg/db/objects"
	"github.com/iceymoss/og-prank/pkg/logger"

	"go.uber.org/zap"
)

// ErrDuplicateID 插入时 ID 已存在
var ErrDuplicateID = errors.New("article id already exists")

// Articles id -> 记录
type Articles map[string]*objects.ArticleRecord

// snapshot 一次读取的结果
type snapshot struct {
	articles Articles
	raw      []byte
	missing  bool
	corrupt  bool
}

// ArticleRepo 文章库
// 整个库是一份文档：每次操作都重新读取，写入时整体覆盖，不在内存中缓存。
// LoadAll/SaveAll 本身不加锁，直接组合使用时并发写会互相覆盖（后写者胜）；
// 新增记录请走 Insert，它把 读取-修改-写回 放在同一个互斥区内
type ArticleRepo struct {
	doc db.Document
	mu  sync.Mutex
}

func NewArticleRepo(doc db.Document) *ArticleRepo {
	return &ArticleRepo{doc: doc}
}

// LoadAll 读取全部记录
// 文档不存在返回空表；内容无法解析也返回空表，但会打告警日志
func (r *ArticleRepo) LoadAll(ctx context.Context) (Articles, error) {
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.articles, nil
}

// SaveAll 序列化全部记录并覆盖写入
func (r *ArticleRepo) SaveAll(ctx context.Context, articles Articles) error {
	if articles == nil {
		articles = Articles{}
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return fmt.Errorf("encode articles: %w", err)
	}
	if err := r.doc.Write(ctx, data); err != nil {
		return fmt.Errorf("save articles: %w", err)
	}
	return nil
}

// Get 按 ID 查询
func (r *ArticleRepo) Get(ctx context.Context, id string) (*objects.ArticleRecord, bool, error) {
	articles, err := r.LoadAll(ctx)
	if err != nil {
		return nil, false, err
	}
	rec, ok := articles[id]
	return rec, ok, nil
}

func (r *ArticleRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := r.Get(ctx, id)
	return ok, err
}

// Insert 追加一条记录，ID 已存在时返回 ErrDuplicateID，不会覆盖
func (r *ArticleRepo) Insert(ctx context.Context, rec *objects.ArticleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if locker, ok := r.doc.(db.Locker); ok {
		unlock, err := locker.Lock(ctx)
		if err != nil {
			return fmt.Errorf("lock %s: %w", r.doc.Name(), err)
		}
		defer unlock()
	}

	snap, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := snap.articles[rec.ID]; ok {
		return ErrDuplicateID
	}

	if snap.corrupt {
		backup, err := r.doc.Preserve(ctx, snap.raw)
		if err != nil {
			// 备份失败则放弃写入
			return fmt.Errorf("preserve corrupt %s: %w", r.doc.Name(), err)
		}
		logger.Warn("⚠️ corrupt article store preserved before overwrite",
			zap.String("document", r.doc.Name()),
			zap.String("backup", backup),
		)
	}

	snap.articles[rec.ID] = rec
	if err := r.SaveAll(ctx, snap.articles); err != nil {
		return err
	}
	if snap.corrupt {
		metrics.StoreCorrupt.Set(0)
	}
	return nil
}

// Inspect 统计库内记录，用于启动检查和定时体检
func (r *ArticleRepo) Inspect(ctx context.Context) (core.StoreReport, error) {
	report := core.StoreReport{Document: r.doc.Name()}

	snap, err := r.load(ctx)
	if err != nil {
		return report, err
	}
	report.Missing = snap.missing
	report.Corrupt = snap.corrupt
	report.Records = len(snap.articles)
	for _, rec := range snap.articles {
		switch rec.Scheme() {
		case objects.SchemeCurrent:
			report.Current++
		case objects.SchemeLegacy:
			report.Legacy++
		default:
			report.Unknown++
		}
	}
	return report, nil
}

func (r *ArticleRepo) load(ctx context.Context) (*snapshot, error) {
	raw, err := r.doc.Read(ctx)
	if errors.Is(err, db.ErrNotExist) {
		return &snapshot{articles: Articles{}, missing: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return &snapshot{articles: Articles{}, raw: raw}, nil
	}

	articles, err := decode(raw)
	if err != nil {
		metrics.StoreCorrupt.Set(1)
		logger.Warn("⚠️ article store is not valid JSON, treating it as empty",
			zap.String("document", r.doc.Name()),
			zap.Int("bytes", len(raw)),
			zap.Error(err),
		)
		return &snapshot{articles: Articles{}, raw: raw, corrupt: true}, nil
	}
	return &snapshot{articles: articles, raw: raw}, nil
}

// decode 以 map 的键为准补全记录 ID，丢弃 null 记录
func decode(raw []byte) (Articles, error) {
	var articles Articles
	if err := json.Unmarshal(raw, &articles); err != nil {
		return nil, err
	}
	if articles == nil {
		articles = Articles{}
	}
	for id, rec := range articles {
		if rec == nil {
			delete(articles, id)
			continue
		}
		if rec.ID == "" {
			rec.ID = id
		}
	}
	return articles, nil
}
