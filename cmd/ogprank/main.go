package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iceymoss/og-prank/internal/asset"
	"github.com/iceymoss/og-prank/internal/conf"
	"github.com/iceymoss/og-prank/internal/core"
	"github.com/iceymoss/og-prank/internal/engine"
	"github.com/iceymoss/og-prank/internal/repo"
	"github.com/iceymoss/og-prank/internal/server"
	"github.com/iceymoss/og-prank/internal/service"
	"github.com/iceymoss/og-prank/internal/tasks"
	// import anonymously to register tasks to the list
	_ "github.com/iceymoss/og-prank/internal/tasks/store"
	"github.com/iceymoss/og-prank/pkg/db"
	"github.com/iceymoss/og-prank/pkg/logger"
	"github.com/iceymoss/og-prank/pkg/sensitive"
	"github.com/iceymoss/og-prank/pkg/storage"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn("⚠️ .env not loaded", zap.Error(err))
	}

	path := os.Getenv("OGPRANK_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := conf.LoadConfig(path)
	if err != nil {
		logger.Fatal("❌ LoadConfig error", zap.String("path", path), zap.Error(err))
	}
	if cfg.Log.Level != "" {
		logger.SetLevel(cfg.Log.Level)
	}

	ctx := context.Background()

	fs, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("❌ Storage error", zap.Error(err))
	}
	binding := asset.NewBinding(fs, cfg.Storage.KeyPrefix, cfg.Storage.PublicBaseURL, cfg.Storage.UploadTimeout)

	doc, closeDoc, err := openDocument(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("❌ Store error", zap.Error(err))
	}
	defer closeDoc()
	articles := repo.NewArticleRepo(doc)

	opts := []service.Option{service.WithLegacyBaseURL(cfg.Legacy.BaseURL)}
	if cfg.Headline.SensitiveDict != "" {
		mask := sensitive.DefaultMask
		if r := []rune(cfg.Headline.MaskChar); len(r) == 1 {
			mask = r[0]
		}
		word, err := sensitive.NewWord(cfg.Headline.SensitiveDict, mask)
		if err != nil {
			logger.Fatal("❌ Sensitive dict error", zap.Error(err))
		}
		opts = append(opts, service.WithHeadlineFilter(word))
	}
	svc := service.NewArticleService(binding, articles, opts...)

	sched := engine.NewScheduler(&core.TaskEnv{Store: articles})
	loadJobs(sched, cfg.Jobs)

	// 启动时检查一次，损坏的库只会被当成空库，需要在日志里显眼地提示
	report, err := articles.Inspect(ctx)
	switch {
	case err != nil:
		logger.Fatal("❌ Store unreachable", zap.String("document", doc.Name()), zap.Error(err))
	case report.Corrupt:
		logger.Error("🚨 article store is corrupt, serving as empty until repaired",
			zap.String("document", doc.Name()))
	default:
		logger.Info("📚 article store loaded", zap.String("document", doc.Name()),
			zap.Int("records", report.Records), zap.Int("legacy", report.Legacy), zap.Int("unknown", report.Unknown))
	}

	srv := server.NewServer(cfg, svc, sched)

	go func() {
		logger.Info("🌐 og-prank running", zap.String("addr", cfg.Server.Port), zap.String("store", doc.Name()))
		if err := srv.Run(cfg.Server.Port); err != nil {
			logger.Fatal("❌ Server error", zap.Error(err))
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	<-sigCtx.Done()

	logger.Info("🛑 shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Sync()
}

func openStorage(ctx context.Context, c conf.StorageConfig) (storage.FileStorage, error) {
	switch c.Driver {
	case conf.StorageDriverLocal:
		logger.Warn("⚠️ local storage driver in use, images are served by this process", zap.String("dir", c.BasePath))
		return storage.NewLocalStorage(c.BasePath, c.PublicBaseURL), nil
	case conf.StorageDriverS3:
		s, err := storage.NewMinioStorage(storage.MinioOptions{
			Endpoint:      c.Endpoint,
			AccessKey:     c.AccessKey,
			SecretKey:     c.SecretKey,
			Bucket:        c.Bucket,
			Region:        c.Region,
			PublicBaseURL: c.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		ok, err := s.BucketExists(checkCtx)
		switch {
		case err != nil:
			logger.Warn("⚠️ bucket check failed", zap.String("bucket", c.Bucket), zap.Error(err))
		case !ok:
			logger.Warn("⚠️ bucket does not exist", zap.String("bucket", c.Bucket))
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Driver)
	}
}

func openDocument(ctx context.Context, c conf.StoreConfig) (db.Document, func(), error) {
	switch c.Driver {
	case conf.StoreDriverFile:
		return db.NewFileDocument(c.Path), func() {}, nil
	case conf.StoreDriverRedis:
		rdb := db.NewRedisClient(db.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", c.Redis.Addr, err)
		}
		return db.NewRedisDocument(rdb, c.Redis.Key, c.Redis.LockTTL), func() { _ = rdb.Close() }, nil
	case conf.StoreDriverMongo:
		client, err := db.NewMongoClient(ctx, c.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		coll := client.Database(c.Mongo.Database).Collection(c.Mongo.Collection)
		closeFn := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}
		return db.NewMongoDocument(coll, c.Mongo.DocID), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", c.Driver)
	}
}

// loadJobs 先加载配置中的任务，再补充未被覆盖的自启动任务
func loadJobs(sched *engine.Scheduler, jobs []conf.JobConfig) {
	configured := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		configured[job.Name] = true
		if !job.Enable {
			logger.Info("⏸️ [Config] Job disabled", zap.String("job", job.Name))
			continue
		}
		if err := sched.AddJob(job.Cron, job.Name, job.Name, job.Params, tasks.SourceYAML); err != nil {
			logger.Error("❌ [Config] Failed to load job", zap.String("job", job.Name), zap.Error(err))
		}
	}
	tasks.ApplyAutoJobs(sched, configured)
}
