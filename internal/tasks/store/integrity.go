package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/iceymoss/og-prank/internal/core"
	"github.com/iceymoss/og-prank/internal/tasks"
	"github.com/iceymoss/og-prank/pkg/logger"

	"go.uber.org/zap"
)

const TaskName = "store:integrity"

// ErrCorrupt 文章库文档无法解析
var ErrCorrupt = errors.New("article store is corrupt")

// IntegrityTask 定时检查文章库能否解析
// 读取路径遇到损坏文档时会静默当成空库，这里负责把问题报给运维
type IntegrityTask struct {
	store core.StoreInspector
}

func init() {
	tasks.RegisterAuto(TaskName, "0 */10 * * * *", NewIntegrityTask, nil)
}

func NewIntegrityTask(env *core.TaskEnv) core.Task {
	return &IntegrityTask{store: env.Store}
}

func (t *IntegrityTask) Identifier() string {
	return TaskName
}

func (t *IntegrityTask) Run(ctx context.Context, params map[string]any) error {
	if t.store == nil {
		return fmt.Errorf("%s: no store configured", TaskName)
	}

	report, err := t.store.Inspect(ctx)
	if err != nil {
		return fmt.Errorf("inspect store: %w", err)
	}

	fields := []zap.Field{
		zap.String("document", report.Document),
		zap.Int("records", report.Records),
		zap.Int("current", report.Current),
		zap.Int("legacy", report.Legacy),
		zap.Int("unknown", report.Unknown),
	}
	if report.Corrupt {
		logger.Error("🚨 article store cannot be parsed; reads see an empty store until it is repaired", fields...)
		return ErrCorrupt
	}
	if report.Unknown > 0 {
		logger.Warn("article store has records without usable asset fields", fields...)
	}
	logger.Info("article store ok", fields...)
	return nil
}
