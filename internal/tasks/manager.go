package tasks

import (
	"fmt"
	"sync"

	"github.com/iceymoss/og-prank/internal/core"
	"github.com/iceymoss/og-prank/pkg/logger"

	"go.uber.org/zap"
)

const (
	SourceSystem = "SYSTEM"
	SourceYAML   = "YAML"
)

type Scheduler interface {
	AddJob(cronExpr, taskName, uniqueJobName string, params map[string]any, source string) error
}

// ApplyAutoJobs 注册所有自启动任务，配置中同名任务优先
func ApplyAutoJobs(sched Scheduler, skip map[string]bool) {
	mu.RLock()
	defer mu.RUnlock()

	for _, job := range autoJobs {
		if skip[job.Name] {
			continue
		}
		err := sched.AddJob(job.Cron, job.Name, job.Name, job.Params, SourceSystem)
		if err != nil {
			logger.Error("❌ [AutoLoad] Failed to load job", zap.String("job", job.Name), zap.Error(err))
		} else {
			logger.Info("✅ [AutoLoad] Loaded job", zap.String("job", job.Name), zap.String("cron", job.Cron))
		}
	}
}

// AutoJob 定义一个“自启动任务”的结构
type AutoJob struct {
	Name    string           // 任务唯一标识
	Cron    string           // Cron 表达式
	Creator core.TaskCreator // 构造函数
	Params  map[string]any   // 默认参数
}

var (
	registry = make(map[string]core.TaskCreator) // 普通任务注册（供 Config 调用）
	autoJobs = make([]*AutoJob, 0)               // 自动任务列表（供代码直接启动）
	mu       sync.RWMutex
)

// Register 供 Config 使用
func Register(name string, creator core.TaskCreator) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = creator
}

// RegisterAuto 注册并自动启动
func RegisterAuto(name string, cron string, creator core.TaskCreator, defaultParams map[string]any) {
	mu.Lock()
	defer mu.Unlock()

	registry[name] = creator
	autoJobs = append(autoJobs, &AutoJob{
		Name:    name,
		Cron:    cron,
		Creator: creator,
		Params:  defaultParams,
	})
}

func GetTask(name string, env *core.TaskEnv) (core.Task, error) {
	mu.RLock()
	defer mu.RUnlock()
	creator, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("task implementation '%s' not found", name)
	}
	return creator(env), nil
}
