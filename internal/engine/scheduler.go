package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iceymoss/og-prank/internal/core"
	"github.com/iceymoss/og-prank/internal/tasks"
	"github.com/iceymoss/og-prank/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const timeLayout = "2006-01-02 15:04:05"

// jobTimeout 维护任务单次执行的上限
const jobTimeout = 5 * time.Minute

type registeredJob struct {
	task    core.Task
	params  map[string]any
	entryID cron.EntryID
}

type Scheduler struct {
	cron  *cron.Cron
	Stats *StatManager
	env   *core.TaskEnv

	mu         sync.RWMutex
	registered map[string]registeredJob
}

func NewScheduler(env *core.TaskEnv) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		Stats:      NewStatManager(),
		env:        env,
		registered: make(map[string]registeredJob),
	}
}

// AddJob 添加任务
func (s *Scheduler) AddJob(cronExpr, taskName, uniqueJobName string, params map[string]any, source string) error {
	// 1. 获取任务实现
	taskInstance, err := tasks.GetTask(taskName, s.env)
	if err != nil {
		return err
	}

	// 2. 先校验表达式，失败时不留下状态
	wrapper := func() {
		_ = s.runTaskWithStats(uniqueJobName, taskInstance, params)
	}
	entryID, err := s.cron.AddFunc(cronExpr, wrapper)
	if err != nil {
		return fmt.Errorf("invalid cron %q for %s: %w", cronExpr, uniqueJobName, err)
	}

	// 3. 初始化状态
	s.Stats.Set(uniqueJobName, &JobStats{
		Name:       uniqueJobName,
		CronExpr:   cronExpr,
		Status:     "Idle",
		LastResult: "Pending",
		Source:     source,
	})

	// 保存引用以便手动触发
	s.mu.Lock()
	s.registered[uniqueJobName] = registeredJob{task: taskInstance, params: params, entryID: entryID}
	s.mu.Unlock()

	s.refreshNext(uniqueJobName)
	return nil
}

// refreshNext 直接用 Schedule 计算下一次时间，cron 未启动时 Entry.Next 为零值
func (s *Scheduler) refreshNext(name string) {
	s.mu.RLock()
	reg, ok := s.registered[name]
	s.mu.RUnlock()
	if !ok {
		return
	}
	entry := s.cron.Entry(reg.entryID)
	if entry.Schedule == nil {
		return
	}
	next := entry.Schedule.Next(time.Now())
	s.Stats.Update(name, func(st *JobStats) {
		st.rawNext = next
		if !next.IsZero() {
			st.NextRunTime = next.Format(timeLayout)
		}
	})
}

// runTaskWithStats 执行并记录状态
func (s *Scheduler) runTaskWithStats(name string, task core.Task, params map[string]any) error {
	s.Stats.Update(name, func(st *JobStats) {
		st.Status = "Running"
		st.LastRunTime = time.Now().Format(timeLayout)
		st.RunCount++
	})

	logger.Info("🚀 [Schedule] Starting job", zap.String("job", name))

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	err := task.Run(ctx, params)

	s.Stats.Update(name, func(st *JobStats) {
		if err != nil {
			st.LastResult = fmt.Sprintf("Error: %v", err)
			st.Status = "Error"
		} else {
			st.LastResult = "Success"
			st.Status = "Idle"
		}
	})
	s.refreshNext(name)
	if err != nil {
		logger.Error("❌ [Schedule] Job failed", zap.String("job", name), zap.Error(err))
	} else {
		logger.Info("✅ [Schedule] Job finished", zap.String("job", name))
	}
	return err
}

// ManualRun 手动触发，异步执行
func (s *Scheduler) ManualRun(uniqueJobName string) error {
	s.mu.RLock()
	reg, ok := s.registered[uniqueJobName]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found")
	}
	go s.runTaskWithStats(uniqueJobName, reg.task, reg.params)
	return nil
}

// RunNow 同步执行一次，启动检查使用
func (s *Scheduler) RunNow(uniqueJobName string) error {
	s.mu.RLock()
	reg, ok := s.registered[uniqueJobName]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found")
	}
	return s.runTaskWithStats(uniqueJobName, reg.task, reg.params)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
