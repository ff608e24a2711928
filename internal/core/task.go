package core

import "context"

// TaskCreator 定义任务构造函数签名
type TaskCreator func(env *TaskEnv) Task

// Task 维护任务接口
type Task interface {
	// Run 执行任务逻辑
	// params 是从配置文件传入的动态参数
	Run(ctx context.Context, params map[string]any) error

	// Identifier 返回任务唯一标识 (用于日志)
	Identifier() string
}

// StoreInspector 任务需要的文章库能力
type StoreInspector interface {
	Inspect(ctx context.Context) (StoreReport, error)
}

// StoreReport 文章库体检结果
type StoreReport struct {
	Document string `json:"document"`
	Records  int    `json:"records"`
	Current  int    `json:"current"`
	Legacy   int    `json:"legacy"`
	Unknown  int    `json:"unknown"`
	Missing  bool   `json:"missing"` // 文档尚未创建
	Corrupt  bool   `json:"corrupt"` // 文档存在但无法解析
}

// TaskEnv 构造任务时注入的依赖
type TaskEnv struct {
	Store StoreInspector
}
