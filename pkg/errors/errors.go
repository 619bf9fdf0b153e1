package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ── 错误分类 ──
// 各业务模块的哨兵错误通过 fmt.Errorf("%w: ...") 包装以下分类，
// Handler 层可以按分类统一映射 HTTP 状态码。

var (
	// ErrNotFound 引用的学生、文档或奖项不存在
	ErrNotFound = errors.New("资源不存在")
	// ErrInvalidArgument 参数不合法（如审核决定不在 approve/reject 之内）
	ErrInvalidArgument = errors.New("参数无效")
	// ErrStepLocked 提交目标步骤尚未解锁
	ErrStepLocked = errors.New("提交步骤未解锁")
	// ErrUnauthorized 缺少审核人身份
	ErrUnauthorized = errors.New("未授权")
	// ErrAggregateRecomputeFailed 审核结果已保存，但汇总状态重算失败，需要重试重算
	ErrAggregateRecomputeFailed = errors.New("汇总状态重算失败")
)
