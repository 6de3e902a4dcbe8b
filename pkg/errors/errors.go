package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
// 调用方应提示用户刷新后重试，而非视为永久失败
var ErrOptimisticLock = errors.New("记录已被其他操作修改，请刷新后重试")
