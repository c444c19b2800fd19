package form

// 分类/类型/模板的状态（软删除即翻转为 inactive）
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// 实例状态机状态
const (
	InstanceDraft     = "draft"
	InstancePending   = "pending"
	InstanceApproved  = "approved"
	InstanceRejected  = "rejected"
	InstanceCompleted = "completed"
	InstanceCancelled = "cancelled"
)

// LiveInstanceStatuses 在途状态：参与重复提交检测与模板删除保护
var LiveInstanceStatuses = []string{InstanceDraft, InstancePending, InstanceApproved}

// instanceTransitions 实例状态迁移表，唯一的合法迁移来源
// rejected 非终态：允许退回 draft 重新编辑或直接重新提交
// pending/approved/rejected 允许原状态重入（幂等，不重复盖时间戳）
var instanceTransitions = map[string]map[string]bool{
	InstanceDraft: {
		InstancePending:   true,
		InstanceCancelled: true,
	},
	InstancePending: {
		InstancePending:   true,
		InstanceApproved:  true,
		InstanceRejected:  true,
		InstanceCancelled: true,
	},
	InstanceApproved: {
		InstanceApproved:  true,
		InstanceCompleted: true,
		InstanceCancelled: true,
	},
	InstanceRejected: {
		InstanceRejected:  true,
		InstanceDraft:     true,
		InstancePending:   true,
		InstanceCancelled: true,
	},
	InstanceCompleted: {},
	InstanceCancelled: {},
}

// CanTransition 判断实例状态迁移是否合法
func CanTransition(from, to string) bool {
	targets, ok := instanceTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// IsTerminalStatus 判断是否终态
func IsTerminalStatus(status string) bool {
	return status == InstanceCompleted || status == InstanceCancelled
}

// IsLiveStatus 判断是否在途状态
func IsLiveStatus(status string) bool {
	for _, s := range LiveInstanceStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsDeletableStatus 只有 draft / rejected 允许删除（删除实现为迁移到 cancelled）
func IsDeletableStatus(status string) bool {
	return status == InstanceDraft || status == InstanceRejected
}

// IsValidInstanceStatus 判断是否已知状态
func IsValidInstanceStatus(status string) bool {
	_, ok := instanceTransitions[status]
	return ok
}
