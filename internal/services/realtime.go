package services

import (
	"modulyn/pkg/logger"
	"modulyn/pkg/queue"
)

// ChangePublisher 行级变更发布接口，由Redis队列实现。
// 各服务通过SetPublisher注入，未注入时静默跳过（测试场景）
type ChangePublisher interface {
	PublishChange(event *queue.ChangeEvent) error
}

// publishChange 发布一条行级变更事件。
// 发布失败只记日志不影响主流程——实时通知是尽力而为的
func publishChange(p ChangePublisher, table, action string, orgID, rowID uint) {
	if p == nil {
		return
	}

	event := &queue.ChangeEvent{
		Table:  table,
		Action: action,
		OrgID:  orgID,
		RowID:  rowID,
	}
	if err := p.PublishChange(event); err != nil {
		logger.GetLogger().Warnf("发布变更事件失败 [%s:%s:%d]: %v", table, action, rowID, err)
	}
}
