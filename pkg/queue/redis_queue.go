package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisQueue Redis队列实现，承载邮件活动投递消息和实时变更事件
type RedisQueue struct {
	client *redis.Client
	prefix string
}

// CampaignMessage 队列中的活动投递消息
type CampaignMessage struct {
	MessageID    string `json:"message_id"`
	CampaignID   uint   `json:"campaign_id"`
	TemplateID   uint   `json:"template_id"`
	OrgID        uint   `json:"org_id"`
	OrgName      string `json:"org_name"`      // 组织名称
	RequestedBy  uint   `json:"requested_by"`  // 发起人ID
	Recipients   int    `json:"recipients"`    // 目标收件人数
	ScheduledFor int64  `json:"scheduled_for"` // 计划发送时间（Unix秒）
	Created      int64  `json:"created"`
}

// ChangeEvent 行级变更事件，供实时通道推送
type ChangeEvent struct {
	Table  string `json:"table"`
	Action string `json:"action"` // insert / update / delete
	OrgID  uint   `json:"org_id"`
	RowID  uint   `json:"row_id"`
	At     int64  `json:"at"`
}

// 变更事件动作常量
const (
	ChangeInsert = "insert"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewRedisQueue 创建Redis队列实例
func NewRedisQueue(config *Config) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "modulyn:queue"
	}

	return &RedisQueue{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Ping 测试Redis连接
func (q *RedisQueue) Ping() error {
	ctx := context.Background()
	return q.client.Ping(ctx).Err()
}

// GetClient 获取底层客户端（WebSocket订阅使用）
func (q *RedisQueue) GetClient() *redis.Client {
	return q.client
}

// EnqueueCampaign 将活动投递消息加入队列
func (q *RedisQueue) EnqueueCampaign(message *CampaignMessage) error {
	ctx := context.Background()

	if message.Created == 0 {
		message.Created = time.Now().Unix()
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("序列化活动消息失败: %v", err)
	}

	// 加入队列（左侧入队）
	queueKey := q.campaignQueueKey()
	if err := q.client.LPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("活动消息入队失败: %v", err)
	}

	// 记录消息状态（用于查询），24小时过期
	msgKey := fmt.Sprintf("%s:campaign:msg:%s", q.prefix, message.MessageID)
	info := map[string]interface{}{
		"message_id":  message.MessageID,
		"campaign_id": message.CampaignID,
		"org_id":      message.OrgID,
		"status":      "queued",
		"queued_at":   time.Now().Unix(),
	}
	if err := q.client.HSet(ctx, msgKey, info).Err(); err != nil {
		return fmt.Errorf("记录消息状态失败: %v", err)
	}
	q.client.Expire(ctx, msgKey, 24*time.Hour)

	return nil
}

// CampaignQueueLength 获取待投递消息数
func (q *RedisQueue) CampaignQueueLength() (int64, error) {
	ctx := context.Background()
	return q.client.LLen(ctx, q.campaignQueueKey()).Result()
}

// PublishChange 发布行级变更事件
func (q *RedisQueue) PublishChange(event *ChangeEvent) error {
	ctx := context.Background()

	if event.At == 0 {
		event.At = time.Now().Unix()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化变更事件失败: %v", err)
	}

	return q.client.Publish(ctx, q.ChangeChannel(event.OrgID, event.Table), data).Err()
}

// SubscribeChanges 订阅指定组织、指定表的变更事件
func (q *RedisQueue) SubscribeChanges(ctx context.Context, orgID uint, table string) *redis.PubSub {
	return q.client.Subscribe(ctx, q.ChangeChannel(orgID, table))
}

// ChangeChannel 变更事件频道名
func (q *RedisQueue) ChangeChannel(orgID uint, table string) string {
	return fmt.Sprintf("%s:rt:%d:%s", q.prefix, orgID, table)
}

func (q *RedisQueue) campaignQueueKey() string {
	return fmt.Sprintf("%s:campaign:pending", q.prefix)
}
