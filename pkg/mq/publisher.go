package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ahmed-moohram/elmostqbal-sub002/config"
)

// NotificationEvent 出站通知事件
// 由下游消费者转发到 WhatsApp / 短信等渠道，本服务不关心投递结果
type NotificationEvent struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	RelatedType    string `json:"related_type,omitempty"`
	RelatedID      string `json:"related_id,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

// Publisher 通知事件发布接口
type Publisher interface {
	PublishNotification(ctx context.Context, event *NotificationEvent) error
	Close() error
}

type rabbitPublisher struct {
	mu         sync.Mutex // amqp091.Channel 不是并发安全的
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewRabbitPublisher 连接 RabbitMQ 并声明 exchange / queue / binding
func NewRabbitPublisher(cfg *config.MQConfig, logger *zap.Logger) (Publisher, error) {
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("打开 channel 失败: %w", err)
	}

	if err := channel.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("声明 exchange 失败: %w", err)
	}

	queue, err := channel.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("声明 queue 失败: %w", err)
	}

	if err := channel.QueueBind(queue.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("绑定 queue 失败: %w", err)
	}

	logger.Info("RabbitMQ 连接成功",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", queue.Name),
		zap.String("routing_key", cfg.RoutingKey),
	)

	return &rabbitPublisher{
		conn:       conn,
		channel:    channel,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

func (p *rabbitPublisher) PublishNotification(ctx context.Context, event *NotificationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化通知事件失败: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(publishCtx, p.exchange, p.routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		MessageId:    event.NotificationID,
	})
	if err != nil {
		return fmt.Errorf("发布通知事件失败: %w", err)
	}
	return nil
}

func (p *rabbitPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("关闭 RabbitMQ channel 失败", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Warn("关闭 RabbitMQ 连接失败", zap.Error(err))
		}
	}
	return nil
}

// ── 未启用 MQ 时的空实现 ──

type nopPublisher struct{}

// NewNopPublisher 不发布任何事件（mq.enabled=false 或连接失败降级时使用）
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) PublishNotification(context.Context, *NotificationEvent) error { return nil }
func (nopPublisher) Close() error { return nil }
