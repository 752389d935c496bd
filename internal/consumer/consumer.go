package consumer

import (
	"context"
	"encoding/json"
	"log"

	"github.com/IBM/sarama"

	"github.com/howufeel/howufeel/internal/notify"
	"github.com/howufeel/howufeel/internal/services"
)

// Broadcaster 把事件推给群组内的在线客户端（WebSocket Hub）
type Broadcaster interface {
	BroadcastToGroup(groupID uint, message any)
}

// EventConsumer 消费群组事件：评分事件走 webhook 通知 + 实时推送，
// 成员变更事件只做实时推送
type EventConsumer struct {
	notifier *notify.WebhookNotifier
	hub      Broadcaster
}

func NewEventConsumer(notifier *notify.WebhookNotifier, hub Broadcaster) *EventConsumer {
	return &EventConsumer{
		notifier: notifier,
		hub:      hub,
	}
}

// envelope 只取路由需要的字段
type envelope struct {
	Type    string `json:"type"`
	GroupID uint   `json:"group_id"`
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (consumer *EventConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (consumer *EventConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
func (consumer *EventConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var env envelope
		if err := json.Unmarshal(message.Value, &env); err != nil {
			log.Printf("failed to unmarshal event: %v", err)
			session.MarkMessage(message, "")
			continue
		}

		// webhook 只通知评分事件，失败只记录，不重试（fire-and-forget）
		if env.Type == "rating.created" && consumer.notifier != nil {
			var event services.RatingEvent
			if err := json.Unmarshal(message.Value, &event); err == nil {
				consumer.notifier.Notify(session.Context(), event)
			}
		}

		if consumer.hub != nil {
			consumer.hub.BroadcastToGroup(env.GroupID, json.RawMessage(message.Value))
		}

		session.MarkMessage(message, "")
	}
	return nil
}

// StartConsumer 启动消费者组循环
func StartConsumer(brokers []string, groupID string, topic string, consumer *EventConsumer) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		log.Fatalf("failed to create consumer group client: %v", err)
	}

	ctx := context.Background()
	go func() {
		for {
			if err := client.Consume(ctx, []string{topic}, consumer); err != nil {
				log.Printf("consumer error: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
}
