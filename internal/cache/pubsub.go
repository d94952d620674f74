package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/redis/go-redis/v9"
)

// Report channels
const (
	ChannelReportsAll   = "reports:all"
	channelReportsLevel = "reports:level:"
	channelReportsMint  = "reports:mint:"
)

// PubSubManager broadcasts finished reports over Redis Pub/Sub.
type PubSubManager struct {
	client *redis.Client
}

// LevelChannel carries reports of one risk tier.
func LevelChannel(level models.RiskLevel) string { return channelReportsLevel + string(level) }

// MintChannel carries reports of one mint.
func MintChannel(mint string) string { return channelReportsMint + mint }

func NewPubSubManager(client *redis.Client) *PubSubManager {
	return &PubSubManager{client: client}
}

// PublishReport fans a report event out to the global, per-tier and per-mint channels.
func (p *PubSubManager) PublishReport(ctx context.Context, event *models.ReportEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channels := []string{
		ChannelReportsAll,
		LevelChannel(event.RiskLevel),
		MintChannel(event.MintAddress),
	}

	pipe := p.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}

// Subscribe returns report events from the given channels until ctx is done.
func (p *PubSubManager) Subscribe(ctx context.Context, channels ...string) (<-chan *models.ReportEvent, error) {
	if len(channels) == 0 {
		channels = []string{ChannelReportsAll}
	}

	sub := p.client.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan *models.ReportEvent, 64)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev models.ReportEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- &ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
