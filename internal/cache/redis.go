package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

var ErrNoReport = errors.New("no cached report")

// ReportCache keeps the latest report per source tag in Redis so the API can
// serve it without a ClickHouse round trip, and fans out completion events
// over pub/sub.
type ReportCache struct {
	client redis.Cmdable
	pub    *redis.Client
	logger *logrus.Logger
}

func NewReportCache(client *redis.Client, logger *logrus.Logger) *ReportCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &ReportCache{client: client, pub: client, logger: logger}
}

// SetLatest caches the report under its source tag. The cache carries no TTL;
// a newer run simply overwrites it.
func (c *ReportCache) SetLatest(ctx context.Context, report *models.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := c.client.Set(ctx, reportKey(report.SourceTag), data, 0).Err(); err != nil {
		return fmt.Errorf("cache report: %w", err)
	}
	return nil
}

// GetLatest returns the cached report for a tag, or ErrNoReport.
func (c *ReportCache) GetLatest(ctx context.Context, sourceTag string) (*models.Report, error) {
	val, err := c.client.Get(ctx, reportKey(sourceTag)).Result()
	if err == redis.Nil {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, fmt.Errorf("get cached report: %w", err)
	}

	var r models.Report
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		return nil, fmt.Errorf("unmarshal cached report: %w", err)
	}
	return &r, nil
}

// CompletionEvent is published when a pipeline run finishes successfully.
type CompletionEvent struct {
	ReportDate  string    `json:"report_date"`
	SourceTag   string    `json:"source_tag"`
	ModelUsed   string    `json:"model_used"`
	TokensUsed  int64     `json:"tokens_used"`
	GeneratedAt time.Time `json:"generated_at"`
}

// PublishCompletion announces a finished report on the completion channel.
func (c *ReportCache) PublishCompletion(ctx context.Context, report *models.Report) error {
	data, err := json.Marshal(CompletionEvent{
		ReportDate:  report.ReportDate,
		SourceTag:   report.SourceTag,
		ModelUsed:   report.ModelUsed,
		TokensUsed:  report.TokensUsed,
		GeneratedAt: report.GeneratedAt,
	})
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, constants.PubSubChannelReports, data).Err()
}

// SubscribeCompletions delivers completion events to handler until ctx ends.
func (c *ReportCache) SubscribeCompletions(ctx context.Context, handler func(*CompletionEvent)) error {
	pubsub := c.pub.Subscribe(ctx, constants.PubSubChannelReports)
	defer pubsub.Close()

	c.logger.WithField("channel", constants.PubSubChannelReports).Info("subscribed to report completions")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev CompletionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				c.logger.WithError(err).Warn("skipping malformed completion event")
				continue
			}
			handler(&ev)
		}
	}
}

func reportKey(sourceTag string) string {
	return constants.RedisKeyReportPrefix + sourceTag
}
