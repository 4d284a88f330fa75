package scheduler

import (
	"context"
	"time"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues scheduler tasks from the API process, for example an
// operator-triggered sweep that should not wait for the next tick.
type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.SchedulerConfig) *Client {
	return &Client{client: asynq.NewClient(redisClientOpt(cfg))}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueSweep queues an immediate pause tolerance sweep.
func (c *Client) EnqueueSweep(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	task, err := NewPauseToleranceSweepTask(PauseToleranceSweepPayload{TriggeredAt: time.Now()})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	return err
}

func redisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	if url := cfg.GetRedisURL(); url != "" {
		if opt, err := redis.ParseURL(url); err == nil {
			return asynq.RedisClientOpt{
				Addr:      opt.Addr,
				Password:  opt.Password,
				DB:        opt.DB,
				TLSConfig: opt.TLSConfig,
			}
		}
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.GetRedisPassword(),
		DB:       cfg.GetRedisDB(),
	}
}
