package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/meridian-id/meridian-id/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// UserEventsJob persists account lifecycle events and triggers follow-up
// work such as the welcome email.
type UserEventsJob struct {
	Pool    *pgxpool.Pool
	Client  *Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewUserEventsJob wires dependencies for the account event handlers.
func NewUserEventsJob(pool *pgxpool.Pool, client *Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *UserEventsJob {
	return &UserEventsJob{Pool: pool, Client: client, Logger: logger, Metrics: metrics}
}

// HandleRegistered processes TaskTypeUserRegistered tasks.
func (j *UserEventsJob) HandleRegistered(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("user events: handler not configured")
	}
	var payload UserRegisteredPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeUserRegistered)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("user_id", payload.UserID))

	if err := j.recordEvent(ctx, TaskTypeUserRegistered, payload.UserID, payload.Email, t.Payload()); err != nil {
		resultErr = err
		logger.Error("record registration event", slog.Any("error", err))
		return resultErr
	}

	if j.Client != nil {
		greeting := payload.FirstName
		if greeting == "" {
			greeting = payload.Email
		}
		_, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      payload.Email,
			Subject: "Welcome to Meridian",
			Body:    fmt.Sprintf("Hi %s, your account is ready.", greeting),
		})
		if err != nil {
			logger.Warn("enqueue welcome email", slog.Any("error", err))
		}
	}

	logger.Info("registration event processed")
	return resultErr
}

// HandleLoggedIn processes TaskTypeUserLoggedIn tasks.
func (j *UserEventsJob) HandleLoggedIn(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("user events: handler not configured")
	}
	var payload UserLoggedInPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeUserLoggedIn)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if err := j.recordEvent(ctx, TaskTypeUserLoggedIn, payload.UserID, payload.Email, t.Payload()); err != nil {
		resultErr = err
		j.logger().Error("record login event", slog.String("user_id", payload.UserID), slog.Any("error", err))
	}
	return resultErr
}

func (j *UserEventsJob) recordEvent(ctx context.Context, eventType, userID, email string, payload []byte) error {
	if j.Pool == nil {
		return nil
	}
	_, err := j.Pool.Exec(ctx, `
		INSERT INTO account_events (event_type, user_id, email, payload)
		VALUES ($1, $2, $3, $4)
	`, eventType, userID, email, payload)
	return err
}

func (j *UserEventsJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *UserEventsJob) logger() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
