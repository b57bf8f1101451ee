// Package events publishes domain events to NATS JetStream so the
// surrounding ERP can react to attendance activity without polling.
// Publishing is best-effort: a failed publish is logged and never blocks
// webhook processing.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// Subjects relative to the configured prefix.
const (
	SubjectMessageReceived     = "messages.received"
	SubjectConversationUpdated = "conversations.updated"
	SubjectInstanceUpdated     = "instances.updated"
)

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
	Close()
}

// JetStreamPublisher publishes onto a JetStream stream.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	prefix string
}

var _ Publisher = (*JetStreamPublisher)(nil)

// NewJetStreamPublisher connects to NATS and ensures the stream exists.
func NewJetStreamPublisher(url, stream, prefix string) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, s *nats.Subscription, err error) {
			logger.Log.Error("NATS error", zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to NATS: %w", apperrors.ErrNATS, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("%w: failed to create JetStream context: %w", apperrors.ErrNATS, err)
	}

	streamConfig := &nats.StreamConfig{
		Name:      stream,
		Subjects:  []string{prefix + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}

	if _, err := js.StreamInfo(stream); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			nc.Close()
			return nil, fmt.Errorf("%w: failed to get stream info for '%s': %w", apperrors.ErrNATS, stream, err)
		}
		if _, err := js.AddStream(streamConfig); err != nil {
			nc.Close()
			return nil, fmt.Errorf("%w: failed to add stream '%s': %w", apperrors.ErrNATS, stream, err)
		}
		logger.Log.Info("Created stream", zap.String("name", stream), zap.Any("subjects", streamConfig.Subjects))
	}

	return &JetStreamPublisher{nc: nc, js: js, prefix: prefix}, nil
}

// Publish marshals the payload and publishes it under the prefixed subject.
func (p *JetStreamPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	data := utils.MustMarshalJSON(payload)
	full := p.prefix + "." + subject

	if _, err := p.js.Publish(full, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("%w: failed to publish to '%s': %w", apperrors.ErrNATS, full, err)
	}

	logger.FromContext(ctx).Debug("Published event",
		zap.String("subject", full),
		zap.String("size", utils.ByteCountSI(len(data))),
	)
	return nil
}

// Close drains the connection.
func (p *JetStreamPublisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			logger.Log.Warn("Failed to drain NATS connection", zap.Error(err))
		}
	}
}

// NoopPublisher discards events, used when NATS is not configured.
type NoopPublisher struct{}

var _ Publisher = (*NoopPublisher)(nil)

func (NoopPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	return nil
}

func (NoopPublisher) Close() {}
