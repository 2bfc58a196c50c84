// Package worker consumes queued analysis requests from Kafka and runs them
// through the analysis service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/logger"
)

// Processor is implemented by service.Service.
type Processor interface {
	Process(ctx context.Context, req report.Request) (*report.DebateReport, error)
}

// HandleMessage returns a Kafka handler for analysis request events. Errors
// caused by the request itself are permanent so the consumer does not retry
// them; timeouts and unavailable dependencies are retried.
func HandleMessage(p Processor) kafka.MessageHandler {
	log := slog.Default().With("component", "analysis-worker")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[analysis.RequestEvent](value)
		if err != nil {
			log.Error("failed to decode analysis request", "error", err, "key", string(key))
			return err
		}
		if event.Request.ID == "" {
			return fmt.Errorf("%w: analysis request without id", kafka.ErrPermanent)
		}
		ctx = logger.WithAnalysisID(ctx, event.Request.ID)

		r, err := p.Process(ctx, event.Request)
		if err != nil {
			if permanent(err) {
				return fmt.Errorf("%w: analysis %s: %v", kafka.ErrPermanent, event.Request.ID, err)
			}
			return fmt.Errorf("analysis %s: %w", event.Request.ID, err)
		}
		logger.FromContext(ctx).Info("queued analysis complete",
			"report_id", r.ID,
			"queued_for", r.CreatedAt.Sub(event.SubmittedAt),
		)
		return nil
	}
}

func permanent(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidInput) ||
		errors.Is(err, apperrors.ErrInvalidArgument) ||
		errors.Is(err, apperrors.ErrSpeakerNotFound) ||
		errors.Is(err, apperrors.ErrInsufficientData)
}
