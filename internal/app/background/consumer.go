package background

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/kafka"
	"github.com/smmpanel/campaign-distribution-service/internal/usecase/assignment"
	"github.com/smmpanel/campaign-distribution-service/internal/usecase/recovery"
)

// StartOrderConsumer feeds paid orders from the intake topic into the
// orchestrator. Failed attempts are handed to the recovery engine, which
// owns the retry-or-dead-letter decision; undecodable payloads are dropped
// with a log line since replaying them can never succeed.
func StartOrderConsumer(
	ctx context.Context,
	subscriber domain.SubscriberPort,
	topic, groupID string,
	usecase assignment.Usecase,
	engine recovery.Engine,
) error {
	messages, err := subscriber.Subscribe(ctx, topic, groupID)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					if ctx.Err() == nil {
						slog.Error("order intake stream closed", "topic", topic)
					}
					return
				}
				handleOrderReady(ctx, msg, usecase, engine)
			}
		}
	}()
	return nil
}

func handleOrderReady(ctx context.Context, msg domain.Message, usecase assignment.Usecase, engine recovery.Engine) {
	var event kafka.OrderReadyEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		slog.Error("dropping undecodable order event",
			"key", string(msg.Key), "error", err.Error())
		return
	}
	if event.OrderID == "" {
		slog.Error("dropping order event without order id", "key", string(msg.Key))
		return
	}

	slog.Info("order ready for distribution", "order_id", event.OrderID, "service_id", event.ServiceID)

	input := &assignment.Input{
		OrderID:      event.OrderID,
		ServiceID:    event.ServiceID,
		TargetViews:  event.TargetViews,
		GeoTargeting: event.GeoTargeting,
		ClipCreated:  event.ClipCreated,
		TargetURL:    event.TargetURL,
	}

	if err := usecase.Assign(ctx, input); err != nil {
		if _, recErr := engine.RecordFailure(ctx, event.OrderID, err); recErr != nil {
			slog.Error("failed to record assignment failure",
				"order_id", event.OrderID, "error", recErr.Error())
		}
	}
}
