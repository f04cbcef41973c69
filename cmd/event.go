package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/schoolpay/payments/internal/core/events"
	"github.com/schoolpay/payments/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus utilities",
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a sample event to the in-process bus",
	Long: `Publishes a sample event and echoes it through a debug subscriber.
Known types (order.created, payment.completed, payment.failed) use the real
event payloads; anything else goes out as a bare event.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishSampleEvent(args[0])
	},
}

var eventData string

func sampleEvent(eventType string) events.Event {
	switch eventType {
	case events.EventTypeOrderCreated:
		return events.NewOrderCreatedEvent(1, "ORD_SAMPLE_00000001", "SCH_DEMO_001", 150000, "PhonePe")
	case events.EventTypePaymentCompleted:
		return events.NewPaymentCompletedEvent(1, "ORD_SAMPLE_00000001", 150000, "upi", "UTR000000000001")
	case events.EventTypePaymentFailed:
		return events.NewPaymentFailedEvent(1, "ORD_SAMPLE_00000001", "failed", "insufficient funds")
	default:
		return events.BaseEvent{
			ID:        fmt.Sprintf("sample-%d", time.Now().Unix()),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      map[string]interface{}{"message": eventData},
		}
	}
}

func publishSampleEvent(eventType string) error {
	lg := logger.L()
	eventBus := events.NewEventBus(lg)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("debug subscriber received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	ev := sampleEvent(eventType)
	lg.Info("publishing sample event", "event_type", eventType, "event_id", ev.EventID())

	// PublishSync so the subscriber runs before the process exits.
	if err := eventBus.PublishSync(context.Background(), ev); err != nil {
		return err
	}

	lg.Info("sample event published")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "sample message", "payload message for unknown event types")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
