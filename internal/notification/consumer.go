package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/miglee/miglee-backend/utils"
)

// StartKafkaConsumer runs the notification fan-out loop until ctx is
// canceled. When Kafka is not configured it returns immediately and the
// pipeline stays dark.
func StartKafkaConsumer(ctx context.Context, svc *Service) {
	reader := utils.NewKafkaReader()
	if reader == nil {
		log.Println("⚠️ Kafka reader unavailable, notification consumer not started")
		return
	}

	go func() {
		defer reader.Close()
		log.Println("✅ Notification consumer started")

		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("⚠️ Kafka read failed: %v", err)
				continue
			}

			var evt utils.DomainEvent
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				log.Printf("⚠️ dropping malformed event (offset=%d): %v", msg.Offset, err)
				continue
			}

			svc.HandleEvent(ctx, evt)
		}
	}()
}
