package notification

import (
	"context"
	"log"
	"strconv"
	"strings"

	"firebase.google.com/go/v4/messaging"

	"github.com/miglee/miglee-backend/utils"
)

// PushToUser sends an FCM notification to every device registered for the
// user. Unregistered tokens reported by FCM are pruned. Best-effort: errors
// are logged, never returned to the caller.
func (s *Service) PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string) {
	client := utils.FCMClient()
	if client == nil {
		return
	}

	tokens, err := s.Repo.ListDeviceTokens(userID)
	if err != nil {
		log.Printf("⚠️ FCM token lookup failed for user %d: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	for _, t := range tokens {
		msg := &messaging.Message{
			Token: t.Token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		}

		if _, err := client.Send(ctx, msg); err != nil {
			if messaging.IsUnregistered(err) || strings.Contains(err.Error(), "registration-token-not-registered") {
				_ = s.Repo.DeleteStaleToken(t.Token)
				continue
			}
			log.Printf("⚠️ FCM send failed for user %d: %v", userID, err)
		}
	}
}

func pushData(evt utils.DomainEvent) map[string]string {
	data := map[string]string{"action": evt.Action}
	if evt.IntentID != 0 {
		data["intent_id"] = strconv.FormatUint(uint64(evt.IntentID), 10)
	}
	return data
}
