package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	firebaseApp    *firebase.App
	firebaseClient *messaging.Client
	firebaseOnce   sync.Once
	firebaseErr    error
)

// InitFirebase initializes the Firebase Admin SDK and FCM client once.
// Missing credentials disable push notifications instead of failing startup.
func InitFirebase() error {
	firebaseOnce.Do(func() {
		ctx := context.Background()

		credentialsPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
		if credentialsPath == "" {
			credentialsPath = os.Getenv("FCM_CREDENTIALS_PATH")
		}
		if credentialsPath == "" {
			credentialsPath = "./serviceAccountKey.json"
		}

		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			firebaseErr = fmt.Errorf("firebase credentials file not found: %s", credentialsPath)
			log.Printf("⚠️ %v (push notifications disabled)", firebaseErr)
			return
		}

		opt := option.WithCredentialsFile(credentialsPath)
		app, err := firebase.NewApp(ctx, nil, opt)
		if err != nil {
			firebaseErr = fmt.Errorf("firebase app init failed: %w", err)
			log.Printf("❌ %v", firebaseErr)
			return
		}
		firebaseApp = app

		client, err := app.Messaging(ctx)
		if err != nil {
			firebaseErr = fmt.Errorf("fcm client init failed: %w", err)
			log.Printf("❌ %v", firebaseErr)
			return
		}
		firebaseClient = client
		log.Println("✅ Firebase and FCM initialized")
	})
	return firebaseErr
}

// FCMClient returns the messaging client, or nil when FCM is disabled.
func FCMClient() *messaging.Client {
	return firebaseClient
}

// IsFCMEnabled reports whether push notifications can be sent.
func IsFCMEnabled() bool {
	return firebaseClient != nil
}
