package service

import (
	"context"
	"fmt"

	"eventstaff-backend/internal/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Messenger is the subset of the FCM client used here.
type Messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type pushService struct {
	client Messenger
}

// NewFirebasePushService connects to Firebase Cloud Messaging with a service
// account file.
func NewFirebasePushService(ctx context.Context, projectID, credentialsFile string) (PushService, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	return NewPushServiceWithClient(client), nil
}

func NewPushServiceWithClient(client Messenger) PushService {
	return &pushService{client: client}
}

func (s *pushService) Publish(ctx context.Context, topic, title, body string, data map[string]string) error {
	logger.ExternalServiceCall("fcm", "send", "topic", topic)

	msg := &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	id, err := s.client.Send(ctx, msg)
	if err != nil {
		err = fmt.Errorf("failed to publish push notification: %w", err)
	}

	logger.ExternalServiceResult("fcm", "send", err, "topic", topic, "message_id", id)
	return err
}
