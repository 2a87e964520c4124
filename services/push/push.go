// Package push sends offline notifications through Firebase Cloud Messaging.
package push

import (
	"context"
	"fmt"

	"joservice/models"
	"joservice/utils"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Pusher delivers a notification to device tokens. It returns the tokens the
// push service reported as no longer valid. Transport errors carry utils.CodeDelivery.
type Pusher interface {
	Push(ctx context.Context, tokens []string, n *models.Notification) (stale []string, err error)
}

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMPusher implements Pusher with the Firebase Admin SDK.
type FCMPusher struct {
	client multicastSender
	logger *zap.Logger
}

// NewFCMPusher initializes the Firebase app from a service account file.
func NewFCMPusher(ctx context.Context, credentialsFile string, logger *zap.Logger) (*FCMPusher, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("firebase: credentials file not configured")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: error getting Messaging client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FCMPusher{client: client, logger: logger}, nil
}

func (p *FCMPusher) Push(ctx context.Context, tokens []string, n *models.Notification) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Data: map[string]string{
			"notificationId": n.ID,
			"type":           n.Type,
			"bookingId":      n.RelatedBookingID,
			"role":           n.RecipientRole.String(),
		},
	}

	resp, err := p.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, utils.WrapError(err, utils.CodeDelivery, "failed to send FCM message")
	}

	var stale []string
	for i, r := range resp.Responses {
		if r.Success || i >= len(tokens) {
			continue
		}
		if messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
			stale = append(stale, tokens[i])
			continue
		}
		p.logger.Warn("fcm push failed for token", zap.String("notificationId", n.ID), zap.Error(r.Error))
	}
	p.logger.Debug("fcm push sent",
		zap.String("notificationId", n.ID),
		zap.Int("success", resp.SuccessCount),
		zap.Int("failure", resp.FailureCount))
	return stale, nil
}
