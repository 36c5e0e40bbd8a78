package lark

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// Config holds Lark bot configuration
type Config struct {
	AppID     string
	AppSecret string
	ChatID    string // group chat that receives payroll notifications
}

// messageCreator is the slice of the IM API the notifier needs
type messageCreator interface {
	Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
}

// Notifier posts payroll run notifications to a Lark group chat.
// It implements port.Notifier.
type Notifier struct {
	messages messageCreator
	chatID   string
	logger   *zap.Logger
}

// NewNotifier creates a Lark notifier backed by the SDK client
func NewNotifier(cfg Config, logger *zap.Logger) *Notifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return newNotifier(client.Im.Message, cfg.ChatID, logger)
}

func newNotifier(messages messageCreator, chatID string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		messages: messages,
		chatID:   chatID,
		logger:   logger,
	}
}

// Notify sends text as a plain message to the configured chat
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(n.chatID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.messages.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send message",
			zap.String("chat_id", n.chatID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		n.logger.Error("API returned failure",
			zap.String("chat_id", n.chatID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	n.logger.Debug("Message sent", zap.String("message_id", messageID))
	return nil
}
