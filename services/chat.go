package services

import (
	"context"
	"strings"

	"TenantHub/models"
	"TenantHub/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type ChatService struct {
	Deps
}

func NewChatService(d Deps) *ChatService {
	return &ChatService{Deps: d.withDefaults()}
}

func (c *ChatService) FetchChat(ctx context.Context, tenantID string) (*models.AIChat, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, validationError("FetchChat", "tenant id required")
	}
	var chat models.AIChat
	if err := c.Records.FindOne(ctx, store.AIChatCollection, store.ByTenant(tenantID), &chat); err != nil {
		c.Log.Error("Error from findOne while fetching chat", zap.String("tenantId", tenantID), zap.Error(err))
		return nil, classify("FetchChat", err)
	}
	return &chat, nil
}

// StartSession opens a new session that begins with the welcome message.
func (c *ChatService) StartSession(ctx context.Context, tenantID, title string) (*models.ChatSession, error) {
	chat, err := c.FetchChat(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := c.Now()
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New chat"
	}
	session := models.ChatSession{
		Code:      store.DocumentCode(),
		Title:     title,
		Messages:  []models.Message{{Sender: models.SenderAI, Text: models.WelcomeMessage, Timestamp: now}},
		CreatedAt: now,
	}
	sessions := append(chat.Sessions, session)
	if err := c.Records.Update(ctx, store.AIChatCollection, chat.Code, bson.M{"sessions": sessions, "updatedAt": now}); err != nil {
		c.Log.Error("Error from updateOne while starting session", zap.String("tenantId", tenantID), zap.Error(err))
		return nil, classify("StartSession", err)
	}
	return &session, nil
}

/*
* Sender is either user or ai
* Text must not be blank
* The session must belong to the company
 */
func (c *ChatService) AddMessage(ctx context.Context, tenantID, sessionCode, sender, text string) (*models.Message, error) {
	sender = strings.ToLower(strings.TrimSpace(sender))
	if sender != models.SenderUser && sender != models.SenderAI {
		return nil, validationError("AddMessage", "unknown sender %q", sender)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationError("AddMessage", "message text required")
	}
	chat, err := c.FetchChat(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, s := range chat.Sessions {
		if s.Code == sessionCode {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, notFoundError("AddMessage", "session %q not found", sessionCode)
	}
	now := c.Now()
	msg := models.Message{Sender: sender, Text: text, Timestamp: now}
	chat.Sessions[idx].Messages = append(chat.Sessions[idx].Messages, msg)
	if err := c.Records.Update(ctx, store.AIChatCollection, chat.Code, bson.M{"sessions": chat.Sessions, "updatedAt": now}); err != nil {
		c.Log.Error("Error from updateOne while adding message", zap.String("tenantId", tenantID), zap.Error(err))
		return nil, classify("AddMessage", err)
	}
	return &msg, nil
}
