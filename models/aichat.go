package models

import "time"

const (
	SenderUser = "user"
	SenderAI   = "ai"
)

const WelcomeMessage = "Welcome! I'm your assistant. Ask me anything about your company workspace."

// AIChat aggregates every chat session of one company.
type AIChat struct {
	Code      string        `json:"code" bson:"code"`
	TenantId  string        `json:"tenantId" bson:"tenantId"`
	Sessions  []ChatSession `json:"sessions" bson:"sessions"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updatedAt"`
}

type ChatSession struct {
	Code      string    `json:"code" bson:"code"`
	Title     string    `json:"title" bson:"title"`
	Messages  []Message `json:"messages" bson:"messages"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Message struct {
	Sender    string    `json:"sender" bson:"sender"`
	Text      string    `json:"text" bson:"text"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
