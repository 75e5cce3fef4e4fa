package chat

import "time"

type createSessionRequest struct {
	Name        string   `json:"name"`
	DocumentIDs []string `json:"documentIds"`
}

type askRequest struct {
	Question string `json:"question"`
}

type sessionResponse struct {
	SessionID     string    `json:"sessionId"`
	Name          string    `json:"name"`
	DocumentIDs   []string  `json:"documentIds"`
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	MessageCount  int       `json:"messageCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toSessionResponse(session Session) sessionResponse {
	documentIDs := session.DocumentIDs
	if documentIDs == nil {
		documentIDs = []string{}
	}
	return sessionResponse{
		SessionID:     session.ID,
		Name:          session.Name,
		DocumentIDs:   documentIDs,
		LastMessage:   session.LastMessage,
		LastMessageAt: session.LastMessageAt,
		MessageCount:  session.MessageCount,
		CreatedAt:     session.CreatedAt,
	}
}

type messageResponse struct {
	MessageID      string     `json:"messageId"`
	SessionID      string     `json:"sessionId"`
	Role           string     `json:"role"`
	Content        string     `json:"content"`
	Sources        []Citation `json:"sources"`
	ResponseTimeMs *int64     `json:"responseTimeMs,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func toMessageResponse(msg Message) messageResponse {
	sources := msg.Sources
	if sources == nil {
		sources = []Citation{}
	}
	return messageResponse{
		MessageID:      msg.ID,
		SessionID:      msg.SessionID,
		Role:           msg.Role,
		Content:        msg.Content,
		Sources:        sources,
		ResponseTimeMs: msg.ResponseTimeMs,
		CreatedAt:      msg.CreatedAt,
	}
}

type askResponse struct {
	UserMessage      messageResponse `json:"userMessage"`
	AssistantMessage messageResponse `json:"assistantMessage"`
}
