package gateway

import (
	"time"

	"github.com/mcdev12/livefeed/go/internal/models"
)

// MessageType discriminates the messages pushed to clients
type MessageType string

const (
	MessageTypeOnlineUsers  MessageType = "onlineUsers"
	MessageTypeEarningsData MessageType = "earningsData"
)

// EarningsTitle is the fixed chart caption sent with every earnings message
const EarningsTitle = "Today's earnings chart"

// TimestampLayout is ISO-8601 in UTC with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// OnlineUsersMessage carries the online-users snapshot
type OnlineUsersMessage struct {
	Type      MessageType `json:"type"`
	Count     int         `json:"count"`
	Timestamp string      `json:"timestamp"`
}

// EarningsDataMessage carries the ranked earnings chart snapshot
type EarningsDataMessage struct {
	Type      MessageType          `json:"type"`
	Data      models.EarningsBoard `json:"data"`
	Title     string               `json:"title"`
	Timestamp string               `json:"timestamp"`
}

// FormatTimestamp renders t the way every outbound message does
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NewOnlineUsersMessage builds the online-users message stamped at now
func NewOnlineUsersMessage(count int, now time.Time) OnlineUsersMessage {
	return OnlineUsersMessage{
		Type:      MessageTypeOnlineUsers,
		Count:     count,
		Timestamp: FormatTimestamp(now),
	}
}

// NewEarningsDataMessage builds the earnings message stamped at now
func NewEarningsDataMessage(board models.EarningsBoard, now time.Time) EarningsDataMessage {
	return EarningsDataMessage{
		Type:      MessageTypeEarningsData,
		Data:      board.Clone(),
		Title:     EarningsTitle,
		Timestamp: FormatTimestamp(now),
	}
}
