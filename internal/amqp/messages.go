package amqp

import (
	"encoding/json"
	"time"
)

// Notification is the wire shape of one published report or alert: a subject
// line plus a preformatted body.
type Notification struct {
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationFromJSON decodes a published notification.
func NotificationFromJSON(data []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
