// Package events decodes inbound storage-change notifications: push-style
// envelopes wrapping one object event each, as the queue delivers them.
package events

import (
	"encoding/json"
	"fmt"
)

// eventTypeObjectFinalize is the create-type storage event; everything else
// (deletes, metadata updates, archive transitions) is skipped by ingestion.
const eventTypeObjectFinalize = "OBJECT_FINALIZE"

// Envelope is the push wrapper around one storage notification.
type Envelope struct {
	Message      Message `json:"message"`
	Subscription string  `json:"subscription"`
}

// Message carries the notification attributes plus the raw object resource
// (base64, unused here; the attributes identify the object).
type Message struct {
	Attributes Attributes `json:"attributes"`
	Data       string     `json:"data"`
	MessageID  string     `json:"messageId"`
}

// Attributes identify the storage event and the object it concerns.
type Attributes struct {
	EventType     string `json:"eventType"`
	BucketID      string `json:"bucketId"`
	ObjectID      string `json:"objectId"`
	PayloadFormat string `json:"payloadFormat"`
}

// Decode parses a raw queue message body into an envelope.
func Decode(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode storage notification: %w", err)
	}
	return &env, nil
}

// ObjectCreated returns the bucket and object of a create-type event, or
// ok=false when the notification is anything else.
func (e *Envelope) ObjectCreated() (bucket, object string, ok bool) {
	attrs := e.Message.Attributes
	if attrs.EventType != eventTypeObjectFinalize {
		return "", "", false
	}
	if attrs.BucketID == "" || attrs.ObjectID == "" {
		return "", "", false
	}
	return attrs.BucketID, attrs.ObjectID, true
}
