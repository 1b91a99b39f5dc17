package mq

import (
	"context"
	"encoding/json"
	"log"

	"clubhive/rdx"
)

const dispatchChannel = "notification-dispatch"

// Dispatch is the message handed to the external push-transport collaborator
// after a notification has been committed to recipient inboxes. Delivery
// mechanics are outside this service.
type Dispatch struct {
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	EventID    string   `json:"eventid,omitempty"`
	Recipients []string `json:"recipients,omitempty"`
}

// Emit publishes a dispatch message to Redis. Failures are logged, never
// propagated: transport is a secondary effect of an already-committed write.
func Emit(ctx context.Context, eventName string, content Dispatch) {
	data, err := json.Marshal(content)
	if err != nil {
		log.Printf("[Emit] Failed to marshal %s: %v", eventName, err)
		return
	}

	if err := rdx.Conn.Publish(ctx, dispatchChannel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish %s to Redis: %v", eventName, err)
	}
}

// StartDispatchWorker drains the dispatch channel. The real transport
// subscribes to the same channel out of process; this worker only logs so
// local runs show the fan-out traffic.
func StartDispatchWorker() {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, dispatchChannel)
	ch := sub.Channel()

	log.Println("[DispatchWorker] Listening for notification dispatches...")

	for msg := range ch {
		var d Dispatch
		if err := json.Unmarshal([]byte(msg.Payload), &d); err != nil {
			log.Printf("[DispatchWorker] Failed to parse dispatch: %v", err)
			continue
		}
		log.Printf("[DispatchWorker] type=%s event=%s recipients=%d", d.Type, d.EventID, len(d.Recipients))
	}
}
