package ports

type EventBus interface {
	Publish(topic string, payload []byte)
	Subscribe() (ch <-chan Event, cancel func())
}

// Event is a published notification. ID is unique per bus and used as the
// SSE event id.
type Event struct {
	ID      string
	Topic   string
	Payload []byte
}

// Topics published by the tracking session.
const (
	TopicShowAdded      = "show.added"
	TopicShowRemoved    = "show.removed"
	TopicCheckCompleted = "check.completed"
	TopicTimelineMarked = "timeline.marked"
)
