package ports

type EventBus interface {
	Publish(topic string, payload []byte)
	Subscribe() (ch <-chan Event, cancel func())
}

type Event struct {
	Topic   string
	Payload []byte
}

// Topics publiés sur le bus.
const (
	TopicActivationChanged = "activation.changed"
	TopicBadgeUpdated      = "badge.updated"
	TopicIconUpdated       = "icon.updated"
	TopicCacheUpdated      = "cache.updated"
	TopicCacheDeleted      = "cache.deleted"
	TopicCacheCleared      = "cache.cleared"
)
