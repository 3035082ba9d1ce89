package memorybus

import (
	"encoding/json"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

// BadgeEvent est le payload de ports.TopicBadgeUpdated.
type BadgeEvent struct {
	TabID int               `json:"tabId"`
	State domain.BadgeState `json:"state"`
	Text  string            `json:"text"`
	Color string            `json:"color,omitempty"`
}

// IconEvent est le payload de ports.TopicIconUpdated.
type IconEvent struct {
	State domain.IconState `json:"state"`
}

// Notifier implémente ports.BadgeNotifier en publiant sur le bus;
// le compagnon navigateur consomme ces événements via SSE.
type Notifier struct {
	bus ports.EventBus
}

func NewNotifier(bus ports.EventBus) *Notifier {
	return &Notifier{bus: bus}
}

func (n *Notifier) SetBadge(tabID int, state domain.BadgeState) {
	b, _ := json.Marshal(BadgeEvent{TabID: tabID, State: state, Text: state.Text(), Color: state.Color()})
	n.bus.Publish(ports.TopicBadgeUpdated, b)
}

func (n *Notifier) SetIcon(state domain.IconState) {
	b, _ := json.Marshal(IconEvent{State: state})
	n.bus.Publish(ports.TopicIconUpdated, b)
}
