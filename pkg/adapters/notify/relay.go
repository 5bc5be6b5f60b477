package notify

import (
	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/domain"
	"github.com/wadjakorntonsri/contextkeeper/pkg/ports"
)

// Relay is the process-wide broadcast channel. It logs every signal it
// receives and forwards it one hop to the connected panels.
type Relay struct {
	broadcaster *Broadcaster
}

func NewRelay(b *Broadcaster) *Relay {
	return &Relay{broadcaster: b}
}

// Publish is fire-and-forget: with no listeners the event is dropped.
func (r *Relay) Publish(kind domain.EventKind) {
	if kind == domain.EventSnippetSaved {
		log.Info().Str("type", string(kind)).Msg("Snippet saved notification received")
	}
	if r.broadcaster == nil {
		return
	}
	r.broadcaster.Broadcast(domain.Event{Type: kind})
}

var _ ports.Notifier = (*Relay)(nil)
