package wire

import (
	"github.com/google/uuid"

	"github.com/aretw0/comfyforge/pkg/domain"
)

// Envelope is the body an execution engine's prompt endpoint accepts.
type Envelope struct {
	ClientID string       `json:"client_id"`
	Prompt   domain.Graph `json:"prompt"`
}

// NewEnvelope wraps a graph with a fresh client id.
func NewEnvelope(g domain.Graph) Envelope {
	return Envelope{ClientID: uuid.New().String(), Prompt: g}
}

// NewEnvelopeFor reuses an existing client id, so that progress events of several
// submissions reach the same listener.
func NewEnvelopeFor(clientID string, g domain.Graph) Envelope {
	if clientID == "" {
		return NewEnvelope(g)
	}
	return Envelope{ClientID: clientID, Prompt: g}
}
