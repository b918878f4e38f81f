package orders

import (
	"context"
	"errors"
	"sync"

	"github.com/joao-fontenele/meyshop/internal/domain"
	"github.com/joao-fontenele/meyshop/internal/testutil"
)

func newMemoryRepo() *testutil.OrderStore {
	return testutil.NewOrderStore()
}

// recordingPublisher captures published events and can be told to fail.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	fail   bool
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, event domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []domain.OrderEventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.OrderEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
