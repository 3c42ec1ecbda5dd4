package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingHandler struct {
	NopHandler
	name  string
	calls *[]string
	err   error
}

func (h recordingHandler) OnSwapAccepted(context.Context, *gorm.DB, SwapAccepted) error {
	*h.calls = append(*h.calls, h.name)
	return h.err
}

func TestBus_DispatchOrder(t *testing.T) {
	var calls []string
	bus := NewBus(recordingHandler{name: "coordinator", calls: &calls})
	bus.Subscribe(recordingHandler{name: "audit", calls: &calls})

	require.NoError(t, bus.PublishAccepted(context.Background(), nil, SwapAccepted{}))
	assert.Equal(t, []string{"coordinator", "audit"}, calls)
}

func TestBus_FirstErrorStops(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	bus := NewBus(
		recordingHandler{name: "first", calls: &calls, err: boom},
		recordingHandler{name: "second", calls: &calls},
	)

	err := bus.PublishAccepted(context.Background(), nil, SwapAccepted{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first"}, calls)

	// Остальные события NopHandler пропускает.
	require.NoError(t, bus.PublishRejected(context.Background(), nil, SwapRejected{}))
	require.NoError(t, bus.PublishRequested(context.Background(), nil, SwapRequested{}))
}
