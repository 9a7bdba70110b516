package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var got []LoanEventPayload
	bus.Subscribe(EventLoanApproved, func(ev *Event) error {
		var payload LoanEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return err
		}
		got = append(got, payload)
		return nil
	})

	payload := LoanEventPayload{
		LoanID:      "l1",
		UserID:      "u1",
		Status:      "active",
		ResourceIDs: []string{"r1", "r2"},
		When:        time.Now().UTC(),
	}
	require.NoError(t, bus.PublishJSON(EventLoanApproved, payload))

	require.Len(t, got, 1)
	assert.Equal(t, "l1", got[0].LoanID)
	assert.Equal(t, []string{"r1", "r2"}, got[0].ResourceIDs)

	t.Run("other event types are not delivered", func(t *testing.T) {
		require.NoError(t, bus.PublishJSON(EventLoanRejected, payload))
		assert.Len(t, got, 1)
	})

	t.Run("nil bus is a no-op", func(t *testing.T) {
		var nilBus *EventBus
		assert.NoError(t, nilBus.PublishJSON(EventLoanCreated, payload))
	})
}
