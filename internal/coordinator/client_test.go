package coordinator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/models"
)

func TestSendNeverBlocksOnSaturatedClient(t *testing.T) {
	c := NewClient(uuid.New(), "alice", models.RoleNormal, nil)

	// Nothing drains the queue here, so pushing past its capacity must
	// drop the overflow instead of stalling the caller.
	for i := 0; i < 40; i++ {
		c.Send(Message{Event: "connectedUsers"})
	}
	assert.Len(t, drain(c), 32)

	c.Close(CloseSuperseded, "superseded by a newer connection")
	c.Send(Message{Event: "connectedUsers"})
	assert.Empty(t, drain(c), "a closed client accepts nothing")

	code, reason := c.CloseStatus()
	assert.Equal(t, CloseSuperseded, code)
	assert.Equal(t, "superseded by a newer connection", reason)
}
