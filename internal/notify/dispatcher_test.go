package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"opslink/internal/models"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSender records delivered payloads and can simulate failures.
type captureSender struct {
	mu       sync.Mutex
	messages []string
	err      error
	delivery chan struct{}
}

func newCaptureSender() *captureSender {
	return &captureSender{delivery: make(chan struct{}, 16)}
}

func (c *captureSender) Send(content string) error {
	c.mu.Lock()
	c.messages = append(c.messages, content)
	c.mu.Unlock()
	c.delivery <- struct{}{}
	return c.err
}

func (c *captureSender) wait(t *testing.T, n int) []string {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.delivery:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.messages))
	copy(out, c.messages)
	return out
}

func testListing() *models.Listing {
	return &models.Listing{
		Name:   "Gator Swamp",
		Invite: "https://discord.gg/gators",
		Status: models.StatusApproved,
		SubmitterDiscord: models.SubmitterDiscord{
			Username: "gator",
		},
	}
}

func TestDispatcherFormatsSubmission(t *testing.T) {
	system := actor.NewActorSystem()
	sender := newCaptureSender()
	d := NewDispatcher(system, sender)

	d.ListingSubmitted(testListing())

	msgs := sender.wait(t, 1)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "**Gator Swamp**")
	assert.Contains(t, msgs[0], "gator")
	assert.Contains(t, msgs[0], "https://discord.gg/gators")
}

func TestDispatcherFormatsStatusChange(t *testing.T) {
	system := actor.NewActorSystem()
	sender := newCaptureSender()
	d := NewDispatcher(system, sender)

	l := testListing()
	l.Status = models.StatusDenied
	d.StatusChanged(l, "broken invite")

	msgs := sender.wait(t, 1)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "`denied`")
	assert.Contains(t, msgs[0], "broken invite")
}

func TestDispatcherFormatsEditLifecycle(t *testing.T) {
	system := actor.NewActorSystem()
	sender := newCaptureSender()
	d := NewDispatcher(system, sender)

	desc := "A better description"
	l := testListing()
	d.EditRequested(l, &models.EditRequest{Changes: models.EditChanges{Description: &desc}})
	d.EditResolved(l, true, "")
	d.EditResolved(l, false, "too vague")

	msgs := sender.wait(t, 3)
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0], "A better description")
	assert.Contains(t, msgs[1], "approved")
	assert.Contains(t, msgs[2], "denied")
	assert.Contains(t, msgs[2], "too vague")
}

func TestDispatcherSwallowsDeliveryErrors(t *testing.T) {
	system := actor.NewActorSystem()
	sender := newCaptureSender()
	sender.err = errors.New("webhook 404")
	d := NewDispatcher(system, sender)

	// Must not panic or block the caller
	d.ListingDeleted("Gator Swamp", 3)
	d.ListingReported(testListing(), "croc", "spam")

	msgs := sender.wait(t, 2)
	assert.Len(t, msgs, 2)
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() {
		d.ListingSubmitted(testListing())
		d.StatusChanged(testListing(), "")
		d.ListingDeleted("x", 0)
	})
}
