// internal/notify/dispatcher.go
package notify

import (
	"fmt"
	"log/slog"

	"opslink/internal/models"

	"github.com/asynkron/protoactor-go/actor"
)

// Sender is anything that can push a plain message to the moderation
// channel. Satisfied by *DiscordWebhook.
type Sender interface {
	Send(content string) error
}

// Messages handled by the notifier actor. One type per moderation
// state transition.

type ListingSubmittedMsg struct {
	Name      string
	Invite    string
	Submitter string
}

type StatusChangedMsg struct {
	Name   string
	Status string
	Reason string
}

type EditRequestedMsg struct {
	Name      string
	Requester string
	Changes   models.EditChanges
}

type EditResolvedMsg struct {
	Name     string
	Approved bool
	Reason   string
}

type ListingReportedMsg struct {
	Name     string
	Reporter string
	Reason   string
}

type ListingDeletedMsg struct {
	Name            string
	CommentsRemoved int64
}

// NotifierActor serializes outbound alerts and keeps delivery failures
// away from the request path. Every error is logged and swallowed: a
// failed alert never fails the operation that triggered it.
type NotifierActor struct {
	sender Sender
}

func NewNotifierActor(sender Sender) *NotifierActor {
	return &NotifierActor{sender: sender}
}

func (n *NotifierActor) Receive(context actor.Context) {
	var content string

	switch msg := context.Message().(type) {
	case *ListingSubmittedMsg:
		content = fmt.Sprintf("New server submission: **%s** by %s\nInvite: %s",
			msg.Name, msg.Submitter, msg.Invite)

	case *StatusChangedMsg:
		content = fmt.Sprintf("Server **%s** status changed to `%s`", msg.Name, msg.Status)
		if msg.Reason != "" {
			content += "\nReason: " + msg.Reason
		}

	case *EditRequestedMsg:
		content = fmt.Sprintf("Edit requested for **%s** by %s\n%s",
			msg.Name, msg.Requester, describeChanges(msg.Changes))

	case *EditResolvedMsg:
		if msg.Approved {
			content = fmt.Sprintf("Edit request for **%s** approved", msg.Name)
		} else {
			content = fmt.Sprintf("Edit request for **%s** denied", msg.Name)
			if msg.Reason != "" {
				content += "\nReason: " + msg.Reason
			}
		}

	case *ListingReportedMsg:
		content = fmt.Sprintf("Server **%s** reported by %s\nReason: %s",
			msg.Name, msg.Reporter, msg.Reason)

	case *ListingDeletedMsg:
		content = fmt.Sprintf("Server **%s** deleted (%d comments removed)",
			msg.Name, msg.CommentsRemoved)

	default:
		return
	}

	if n.sender == nil {
		return
	}
	if err := n.sender.Send(content); err != nil {
		slog.Error("discord webhook delivery failed", "error", err)
	}
}

// Dispatcher is the fire-and-forget front for the notifier actor.
// Calls return immediately; delivery happens on the actor's mailbox.
type Dispatcher struct {
	ctx *actor.RootContext
	pid *actor.PID
}

// NewDispatcher spawns the notifier actor on the given system.
func NewDispatcher(system *actor.ActorSystem, sender Sender) *Dispatcher {
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewNotifierActor(sender)
	})
	pid := system.Root.Spawn(props)
	return &Dispatcher{ctx: system.Root, pid: pid}
}

func (d *Dispatcher) ListingSubmitted(l *models.Listing) {
	d.send(&ListingSubmittedMsg{
		Name:      l.Name,
		Invite:    l.Invite,
		Submitter: l.SubmitterDiscord.Username,
	})
}

func (d *Dispatcher) StatusChanged(l *models.Listing, reason string) {
	d.send(&StatusChangedMsg{Name: l.Name, Status: l.Status, Reason: reason})
}

func (d *Dispatcher) EditRequested(l *models.Listing, er *models.EditRequest) {
	requester := l.SubmitterDiscord.Username
	d.send(&EditRequestedMsg{Name: l.Name, Requester: requester, Changes: er.Changes})
}

func (d *Dispatcher) EditResolved(l *models.Listing, approved bool, reason string) {
	d.send(&EditResolvedMsg{Name: l.Name, Approved: approved, Reason: reason})
}

func (d *Dispatcher) ListingReported(l *models.Listing, reporter, reason string) {
	d.send(&ListingReportedMsg{Name: l.Name, Reporter: reporter, Reason: reason})
}

func (d *Dispatcher) ListingDeleted(name string, commentsRemoved int64) {
	d.send(&ListingDeletedMsg{Name: name, CommentsRemoved: commentsRemoved})
}

func (d *Dispatcher) send(msg interface{}) {
	if d == nil || d.pid == nil {
		return
	}
	d.ctx.Send(d.pid, msg)
}

// describeChanges renders the proposed diff for the moderation channel.
func describeChanges(c models.EditChanges) string {
	out := ""
	add := func(field, value string) {
		out += fmt.Sprintf("- %s: %s\n", field, value)
	}
	if c.Description != nil {
		add("description", *c.Description)
	}
	if c.Logo != nil {
		add("logo", *c.Logo)
	}
	if c.Website != nil {
		add("website", *c.Website)
	}
	if c.Language != nil {
		add("language", *c.Language)
	}
	if c.Members != nil {
		add("members", fmt.Sprintf("%d", *c.Members))
	}
	if c.Type != nil {
		add("type", *c.Type)
	}
	if c.NSFW != nil {
		add("nsfw", fmt.Sprintf("%t", *c.NSFW))
	}
	if len(c.Tags) > 0 {
		add("tags", fmt.Sprintf("%v", c.Tags))
	}
	if out == "" {
		return "(no changes)"
	}
	return out
}
