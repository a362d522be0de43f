package bus

import (
	"testing"

	"github.com/akinalp/bekci/models"
)

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	b := NewMuteBus()

	var order []int
	b.OnMuted(func(e models.MuteEvent) { order = append(order, 1) })
	b.OnMuted(func(e models.MuteEvent) { order = append(order, 2) })
	b.OnMuted(func(e models.MuteEvent) { order = append(order, 3) })

	b.PublishMuted(models.MuteEvent{GuildID: "g1", UserID: "u1", Scope: models.MuteScopeAll})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("expected delivery order [1 2 3], got %v", order)
	}
}

func TestMutedAndUnmutedChannelsAreSeparate(t *testing.T) {
	b := NewMuteBus()

	var muted, unmuted int
	b.OnMuted(func(e models.MuteEvent) { muted++ })
	b.OnUnmuted(func(e models.MuteEvent) { unmuted++ })

	b.PublishMuted(models.MuteEvent{GuildID: "g1", UserID: "u1"})
	b.PublishUnmuted(models.MuteEvent{GuildID: "g1", UserID: "u1"})
	b.PublishUnmuted(models.MuteEvent{GuildID: "g1", UserID: "u2"})

	if muted != 1 {
		t.Errorf("expected 1 muted delivery, got %d", muted)
	}
	if unmuted != 2 {
		t.Errorf("expected 2 unmuted deliveries, got %d", unmuted)
	}
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	b := NewMuteBus()

	var reached bool
	b.OnMuted(func(e models.MuteEvent) { panic("boom") })
	b.OnMuted(func(e models.MuteEvent) { reached = true })

	b.PublishMuted(models.MuteEvent{GuildID: "g1", UserID: "u1"})

	if !reached {
		t.Error("handler after a panicking one must still be invoked")
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	b := NewMuteBus()
	// Panic etmemeli
	b.PublishMuted(models.MuteEvent{GuildID: "g1"})
	b.PublishUnmuted(models.MuteEvent{GuildID: "g1"})
}
