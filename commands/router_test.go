package commands

import (
	"context"
	"sync"
	"testing"

	"github.com/akinalp/bekci/models"
	"github.com/akinalp/bekci/pkg/i18n"
	"github.com/akinalp/bekci/platform"
)

// stubCooldowns, services.CooldownService'in router testleri için stub'ı.
// blocked set'indeki komutlar cooldown'daymış gibi davranır.
type stubCooldowns struct {
	mu      sync.Mutex
	blocked map[string]bool
	checked []string
}

func (s *stubCooldowns) Hydrate(configs []models.GuildConfig) {}

func (s *stubCooldowns) SetRule(ctx context.Context, guildID, command string, seconds int) (*models.CooldownRule, error) {
	return nil, nil
}

func (s *stubCooldowns) ListRules(guildID string) []models.CooldownRule { return nil }

func (s *stubCooldowns) IsOnCooldown(guildID, command, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked = append(s.checked, command)
	return s.blocked[command]
}

// msgGateway, sadece SendMessage'ı kaydeden Gateway stub'ı.
type msgGateway struct {
	mu       sync.Mutex
	messages []string
}

func (g *msgGateway) ListRoles(ctx context.Context, guildID string) ([]platform.Role, error) {
	return nil, nil
}
func (g *msgGateway) CreateRole(ctx context.Context, guildID, name string) (*platform.Role, error) {
	return nil, nil
}
func (g *msgGateway) ListTextChannels(ctx context.Context, guildID string) ([]platform.Channel, error) {
	return nil, nil
}
func (g *msgGateway) SetChannelRoleOverride(ctx context.Context, channelID, roleID string) error {
	return nil
}
func (g *msgGateway) AddRoleToMember(ctx context.Context, guildID, userID, roleID string) error {
	return nil
}
func (g *msgGateway) RemoveRoleFromMember(ctx context.Context, guildID, userID, roleID string) error {
	return nil
}
func (g *msgGateway) SetMemberVoiceMuted(ctx context.Context, guildID, userID string, muted bool) error {
	return nil
}
func (g *msgGateway) SendMessage(ctx context.Context, channelID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, content)
	return nil
}

type dispatched struct {
	msg  Message
	args []string
}

func newTestRouter(cooldowns *stubCooldowns) (*Router, *[]dispatched) {
	r := NewRouter("!", cooldowns, &msgGateway{}, i18n.NewLocalizer("en"))
	var calls []dispatched
	r.Register("Mute", func(ctx context.Context, msg Message, args []string) {
		calls = append(calls, dispatched{msg: msg, args: args})
	})
	return r, &calls
}

func TestHandleMessageIgnoresNonCommands(t *testing.T) {
	cooldowns := &stubCooldowns{blocked: map[string]bool{}}
	r, calls := newTestRouter(cooldowns)

	r.HandleMessage("g1", "c1", "u1", "hello there")
	r.HandleMessage("g1", "c1", "u1", "")
	r.HandleMessage("g1", "c1", "u1", "!   ")

	if len(*calls) != 0 {
		t.Errorf("non-command messages must not dispatch, got %d calls", len(*calls))
	}
	if len(cooldowns.checked) != 0 {
		t.Errorf("non-command messages must not hit the cooldown gate, got %v", cooldowns.checked)
	}
}

func TestHandleMessageDispatchesWithArgs(t *testing.T) {
	cooldowns := &stubCooldowns{blocked: map[string]bool{}}
	r, calls := newTestRouter(cooldowns)

	r.HandleMessage("g1", "c1", "u1", "!mute <@u2> spam")

	if len(*calls) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(*calls))
	}
	got := (*calls)[0]
	if got.msg.GuildID != "g1" || got.msg.ChannelID != "c1" || got.msg.AuthorID != "u1" {
		t.Errorf("unexpected message context: %+v", got.msg)
	}
	if len(got.args) != 2 || got.args[0] != "<@u2>" || got.args[1] != "spam" {
		t.Errorf("unexpected args: %v", got.args)
	}
}

func TestHandleMessageIsCaseInsensitive(t *testing.T) {
	cooldowns := &stubCooldowns{blocked: map[string]bool{}}
	r, calls := newTestRouter(cooldowns)

	r.HandleMessage("g1", "c1", "u1", "!MUTE u2")

	if len(*calls) != 1 {
		t.Fatalf("expected dispatch for uppercase command, got %d", len(*calls))
	}
	if cooldowns.checked[0] != "mute" {
		t.Errorf("cooldown gate must see the lowercase name, got %q", cooldowns.checked[0])
	}
}

func TestHandleMessageSkipsUnknownCommands(t *testing.T) {
	cooldowns := &stubCooldowns{blocked: map[string]bool{}}
	r, calls := newTestRouter(cooldowns)

	r.HandleMessage("g1", "c1", "u1", "!dance")

	if len(*calls) != 0 {
		t.Error("unknown command must not dispatch")
	}
	// Tanınmayan komutlar cooldown kapısına bile uğramaz — pencere açılmaz
	if len(cooldowns.checked) != 0 {
		t.Errorf("unknown command must not hit the cooldown gate, got %v", cooldowns.checked)
	}
}

func TestHandleMessageDropsSilentlyOnCooldown(t *testing.T) {
	cooldowns := &stubCooldowns{blocked: map[string]bool{"mute": true}}
	gw := &msgGateway{}
	r := NewRouter("!", cooldowns, gw, i18n.NewLocalizer("en"))

	var called bool
	r.Register("mute", func(ctx context.Context, msg Message, args []string) { called = true })

	r.HandleMessage("g1", "c1", "u1", "!mute u2")

	if called {
		t.Error("command on cooldown must not run")
	}
	if len(gw.messages) != 0 {
		t.Errorf("cooldown drop must be silent, got replies %v", gw.messages)
	}
}

func TestParseUserArg(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"u1", "u1"},
		{"<@u1>", "u1"},
		{"<@>", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := parseUserArg(tt.in); got != tt.want {
			t.Errorf("parseUserArg(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
