package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/akinalp/bekci/bus"
	"github.com/akinalp/bekci/models"
	"github.com/akinalp/bekci/platform"
)

// fakeGateway, platform.Gateway'in in-memory fake'i.
// Oluşturulan roller rol listesine yansır — eşzamanlı çözümleme testleri
// gerçek platform davranışına (create sonrası list'te görünür) dayanır.
type fakeGateway struct {
	mu       sync.Mutex
	roles    map[string][]platform.Role
	channels []platform.Channel

	listRolesErr error
	createErr    error
	createErrFor map[string]error // rol adı → hata
	voiceErr     error
	addRoleErr   error
	overrideErr  map[string]error // channelID → hata

	createCalls int
	addedRoles  []string // "guild/user/role"
	removed     []string
	voiceState  map[string]bool // "guild/user" → muted
	overrides   []string        // override uygulanan channelID'ler
	messages    []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		roles:       make(map[string][]platform.Role),
		overrideErr: make(map[string]error),
		voiceState:  make(map[string]bool),
	}
}

func (g *fakeGateway) ListRoles(ctx context.Context, guildID string) ([]platform.Role, error) {
	if g.listRolesErr != nil {
		return nil, g.listRolesErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]platform.Role(nil), g.roles[guildID]...), nil
}

func (g *fakeGateway) CreateRole(ctx context.Context, guildID, name string) (*platform.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	if err := g.createErrFor[name]; err != nil {
		return nil, err
	}
	role := platform.Role{ID: fmt.Sprintf("role-%d", g.createCalls), Name: name}
	g.roles[guildID] = append(g.roles[guildID], role)
	return &role, nil
}

func (g *fakeGateway) ListTextChannels(ctx context.Context, guildID string) ([]platform.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]platform.Channel(nil), g.channels...), nil
}

func (g *fakeGateway) SetChannelRoleOverride(ctx context.Context, channelID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.overrideErr[channelID]; err != nil {
		return err
	}
	g.overrides = append(g.overrides, channelID)
	return nil
}

func (g *fakeGateway) AddRoleToMember(ctx context.Context, guildID, userID, roleID string) error {
	if g.addRoleErr != nil {
		return g.addRoleErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addedRoles = append(g.addedRoles, guildID+"/"+userID+"/"+roleID)
	return nil
}

func (g *fakeGateway) RemoveRoleFromMember(ctx context.Context, guildID, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removed = append(g.removed, guildID+"/"+userID+"/"+roleID)
	return nil
}

func (g *fakeGateway) SetMemberVoiceMuted(ctx context.Context, guildID, userID string, muted bool) error {
	if g.voiceErr != nil {
		return g.voiceErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voiceState[guildID+"/"+userID] = muted
	return nil
}

func (g *fakeGateway) SendMessage(ctx context.Context, channelID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, content)
	return nil
}

// fakeAlertSender, email.AlertSender'ın test fake'i.
type fakeAlertSender struct {
	mu       sync.Mutex
	subjects []string
}

func (s *fakeAlertSender) SendOperatorAlert(ctx context.Context, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append(s.subjects, subject)
	return nil
}

// muteEventRecorder, bus event'lerini toplar.
type muteEventRecorder struct {
	mu      sync.Mutex
	muted   []models.MuteEvent
	unmuted []models.MuteEvent
}

func recordEvents(b *bus.MuteBus) *muteEventRecorder {
	rec := &muteEventRecorder{}
	b.OnMuted(func(e models.MuteEvent) {
		rec.mu.Lock()
		rec.muted = append(rec.muted, e)
		rec.mu.Unlock()
	})
	b.OnUnmuted(func(e models.MuteEvent) {
		rec.mu.Lock()
		rec.unmuted = append(rec.unmuted, e)
		rec.mu.Unlock()
	})
	return rec
}

func newMuteServiceForTest(gw platform.Gateway) (MuteService, MuteCache, *muteEventRecorder) {
	cache := NewMuteCache(newFakeGuildConfigRepo())
	muteBus := bus.NewMuteBus()
	rec := recordEvents(muteBus)
	return NewMuteService(cache, gw, muteBus, nil), cache, rec
}

func TestGetOrCreateMuteRoleFindsExisting(t *testing.T) {
	gw := newFakeGateway()
	gw.roles["g1"] = []platform.Role{{ID: "r9", Name: models.DefaultMuteRoleName}}
	svc, _, _ := newMuteServiceForTest(gw)

	role, err := svc.GetOrCreateMuteRole(context.Background(), "g1")
	if err != nil {
		t.Fatalf("GetOrCreateMuteRole failed: %v", err)
	}
	if role.ID != "r9" {
		t.Errorf("expected existing role r9, got %s", role.ID)
	}
	if gw.createCalls != 0 {
		t.Errorf("existing role must not trigger creation, got %d creates", gw.createCalls)
	}
	if len(gw.overrides) != 0 {
		t.Error("override pass must only run at role creation")
	}
}

func TestGetOrCreateMuteRoleCreatesWithOverrides(t *testing.T) {
	gw := newFakeGateway()
	gw.channels = []platform.Channel{{ID: "c1"}, {ID: "c2"}}
	svc, _, _ := newMuteServiceForTest(gw)

	role, err := svc.GetOrCreateMuteRole(context.Background(), "g1")
	if err != nil {
		t.Fatalf("GetOrCreateMuteRole failed: %v", err)
	}
	if role.Name != models.DefaultMuteRoleName {
		t.Errorf("expected default role name, got %q", role.Name)
	}
	if gw.createCalls != 1 {
		t.Errorf("expected 1 create, got %d", gw.createCalls)
	}
	if len(gw.overrides) != 2 {
		t.Errorf("expected overrides on both channels, got %v", gw.overrides)
	}
}

func TestGetOrCreateMuteRolePartialOverrideFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.channels = []platform.Channel{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	gw.overrideErr["c2"] = fmt.Errorf("missing permission")

	cache := NewMuteCache(newFakeGuildConfigRepo())
	alerts := &fakeAlertSender{}
	svc := NewMuteService(cache, gw, bus.NewMuteBus(), alerts)

	if _, err := svc.GetOrCreateMuteRole(context.Background(), "g1"); err != nil {
		t.Fatalf("partial override failure must not fail role creation: %v", err)
	}

	// c2 başarısız olsa da c3'e devam edilmeli
	if len(gw.overrides) != 2 {
		t.Errorf("expected overrides on c1 and c3, got %v", gw.overrides)
	}
	if len(alerts.subjects) != 1 {
		t.Errorf("expected 1 operator alert for partial failure, got %d", len(alerts.subjects))
	}
}

func TestGetOrCreateMuteRoleCreateFailureRelists(t *testing.T) {
	gw := newFakeGateway()
	gw.createErr = fmt.Errorf("race lost")
	// Create başarısız ama rol listede var (başka bir aktör oluşturmuş)
	gw.roles["g1"] = []platform.Role{{ID: "r1", Name: models.DefaultMuteRoleName}}

	// İlk listede rol bulunur, create hiç denenmez — bu yüzden özel bir
	// fake akışı kuruyoruz: önce boş liste, create hatası, sonra dolu liste.
	first := true
	svc, _, _ := newMuteServiceForTest(&relistGateway{fakeGateway: gw, firstEmpty: &first})

	role, err := svc.GetOrCreateMuteRole(context.Background(), "g1")
	if err != nil {
		t.Fatalf("expected fallback to re-listed role, got error: %v", err)
	}
	if role.ID != "r1" {
		t.Errorf("expected re-listed role r1, got %s", role.ID)
	}
}

// relistGateway, ilk ListRoles çağrısında boş liste döner, sonrakilerde
// gerçek listeyi. Create-failure fallback akışını test etmek için.
type relistGateway struct {
	*fakeGateway
	firstEmpty *bool
}

func (g *relistGateway) ListRoles(ctx context.Context, guildID string) ([]platform.Role, error) {
	if *g.firstEmpty {
		*g.firstEmpty = false
		return nil, nil
	}
	return g.fakeGateway.ListRoles(ctx, guildID)
}

func TestGetOrCreateMuteRoleFallsBackToDefaultName(t *testing.T) {
	gw := newFakeGateway()
	gw.createErr = fmt.Errorf("permission denied")
	gw.roles["g1"] = []platform.Role{{ID: "r1", Name: models.DefaultMuteRoleName}}

	cache := NewMuteCache(newFakeGuildConfigRepo())
	if err := cache.SetMuteRoleName(context.Background(), "g1", "custom"); err != nil {
		t.Fatalf("SetMuteRoleName failed: %v", err)
	}
	svc := NewMuteService(cache, gw, bus.NewMuteBus(), nil)

	// "custom" adlı rol yok ve oluşturulamıyor — varsayılan adlı rol son çare
	role, err := svc.GetOrCreateMuteRole(context.Background(), "g1")
	if err != nil {
		t.Fatalf("expected default-named role fallback, got error: %v", err)
	}
	if role.ID != "r1" {
		t.Errorf("expected fallback role r1, got %s", role.ID)
	}
}

func TestGetOrCreateMuteRoleCreatesDefaultAsLastResort(t *testing.T) {
	gw := newFakeGateway()
	gw.createErrFor = map[string]error{"custom": fmt.Errorf("name conflict")}
	gw.channels = []platform.Channel{{ID: "c1", Name: "genel"}}

	cache := NewMuteCache(newFakeGuildConfigRepo())
	if err := cache.SetMuteRoleName(context.Background(), "g1", "custom"); err != nil {
		t.Fatalf("SetMuteRoleName failed: %v", err)
	}
	svc := NewMuteService(cache, gw, bus.NewMuteBus(), nil)

	// "custom" oluşturulamıyor ve default adlı rol de yok —
	// son çare default adla yeni rol oluşturulur, override pass ile birlikte.
	role, err := svc.GetOrCreateMuteRole(context.Background(), "g1")
	if err != nil {
		t.Fatalf("expected last-resort creation of default-named role, got error: %v", err)
	}
	if role.Name != models.DefaultMuteRoleName {
		t.Errorf("role name = %q, want %q", role.Name, models.DefaultMuteRoleName)
	}
	if len(gw.overrides) != 1 || gw.overrides[0] != "c1" {
		t.Errorf("expected override pass on the created role, got %v", gw.overrides)
	}
}

func TestConcurrentRoleResolutionCreatesOnce(t *testing.T) {
	gw := newFakeGateway()
	svc, _, _ := newMuteServiceForTest(gw)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetOrCreateMuteRole(context.Background(), "g1"); err != nil {
				t.Errorf("GetOrCreateMuteRole failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if gw.createCalls != 1 {
		t.Errorf("expected exactly 1 role creation, got %d", gw.createCalls)
	}
}

func TestMuteUserAppliesAllEffects(t *testing.T) {
	gw := newFakeGateway()
	gw.roles["g1"] = []platform.Role{{ID: "r1", Name: models.DefaultMuteRoleName}}
	svc, cache, rec := newMuteServiceForTest(gw)

	if err := svc.MuteUser(context.Background(), "g1", "u1"); err != nil {
		t.Fatalf("MuteUser failed: %v", err)
	}

	if !gw.voiceState["g1/u1"] {
		t.Error("voice mute flag not set")
	}
	if len(gw.addedRoles) != 1 || gw.addedRoles[0] != "g1/u1/r1" {
		t.Errorf("mute role not assigned, got %v", gw.addedRoles)
	}
	if !cache.IsMuted("g1", "u1") {
		t.Error("user not added to persistent roster")
	}
	if len(rec.muted) != 1 || rec.muted[0].Scope != models.MuteScopeAll {
		t.Errorf("expected one all-scope mute event, got %+v", rec.muted)
	}
}

func TestMuteUserVoiceFailureAborts(t *testing.T) {
	gw := newFakeGateway()
	gw.voiceErr = fmt.Errorf("member offline")
	svc, cache, rec := newMuteServiceForTest(gw)

	if err := svc.MuteUser(context.Background(), "g1", "u1"); err == nil {
		t.Fatal("expected error from voice mute failure")
	}
	if len(gw.addedRoles) != 0 {
		t.Error("role must not be assigned after voice step fails")
	}
	if cache.IsMuted("g1", "u1") {
		t.Error("roster must not change after voice step fails")
	}
	if len(rec.muted) != 0 {
		t.Error("no event on failed mute")
	}
}

func TestMuteUserPersistFailureSkipsEvent(t *testing.T) {
	repo := newFakeGuildConfigRepo()
	repo.writeErr = fmt.Errorf("disk full")
	cache := NewMuteCache(repo)

	gw := newFakeGateway()
	gw.roles["g1"] = []platform.Role{{ID: "r1", Name: models.DefaultMuteRoleName}}
	muteBus := bus.NewMuteBus()
	rec := recordEvents(muteBus)
	svc := NewMuteService(cache, gw, muteBus, nil)

	if err := svc.MuteUser(context.Background(), "g1", "u1"); err == nil {
		t.Fatal("expected persist error")
	}

	// Platform etkileri geri alınmaz — rol atanmış kalır
	if len(gw.addedRoles) != 1 {
		t.Errorf("platform effects are not rolled back, got %v", gw.addedRoles)
	}
	if len(rec.muted) != 0 {
		t.Error("event must only fire after successful persist")
	}
}

func TestUnmuteUserRemovesAllEffects(t *testing.T) {
	gw := newFakeGateway()
	gw.roles["g1"] = []platform.Role{{ID: "r1", Name: models.DefaultMuteRoleName}}
	svc, cache, rec := newMuteServiceForTest(gw)

	if err := svc.MuteUser(context.Background(), "g1", "u1"); err != nil {
		t.Fatalf("MuteUser failed: %v", err)
	}
	if err := svc.UnmuteUser(context.Background(), "g1", "u1"); err != nil {
		t.Fatalf("UnmuteUser failed: %v", err)
	}

	if gw.voiceState["g1/u1"] {
		t.Error("voice mute flag still set")
	}
	if len(gw.removed) != 1 || gw.removed[0] != "g1/u1/r1" {
		t.Errorf("mute role not removed, got %v", gw.removed)
	}
	if cache.IsMuted("g1", "u1") {
		t.Error("user still in persistent roster")
	}
	if len(rec.unmuted) != 1 || rec.unmuted[0].Scope != models.MuteScopeAll {
		t.Errorf("expected one all-scope unmute event, got %+v", rec.unmuted)
	}
}

func TestScopedMutesSkipRoster(t *testing.T) {
	gw := newFakeGateway()
	gw.roles["g1"] = []platform.Role{{ID: "r1", Name: models.DefaultMuteRoleName}}
	svc, cache, rec := newMuteServiceForTest(gw)

	if err := svc.ChatMute(context.Background(), "g1", "u1"); err != nil {
		t.Fatalf("ChatMute failed: %v", err)
	}
	if gw.voiceState["g1/u1"] {
		t.Error("chat mute must not touch the voice flag")
	}
	if cache.IsMuted("g1", "u1") {
		t.Error("scoped mute must not touch the roster")
	}

	if err := svc.VoiceMute(context.Background(), "g1", "u2"); err != nil {
		t.Fatalf("VoiceMute failed: %v", err)
	}
	if !gw.voiceState["g1/u2"] {
		t.Error("voice mute flag not set")
	}
	if len(gw.addedRoles) != 1 {
		t.Errorf("voice mute must not assign the role, got %v", gw.addedRoles)
	}

	if len(rec.muted) != 2 {
		t.Fatalf("expected 2 mute events, got %d", len(rec.muted))
	}
	if rec.muted[0].Scope != models.MuteScopeChat || rec.muted[1].Scope != models.MuteScopeVoice {
		t.Errorf("unexpected event scopes: %+v", rec.muted)
	}
}

func TestOnMemberJoinedReappliesMute(t *testing.T) {
	gw := newFakeGateway()
	gw.roles["g1"] = []platform.Role{{ID: "r1", Name: models.DefaultMuteRoleName}}
	svc, cache, rec := newMuteServiceForTest(gw)

	if err := cache.AddMutedUser(context.Background(), "g1", "u1"); err != nil {
		t.Fatalf("AddMutedUser failed: %v", err)
	}

	svc.OnMemberJoined("g1", "u1")

	if !gw.voiceState["g1/u1"] {
		t.Error("rejoin must re-apply the voice mute flag")
	}
	if len(gw.addedRoles) != 1 || gw.addedRoles[0] != "g1/u1/r1" {
		t.Errorf("rejoin must re-assign the mute role, got %v", gw.addedRoles)
	}
	if len(rec.muted) != 1 || rec.muted[0].Scope != models.MuteScopeAll {
		t.Errorf("expected all-scope re-mute event, got %+v", rec.muted)
	}

	// Roster'da olmayan kullanıcı için hiçbir şey yapılmaz
	svc.OnMemberJoined("g1", "u2")
	if gw.voiceState["g1/u2"] {
		t.Error("unmuted user must not be touched on rejoin")
	}
}
