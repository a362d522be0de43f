package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/akinalp/bekci/bus"
	"github.com/akinalp/bekci/models"
	"github.com/akinalp/bekci/pkg/email"
	"github.com/akinalp/bekci/platform"
)

// overrideDelay, ardışık kanal override çağrıları arasında beklenen süre.
// Platform yazma API'sini tek seferde boğmamak için.
const overrideDelay = 200 * time.Millisecond

// ChannelOverrideReport, mute rolü oluşturulurken yapılan per-channel
// override pass'inin sonucunu taşır. Override'lar best-effort'tur: bir
// kanalın başarısız olması diğerlerini durdurmaz, ama sonuç operatöre
// görünür olmalıdır.
type ChannelOverrideReport struct {
	GuildID string
	RoleID  string
	Total   int
	Applied int
	Failed  []string // override uygulanamayan channel ID'leri
}

// MuteService, mute roster'ını platform durumu ile senkronize eden servis.
//
// Üç etkiyi koordine eder: voice-mute flag'i, mute rolü ataması ve kalıcı
// roster kaydı. Adımlar sıralı uygulanır ve rollback YOKTUR: platformda
// yarım kalmış bir mute, hiç uygulanmamış bir mute'tan daha az zararlıdır
// ve bir sonraki işlemde idempotent çağrılarla düzelir.
type MuteService interface {
	// GetOrCreateMuteRole, guild'in mute rolünü çözer; yoksa oluşturur.
	// Aynı guild için eşzamanlı çağrılar serialize edilir — bir isim için
	// asla birden fazla rol oluşturulmaz.
	GetOrCreateMuteRole(ctx context.Context, guildID string) (*platform.Role, error)

	// MuteUser, kullanıcıyı tüm kapsamlarda susturur: voice flag + rol +
	// kalıcı roster. Başarıda MuteScopeAll event'i yayınlanır.
	MuteUser(ctx context.Context, guildID, userID string) error

	// UnmuteUser, MuteUser'ın tersini uygular ve roster'dan siler.
	UnmuteUser(ctx context.Context, guildID, userID string) error

	// ChatMute / ChatUnmute, yalnızca mute rolünü atar/kaldırır. Roster'a
	// yazılmaz — kalıcılık yalnızca tam mute içindir.
	ChatMute(ctx context.Context, guildID, userID string) error
	ChatUnmute(ctx context.Context, guildID, userID string) error

	// VoiceMute / VoiceUnmute, yalnızca voice-mute flag'ini değiştirir.
	VoiceMute(ctx context.Context, guildID, userID string) error
	VoiceUnmute(ctx context.Context, guildID, userID string) error

	// OnMemberJoined, guild'e katılan üye roster'da kayıtlıysa mute
	// etkilerini yeniden uygular. Hatalar loglanır, döndürülmez — gateway
	// event handler'ında hata dönecek kimse yoktur.
	OnMemberJoined(guildID, userID string)
}

type muteService struct {
	cache   MuteCache
	gateway platform.Gateway
	bus     *bus.MuteBus
	alerts  email.AlertSender // nil olabilir — alert mail opsiyonel

	// resolveMu, rol çözümlemesini guild başına serialize eder. Global tek
	// mutex yerine guild-sharded: bir guild'in rol oluşturması diğer
	// guild'lerin çözümlemesini bekletmez.
	mu        sync.Mutex
	resolveMu map[string]*sync.Mutex
}

// NewMuteService, yeni bir MuteService oluşturur. alerts nil geçilebilir;
// o durumda partial-failure raporları yalnızca loglanır.
func NewMuteService(cache MuteCache, gateway platform.Gateway, muteBus *bus.MuteBus, alerts email.AlertSender) MuteService {
	return &muteService{
		cache:     cache,
		gateway:   gateway,
		bus:       muteBus,
		alerts:    alerts,
		resolveMu: make(map[string]*sync.Mutex),
	}
}

func (s *muteService) guildResolveMu(guildID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.resolveMu[guildID]
	if !ok {
		m = &sync.Mutex{}
		s.resolveMu[guildID] = m
	}
	return m
}

// findRoleByName, rol listesinde isme göre arama yapar (case-sensitive).
func findRoleByName(roles []platform.Role, name string) *platform.Role {
	for i := range roles {
		if roles[i].Name == name {
			return &roles[i]
		}
	}
	return nil
}

func (s *muteService) GetOrCreateMuteRole(ctx context.Context, guildID string) (*platform.Role, error) {
	mu := s.guildResolveMu(guildID)
	mu.Lock()
	defer mu.Unlock()

	roleName := s.cache.GetMuteRoleName(guildID)

	roles, err := s.gateway.ListRoles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	if role := findRoleByName(roles, roleName); role != nil {
		return role, nil
	}

	// Rol yok — oluştur. Create başarısız olursa bir kere daha listeden
	// ararız: rol elle yeni oluşturulmuş ya da create kısmen işlemiş
	// olabilir.
	created, createErr := s.gateway.CreateRole(ctx, guildID, roleName)
	if createErr == nil {
		s.applyChannelOverrides(ctx, guildID, created)
		return created, nil
	}

	roles, err = s.gateway.ListRoles(ctx, guildID)
	if err == nil {
		if role := findRoleByName(roles, roleName); role != nil {
			return role, nil
		}
		// Son çare: configured isim custom ise default isimli rolü bul,
		// o da yoksa default isimle oluştur.
		if roleName != models.DefaultMuteRoleName {
			if role := findRoleByName(roles, models.DefaultMuteRoleName); role != nil {
				return role, nil
			}
			created, fallbackErr := s.gateway.CreateRole(ctx, guildID, models.DefaultMuteRoleName)
			if fallbackErr == nil {
				s.applyChannelOverrides(ctx, guildID, created)
				return created, nil
			}
			log.Printf("[mute] fallback role creation failed (guild=%s): %v", guildID, fallbackErr)
		}
	}

	return nil, fmt.Errorf("failed to create mute role %q: %w", roleName, createErr)
}

// applyChannelOverrides, yeni oluşturulan mute rolü için her text kanalına
// send_messages/attach_files deny override'ı uygular. Yalnızca rol
// oluşturulduğu anda çağrılır — sonradan açılan kanallar kapsanmaz.
func (s *muteService) applyChannelOverrides(ctx context.Context, guildID string, role *platform.Role) {
	channels, err := s.gateway.ListTextChannels(ctx, guildID)
	if err != nil {
		log.Printf("[mute] failed to list channels for override pass (guild=%s): %v", guildID, err)
		s.sendOverrideAlert(ctx, &ChannelOverrideReport{GuildID: guildID, RoleID: role.ID})
		return
	}

	report := &ChannelOverrideReport{
		GuildID: guildID,
		RoleID:  role.ID,
		Total:   len(channels),
	}

	for i, ch := range channels {
		if i > 0 {
			select {
			case <-time.After(overrideDelay):
			case <-ctx.Done():
				log.Printf("[mute] override pass cancelled (guild=%s): %v", guildID, ctx.Err())
				return
			}
		}
		if err := s.gateway.SetChannelRoleOverride(ctx, ch.ID, role.ID); err != nil {
			log.Printf("[mute] failed to set override (guild=%s channel=%s): %v", guildID, ch.ID, err)
			report.Failed = append(report.Failed, ch.ID)
			continue
		}
		report.Applied++
	}

	if len(report.Failed) > 0 || report.Total == 0 {
		s.sendOverrideAlert(ctx, report)
	}
}

func (s *muteService) sendOverrideAlert(ctx context.Context, report *ChannelOverrideReport) {
	if s.alerts == nil {
		return
	}
	body := fmt.Sprintf(
		"Mute role %s created in guild %s but channel overrides are incomplete.\n"+
			"Applied: %d/%d\nFailed channels: %s\n"+
			"These channels will not silence the mute role until fixed manually.",
		report.RoleID, report.GuildID, report.Applied, report.Total,
		strings.Join(report.Failed, ", "),
	)
	if err := s.alerts.SendOperatorAlert(ctx, "incomplete mute role setup", body); err != nil {
		log.Printf("[mute] failed to send operator alert: %v", err)
	}
}

func (s *muteService) MuteUser(ctx context.Context, guildID, userID string) error {
	if err := s.gateway.SetMemberVoiceMuted(ctx, guildID, userID, true); err != nil {
		return fmt.Errorf("failed to voice-mute member: %w", err)
	}

	role, err := s.GetOrCreateMuteRole(ctx, guildID)
	if err != nil {
		return err
	}
	if err := s.gateway.AddRoleToMember(ctx, guildID, userID, role.ID); err != nil {
		return fmt.Errorf("failed to add mute role: %w", err)
	}

	if err := s.cache.AddMutedUser(ctx, guildID, userID); err != nil {
		return err
	}

	s.bus.PublishMuted(models.MuteEvent{GuildID: guildID, UserID: userID, Scope: models.MuteScopeAll})
	return nil
}

func (s *muteService) UnmuteUser(ctx context.Context, guildID, userID string) error {
	if err := s.gateway.SetMemberVoiceMuted(ctx, guildID, userID, false); err != nil {
		return fmt.Errorf("failed to voice-unmute member: %w", err)
	}

	role, err := s.GetOrCreateMuteRole(ctx, guildID)
	if err != nil {
		return err
	}
	if err := s.gateway.RemoveRoleFromMember(ctx, guildID, userID, role.ID); err != nil {
		return fmt.Errorf("failed to remove mute role: %w", err)
	}

	if err := s.cache.RemoveMutedUser(ctx, guildID, userID); err != nil {
		return err
	}

	s.bus.PublishUnmuted(models.MuteEvent{GuildID: guildID, UserID: userID, Scope: models.MuteScopeAll})
	return nil
}

func (s *muteService) ChatMute(ctx context.Context, guildID, userID string) error {
	role, err := s.GetOrCreateMuteRole(ctx, guildID)
	if err != nil {
		return err
	}
	if err := s.gateway.AddRoleToMember(ctx, guildID, userID, role.ID); err != nil {
		return fmt.Errorf("failed to add mute role: %w", err)
	}
	s.bus.PublishMuted(models.MuteEvent{GuildID: guildID, UserID: userID, Scope: models.MuteScopeChat})
	return nil
}

func (s *muteService) ChatUnmute(ctx context.Context, guildID, userID string) error {
	role, err := s.GetOrCreateMuteRole(ctx, guildID)
	if err != nil {
		return err
	}
	if err := s.gateway.RemoveRoleFromMember(ctx, guildID, userID, role.ID); err != nil {
		return fmt.Errorf("failed to remove mute role: %w", err)
	}
	s.bus.PublishUnmuted(models.MuteEvent{GuildID: guildID, UserID: userID, Scope: models.MuteScopeChat})
	return nil
}

func (s *muteService) VoiceMute(ctx context.Context, guildID, userID string) error {
	if err := s.gateway.SetMemberVoiceMuted(ctx, guildID, userID, true); err != nil {
		return fmt.Errorf("failed to voice-mute member: %w", err)
	}
	s.bus.PublishMuted(models.MuteEvent{GuildID: guildID, UserID: userID, Scope: models.MuteScopeVoice})
	return nil
}

func (s *muteService) VoiceUnmute(ctx context.Context, guildID, userID string) error {
	if err := s.gateway.SetMemberVoiceMuted(ctx, guildID, userID, false); err != nil {
		return fmt.Errorf("failed to voice-unmute member: %w", err)
	}
	s.bus.PublishUnmuted(models.MuteEvent{GuildID: guildID, UserID: userID, Scope: models.MuteScopeVoice})
	return nil
}

func (s *muteService) OnMemberJoined(guildID, userID string) {
	if !s.cache.IsMuted(guildID, userID) {
		return
	}

	// Gateway event'i içinden çağrılır, caller context'i yoktur. Yeniden
	// uygulama uzun sürebilir (rol oluşturma + override pass dahil).
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.gateway.SetMemberVoiceMuted(ctx, guildID, userID, true); err != nil {
		log.Printf("[mute] failed to re-apply voice mute on rejoin (guild=%s user=%s): %v", guildID, userID, err)
	}

	role, err := s.GetOrCreateMuteRole(ctx, guildID)
	if err != nil {
		log.Printf("[mute] failed to resolve mute role on rejoin (guild=%s user=%s): %v", guildID, userID, err)
		return
	}
	if err := s.gateway.AddRoleToMember(ctx, guildID, userID, role.ID); err != nil {
		log.Printf("[mute] failed to re-apply mute role on rejoin (guild=%s user=%s): %v", guildID, userID, err)
		return
	}

	s.bus.PublishMuted(models.MuteEvent{GuildID: guildID, UserID: userID, Scope: models.MuteScopeAll})
}
