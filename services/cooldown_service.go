// Package services — CooldownService: komut cooldown iş mantığı.
//
// İki tür state tutar:
//  1. Kurallar (kalıcı): (guild, command) → seconds. DB ile senkron,
//     startup'ta Hydrate ile yüklenir.
//  2. Aktif pencereler (ephemeral): (guild, command, user) → COOLING.
//     Sadece bellekte yaşar, süre dolunca timer ile evict edilir.
//
// Kilitleme guild bazlıdır: her guild'in kendi mutex'i vardır, farklı
// guild'lerin komutları birbirini bekletmez. Admission (IsOnCooldown)
// tek guild mutex'i altında test-and-set yapar — aynı key için eşzamanlı
// N çağrıdan tam olarak biri pencereyi açar ve tam olarak bir eviction
// timer'ı kurulur.
package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/akinalp/bekci/models"
	"github.com/akinalp/bekci/pkg"
	"github.com/akinalp/bekci/repository"
)

// CooldownService, komut cooldown iş mantığı interface'i.
type CooldownService interface {
	// Hydrate, startup'ta kuralları bulk load sonucundan yükler.
	Hydrate(configs []models.GuildConfig)

	// SetRule, (guild, command) cooldown kuralını ayarlar.
	// seconds 0 ise kural silinir (dönen rule nil'dir); aksi halde upsert
	// edilir. seconds [0, 3600] dışındaysa ErrBadRequest döner.
	// Önce persist edilir — DB yazması başarısız olursa cache değişmez.
	SetRule(ctx context.Context, guildID, command string, seconds int) (*models.CooldownRule, error)

	// ListRules, guild'in konfigüre edilmiş kurallarını döner (komut adına
	// göre sıralı — display için).
	ListRules(guildID string) []models.CooldownRule

	// IsOnCooldown, rate-limit primitive'i.
	// Kural yoksa false döner, state değişmez. Kural varsa atomik
	// test-and-set: aktif pencere varsa true (bloklandı, pencere uzamaz);
	// yoksa pencereyi açar, eviction'ı zamanlar ve false döner.
	IsOnCooldown(guildID, command, userID string) bool
}

// cooldownKey, bir aktif pencerenin kimliği.
type cooldownKey struct {
	command string
	userID  string
}

// guildCooldowns, tek bir guild'in cooldown state'i.
// mu hem kuralları hem aktif pencereleri korur — admission kontrolünün
// kural okuması ile pencere açması aynı kritik bölgede olmalıdır.
type guildCooldowns struct {
	mu     sync.Mutex
	rules  map[string]int // command → seconds
	active map[cooldownKey]struct{}
}

type cooldownService struct {
	repo repository.CooldownRepository

	mu     sync.RWMutex
	guilds map[string]*guildCooldowns
}

// NewCooldownService, constructor — interface döner.
func NewCooldownService(repo repository.CooldownRepository) CooldownService {
	return &cooldownService{
		repo:   repo,
		guilds: make(map[string]*guildCooldowns),
	}
}

// guild, guild state'ini döner; yoksa oluşturur.
// Outer lock sadece map erişimini korur, kısa tutulur — guild içi
// operasyonlar guild'in kendi mutex'i ile yapılır.
func (s *cooldownService) guild(guildID string) *guildCooldowns {
	s.mu.RLock()
	g, ok := s.guilds[guildID]
	s.mu.RUnlock()
	if ok {
		return g
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.guilds[guildID]; ok {
		return g
	}
	g = &guildCooldowns{
		rules:  make(map[string]int),
		active: make(map[cooldownKey]struct{}),
	}
	s.guilds[guildID] = g
	return g
}

func (s *cooldownService) Hydrate(configs []models.GuildConfig) {
	for _, cfg := range configs {
		if len(cfg.CooldownRules) == 0 {
			continue
		}
		g := s.guild(cfg.GuildID)
		g.mu.Lock()
		for _, rule := range cfg.CooldownRules {
			g.rules[normalizeCommand(rule.Command)] = rule.Seconds
		}
		g.mu.Unlock()
	}
}

func (s *cooldownService) SetRule(ctx context.Context, guildID, command string, seconds int) (*models.CooldownRule, error) {
	if err := models.ValidateCooldownSeconds(seconds); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	command = normalizeCommand(command)
	if command == "" {
		return nil, fmt.Errorf("%w: command name must not be empty", pkg.ErrBadRequest)
	}

	// Önce persist — yazma başarısız olursa in-memory state değişmeden döneriz.
	if seconds == 0 {
		if err := s.repo.DeleteRule(ctx, guildID, command); err != nil {
			return nil, err
		}

		g := s.guild(guildID)
		g.mu.Lock()
		delete(g.rules, command)
		// Kural silinince komutun TÜM aktif pencereleri de düşer — kuralsız
		// komut bloklanamaz. Kurulu timer'lar yine tetiklenir ve no-op olur.
		for key := range g.active {
			if key.command == command {
				delete(g.active, key)
			}
		}
		g.mu.Unlock()
		return nil, nil
	}

	if err := s.repo.UpsertRule(ctx, guildID, command, seconds); err != nil {
		return nil, err
	}

	g := s.guild(guildID)
	g.mu.Lock()
	g.rules[command] = seconds
	g.mu.Unlock()

	return &models.CooldownRule{Command: command, Seconds: seconds}, nil
}

func (s *cooldownService) ListRules(guildID string) []models.CooldownRule {
	g := s.guild(guildID)

	g.mu.Lock()
	rules := make([]models.CooldownRule, 0, len(g.rules))
	for command, seconds := range g.rules {
		rules = append(rules, models.CooldownRule{Command: command, Seconds: seconds})
	}
	g.mu.Unlock()

	sort.Slice(rules, func(i, j int) bool { return rules[i].Command < rules[j].Command })
	return rules
}

// IsOnCooldown, admission kontrolü + pencere açma, tek kritik bölgede.
//
// Dönen değer "bloklandı mı"dır: true → komut çalıştırılmamalı.
// Pencere açıldığında eviction time.AfterFunc ile zamanlanır; timer
// tetiklendiğinde entry zaten silinmişse (kural temizlenmiş) delete no-op'tur.
func (s *cooldownService) IsOnCooldown(guildID, command, userID string) bool {
	command = normalizeCommand(command)
	g := s.guild(guildID)

	g.mu.Lock()
	defer g.mu.Unlock()

	seconds, ok := g.rules[command]
	if !ok {
		return false
	}

	key := cooldownKey{command: command, userID: userID}
	if _, cooling := g.active[key]; cooling {
		return true
	}

	g.active[key] = struct{}{}

	// Eviction, pencere AÇILDIĞI ANDAKİ süre ile zamanlanır — kural sonradan
	// değişse de bu pencere orijinal süresiyle kapanır.
	time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		g.mu.Lock()
		delete(g.active, key)
		g.mu.Unlock()
	})

	log.Printf("[cooldown] window started: guild=%s command=%s user=%s (%ds)", guildID, command, userID, seconds)
	return false
}

// normalizeCommand, komut adını karşılaştırma için normalize eder.
// Komutlar case-insensitive'dir — kural ve pencere key'leri lowercase tutulur.
func normalizeCommand(command string) string {
	return strings.ToLower(strings.TrimSpace(command))
}
