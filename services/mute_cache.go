// Package services — MuteCache: guild mute state'inin in-memory aynası.
//
// Source of truth DB'dir; bu cache okuma-optimize bir mirror'dır ve
// LoadAll ile sıfırdan yeniden kurulabilir. Yazma sırası KATIDIR:
// önce persist, persistence yazması başarılı olduktan SONRA in-memory set
// güncellenir. Yazma başarısız olursa cache DEĞİŞMEZ ve hata caller'a döner —
// cache ile store asla sessizce ayrışmaz.
//
// Kilitleme guild bazlıdır — farklı guild'lerin mute işlemleri birbirini
// bekletmez.
package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/akinalp/bekci/models"
	"github.com/akinalp/bekci/pkg"
	"github.com/akinalp/bekci/repository"
)

// MuteCache, guild mute state'i iş mantığı interface'i.
type MuteCache interface {
	// LoadAll, tüm guild konfigürasyonlarını DB'den yükler, in-memory
	// map'leri kurar ve cooldown hydration için configs'i döner.
	// Process start'ta bir kere çağrılır.
	LoadAll(ctx context.Context) ([]models.GuildConfig, error)

	// GetMuteRoleName, guild'in konfigüre edilmiş mute rol adını döner;
	// konfigüre edilmemişse models.DefaultMuteRoleName.
	GetMuteRoleName(guildID string) string

	// SetMuteRoleName, rol adını valide eder (trim sonrası boş olamaz),
	// persist eder, sonra cache'i günceller.
	SetMuteRoleName(ctx context.Context, guildID, name string) error

	// IsMuted, kullanıcının guild'de full-mute rosterında olup olmadığını döner.
	IsMuted(guildID, userID string) bool

	// AddMutedUser / RemoveMutedUser — persist-then-cache.
	AddMutedUser(ctx context.Context, guildID, userID string) error
	RemoveMutedUser(ctx context.Context, guildID, userID string) error

	// MutedUserIDs, guild'in muted kullanıcılarını döner (operator API için).
	MutedUserIDs(guildID string) []string
}

// guildMuteState, tek bir guild'in in-memory mute state'i.
type guildMuteState struct {
	mu       sync.RWMutex
	roleName string // boş = konfigüre edilmemiş, default geçerli
	muted    map[string]struct{}
}

type muteCache struct {
	repo repository.GuildConfigRepository

	mu     sync.RWMutex
	guilds map[string]*guildMuteState
}

// NewMuteCache, constructor — interface döner.
func NewMuteCache(repo repository.GuildConfigRepository) MuteCache {
	return &muteCache{
		repo:   repo,
		guilds: make(map[string]*guildMuteState),
	}
}

func (c *muteCache) guild(guildID string) *guildMuteState {
	c.mu.RLock()
	g, ok := c.guilds[guildID]
	c.mu.RUnlock()
	if ok {
		return g
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.guilds[guildID]; ok {
		return g
	}
	g = &guildMuteState{muted: make(map[string]struct{})}
	c.guilds[guildID] = g
	return g
}

func (c *muteCache) LoadAll(ctx context.Context) ([]models.GuildConfig, error) {
	configs, err := c.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild configs: %w", err)
	}

	c.mu.Lock()
	c.guilds = make(map[string]*guildMuteState, len(configs))
	for _, cfg := range configs {
		g := &guildMuteState{muted: make(map[string]struct{}, len(cfg.MutedUserIDs))}
		if cfg.MuteRoleName != nil {
			g.roleName = *cfg.MuteRoleName
		}
		for _, userID := range cfg.MutedUserIDs {
			g.muted[userID] = struct{}{}
		}
		c.guilds[cfg.GuildID] = g
	}
	c.mu.Unlock()

	log.Printf("[mutecache] hydrated %d guilds", len(configs))
	return configs, nil
}

func (c *muteCache) GetMuteRoleName(guildID string) string {
	g := c.guild(guildID)

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.roleName == "" {
		return models.DefaultMuteRoleName
	}
	return g.roleName
}

func (c *muteCache) SetMuteRoleName(ctx context.Context, guildID, name string) error {
	req := models.SetMuteRoleRequest{Name: name}
	trimmed, err := req.Validate()
	if err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	// Önce persist — yazma başarısız olursa cache eski adı korur.
	if err := c.repo.UpsertMuteRoleName(ctx, guildID, trimmed); err != nil {
		return err
	}

	g := c.guild(guildID)
	g.mu.Lock()
	g.roleName = trimmed
	g.mu.Unlock()

	return nil
}

func (c *muteCache) IsMuted(guildID, userID string) bool {
	g := c.guild(guildID)

	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.muted[userID]
	return ok
}

func (c *muteCache) AddMutedUser(ctx context.Context, guildID, userID string) error {
	if err := c.repo.AddMutedUser(ctx, guildID, userID); err != nil {
		return err
	}

	g := c.guild(guildID)
	g.mu.Lock()
	g.muted[userID] = struct{}{}
	g.mu.Unlock()

	return nil
}

func (c *muteCache) RemoveMutedUser(ctx context.Context, guildID, userID string) error {
	if err := c.repo.RemoveMutedUser(ctx, guildID, userID); err != nil {
		return err
	}

	g := c.guild(guildID)
	g.mu.Lock()
	delete(g.muted, userID)
	g.mu.Unlock()

	return nil
}

func (c *muteCache) MutedUserIDs(guildID string) []string {
	g := c.guild(guildID)

	g.mu.RLock()
	ids := make([]string, 0, len(g.muted))
	for userID := range g.muted {
		ids = append(ids, userID)
	}
	g.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
