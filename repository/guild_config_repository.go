// Package repository — GuildConfigRepository interface.
//
// Guild moderasyon konfigürasyonunun (mute rol adı + muted user seti)
// kalıcı store işlemleri. In-memory cache'in source of truth'udur:
// cache sadece buradaki yazma başarılı olduktan SONRA güncellenir.
package repository

import (
	"context"

	"github.com/akinalp/bekci/models"
)

// GuildConfigRepository, guild konfigürasyonu veritabanı işlemleri için interface.
type GuildConfigRepository interface {
	// LoadAll, tüm guild'lerin konfigürasyonunu tek seferde döner.
	// Process start'ta bulk hydration için kullanılır — muted user setleri
	// ve cooldown kuralları dahil.
	LoadAll(ctx context.Context) ([]models.GuildConfig, error)

	// UpsertMuteRoleName, guild'in mute rol adını ekler veya günceller.
	UpsertMuteRoleName(ctx context.Context, guildID, name string) error

	// AddMutedUser, kullanıcıyı guild'in muted setine ekler (idempotent).
	AddMutedUser(ctx context.Context, guildID, userID string) error

	// RemoveMutedUser, kullanıcıyı guild'in muted setinden çıkarır (idempotent).
	RemoveMutedUser(ctx context.Context, guildID, userID string) error
}
