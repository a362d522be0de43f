// Package repository — CooldownRepository interface.
//
// Komut cooldown kurallarının kalıcı store işlemleri.
// Aktif cooldown pencereleri (user bazlı sayaçlar) BURADA TUTULMAZ —
// onlar ephemeral'dır ve sadece registry'nin belleğinde yaşar.
package repository

import "context"

// CooldownRepository, cooldown kuralı veritabanı işlemleri için interface.
type CooldownRepository interface {
	// UpsertRule, (guild, command) için kuralı ekler veya günceller.
	// seconds her zaman pozitiftir — 0 için DeleteRule kullanılır.
	UpsertRule(ctx context.Context, guildID, command string, seconds int) error

	// DeleteRule, (guild, command) kuralını siler. Kural yoksa no-op.
	DeleteRule(ctx context.Context, guildID, command string) error
}
