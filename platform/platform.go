// Package platform, bot'un bağlandığı chat platformunun rol/kanal/üye
// API'sini soyutlar.
//
// Gateway interface'i ile platform detayları soyutlanır (Dependency Inversion):
// service katmanı REST client'ın concrete struct'ına değil bu interface'e
// bağımlıdır. Testlerde in-memory fake Gateway kullanılır.
//
// Platform external ve güvenilmezdir: çağrılar başarısız olabilir, gecikebilir
// veya rate-limit'e takılabilir. Yazma çağrıları client tarafında pace edilir.
package platform

import "context"

// Role, platformdaki bir yetki grubunu temsil eder.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Channel, platformdaki bir text kanalını temsil eder.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Member, bir guild üyesini temsil eder.
type Member struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
}

// Gateway, platformun moderasyon için gereken API yüzeyi.
//
// Tüm çağrılar ctx alır — platform çağrıları network I/O'dur ve caller'ın
// iptal/timeout kontrolü olmalıdır.
type Gateway interface {
	// ListRoles, guild'in güncel rol listesini döner.
	ListRoles(ctx context.Context, guildID string) ([]Role, error)

	// CreateRole, guild'de hiçbir yetki verilmemiş yeni bir rol oluşturur.
	CreateRole(ctx context.Context, guildID, name string) (*Role, error)

	// ListTextChannels, guild'in text kanallarını döner.
	ListTextChannels(ctx context.Context, guildID string) ([]Channel, error)

	// SetChannelRoleOverride, kanalda role için send_messages ve attach_files
	// yetkilerini deny'layan permission override uygular.
	SetChannelRoleOverride(ctx context.Context, channelID, roleID string) error

	// AddRoleToMember / RemoveRoleFromMember, üyeye rol atar/kaldırır.
	// İkisi de platform tarafında idempotent'tir.
	AddRoleToMember(ctx context.Context, guildID, userID, roleID string) error
	RemoveRoleFromMember(ctx context.Context, guildID, userID, roleID string) error

	// SetMemberVoiceMuted, üyenin sunucu bazlı voice-mute flag'ini ayarlar.
	SetMemberVoiceMuted(ctx context.Context, guildID, userID string, muted bool) error

	// SendMessage, kanala mesaj gönderir (komut yanıtları için).
	SendMessage(ctx context.Context, channelID, content string) error
}
