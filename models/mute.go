// Package models — Mute event tipleri.
//
// MuteScope, bir mute/unmute geçişinin hangi etkiyi kapsadığını söyler:
// All (voice flag + rol + kalıcı roster), Chat (sadece rol),
// Voice (sadece voice flag). Scoped varyantlar roster'a dokunmaz —
// roster tanım gereği "voice+rol full mute" takibidir.
package models

// MuteScope, mute işleminin kapsamı.
type MuteScope string

const (
	MuteScopeAll   MuteScope = "all"
	MuteScopeChat  MuteScope = "chat"
	MuteScopeVoice MuteScope = "voice"
)

// MuteEvent, bir mute/unmute geçişini temsil eder.
// Bus üzerinden, ilgili persistence yazması başarılı olduktan sonra yayınlanır.
type MuteEvent struct {
	GuildID string    `json:"guild_id"`
	UserID  string    `json:"user_id"`
	Scope   MuteScope `json:"scope"`
}
