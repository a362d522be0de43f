// platform/voice.go — LiveKit admin token üretimi.
//
// Platform'un ses altyapısı LiveKit SFU'dur. Voice-mute çağrıları,
// bot'un SFU üzerinde admin yetkisi olduğunu kanıtlayan kısa ömürlü bir
// JWT taşır. Token API key + secret ile imzalanır; LiveKit doğrular ve
// grant'lara göre izin verir.
package platform

import (
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"
)

// VoiceTokenMinter, guild bazlı LiveKit admin token'ları üretir.
type VoiceTokenMinter struct {
	apiKey    string
	apiSecret string
}

// NewVoiceTokenMinter, constructor. Key veya secret boşsa nil döner —
// caller nil minter'ı "voice token yok" olarak yorumlar.
func NewVoiceTokenMinter(apiKey, apiSecret string) *VoiceTokenMinter {
	if apiKey == "" || apiSecret == "" {
		return nil
	}
	return &VoiceTokenMinter{apiKey: apiKey, apiSecret: apiSecret}
}

// AdminToken, verilen guild'in voice room'ları için RoomAdmin grant'lı
// kısa ömürlü bir token üretir.
func (m *VoiceTokenMinter) AdminToken(guildID string) (string, error) {
	at := auth.NewAccessToken(m.apiKey, m.apiSecret)

	grant := &auth.VideoGrant{
		RoomAdmin: true,
		Room:      guildID,
	}

	at.AddGrant(grant).
		SetIdentity("bekci-bot").
		SetValidFor(time.Minute) // Tek çağrı için yeter — uzun validite gereksiz risk

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("failed to generate livekit token: %w", err)
	}
	return token, nil
}
