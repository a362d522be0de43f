// Package models — GuildConfig domain modeli.
//
// GuildConfig, bir guild'in kalıcı moderasyon konfigürasyonudur:
// mute rolünün adı, full-mute uygulanan kullanıcı seti ve komut cooldown
// kuralları. Process start'ta toplu olarak yüklenir (bulk hydration),
// sonrasında in-memory cache DB ile senkron tutulur.
package models

import (
	"fmt"
	"strings"
)

// DefaultMuteRoleName, guild'de mute rol adı konfigüre edilmemişse
// kullanılan varsayılan rol adıdır.
const DefaultMuteRoleName = "bekci-mute"

// GuildConfig, bir guild'in kalıcı moderasyon state'ini temsil eder.
// MuteRoleName nil ise DefaultMuteRoleName geçerlidir.
type GuildConfig struct {
	GuildID       string         `json:"guild_id"`
	MuteRoleName  *string        `json:"mute_role_name"`
	MutedUserIDs  []string       `json:"muted_user_ids"`
	CooldownRules []CooldownRule `json:"cooldown_rules"`
}

// SetMuteRoleRequest, mute rol adı değiştirme isteği.
type SetMuteRoleRequest struct {
	Name string `json:"name"`
}

// Validate, rol adını trim'ler ve boş olmadığını kontrol eder.
// Geçerliyse trim'lenmiş adı döner — caller bu değeri kullanmalıdır.
func (r *SetMuteRoleRequest) Validate() (string, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return "", fmt.Errorf("mute role name must not be empty")
	}
	return name, nil
}
