// Package models — CooldownRule domain modeli.
package models

import "fmt"

// MaxCooldownSeconds, bir komut cooldown'unun alabileceği üst sınır (1 saat).
const MaxCooldownSeconds = 3600

// CooldownRule, bir guild'de bir komut için konfigüre edilmiş cooldown süresi.
// (guild, command) başına en fazla bir kural vardır. Seconds her zaman
// pozitiftir — 0 saniyelik kural "kural yok" demektir ve kayıt tutulmaz.
type CooldownRule struct {
	Command string `json:"command"`
	Seconds int    `json:"seconds"`
}

// ValidateCooldownSeconds, cooldown süresinin [0, MaxCooldownSeconds]
// aralığında olduğunu kontrol eder. 0 geçerlidir — kuralı siler.
func ValidateCooldownSeconds(seconds int) error {
	if seconds < 0 || seconds > MaxCooldownSeconds {
		return fmt.Errorf("cooldown seconds must be between 0 and %d", MaxCooldownSeconds)
	}
	return nil
}
