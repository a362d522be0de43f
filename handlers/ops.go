// Package handlers, operator HTTP API'sinin request/response işlemlerini yönetir.
//
// Handler'ın görevi çok basit ve "ince" (thin) olmalı:
// 1. Request body'yi parse et (JSON → struct)
// 2. Service katmanını çağır
// 3. Sonucu HTTP response olarak döndür
//
// Handler ASLA iş mantığı (business logic) içermez.
// Handler ASLA doğrudan DB'ye erişmez.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akinalp/bekci/models"
	"github.com/akinalp/bekci/pkg"
	"github.com/akinalp/bekci/pkg/i18n"
	"github.com/akinalp/bekci/pkg/ratelimit"
	"github.com/akinalp/bekci/services"
)

// OpsHandler, operator API endpoint'lerini yöneten struct.
// Bot'un in-memory state'ine read-only pencere açar; yazma işlemleri
// yalnızca komutlarla yapılır.
type OpsHandler struct {
	authService  services.OpsAuthService
	muteCache    services.MuteCache
	cooldowns    services.CooldownService
	loginLimiter *ratelimit.LoginRateLimiter
}

// NewOpsHandler, constructor.
// loginLimiter: Login brute-force koruması. nil ise rate limiting devre dışı kalır.
func NewOpsHandler(
	authService services.OpsAuthService,
	muteCache services.MuteCache,
	cooldowns services.CooldownService,
	loginLimiter *ratelimit.LoginRateLimiter,
) *OpsHandler {
	return &OpsHandler{
		authService:  authService,
		muteCache:    muteCache,
		cooldowns:    cooldowns,
		loginLimiter: loginLimiter,
	}
}

// Login godoc
// POST /api/auth/login
//
// Rate limiting: IP bazlı brute-force koruması.
// Limit aşıldığında 429 Too Many Requests döner; başarılı login sayacı sıfırlar.
func (h *OpsHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many login attempts, please try again in %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.OperatorLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.authService.Login(req.Password)
	if err != nil {
		loc := i18n.NewLocalizer(i18n.DetectLanguage(r.Header.Get("Accept-Language")))
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, loc.T("auth.invalidCredentials"))
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, token)
}

// GuildMutes godoc
// GET /api/guilds/{guildId}/mutes
// Guild'in kalıcı mute roster'ını döner.
func (h *OpsHandler) GuildMutes(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	if guildID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "guildId is required")
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]any{
		"guild_id":       guildID,
		"mute_role_name": h.muteCache.GetMuteRoleName(guildID),
		"muted_user_ids": h.muteCache.MutedUserIDs(guildID),
	})
}

// GuildCooldowns godoc
// GET /api/guilds/{guildId}/cooldowns
// Guild'in konfigüre edilmiş cooldown kurallarını döner.
func (h *OpsHandler) GuildCooldowns(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	if guildID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "guildId is required")
		return
	}

	rules := h.cooldowns.ListRules(guildID)

	pkg.JSON(w, http.StatusOK, map[string]any{
		"guild_id":  guildID,
		"cooldowns": rules,
	})
}

// Health godoc
// GET /api/health
// Auth gerektirmez — load balancer / uptime monitor için.
func (h *OpsHandler) Health(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
