// platform/client.go — Gateway interface'inin REST implementasyonu.
//
// Yazma çağrıları (rol oluşturma, overwrite, rol atama, voice flag)
// golang.org/x/time/rate ile pace edilir: platform'un write-rate limitine
// saygı için ardışık yazmalar arasında minimum aralık bırakılır (~200ms).
// Okuma çağrıları (rol/kanal listesi) kısa TTL'li cache'ten servis edilir —
// mute rol çözümlemesi her komutta rol listesi ister, her seferinde
// platform'a gitmek gereksiz yük olur. CreateRole cache'i invalidate eder.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/akinalp/bekci/pkg"
	"github.com/akinalp/bekci/pkg/cache"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// apiEnvelope, platform API'sinin standart yanıt zarfı.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Client, Gateway interface'inin HTTP implementasyonu.
type Client struct {
	apiURL   string
	botToken string
	http     *http.Client

	// writeLimiter, platform yazma çağrılarını pace eder.
	// rate.Limiter thread-safe'dir — tüm goroutine'ler aynı limiter'ı paylaşır.
	writeLimiter *rate.Limiter

	// voiceToken, voice-mute çağrılarına eklenecek LiveKit admin token'ını
	// üretir. nil ise voice çağrıları sadece bot token ile gider.
	voiceToken *VoiceTokenMinter

	// Okuma cache'leri — key: guildID. TTL kısa tutulur (5sn): platform'daki
	// harici rol/kanal değişiklikleri en geç bir TTL sonra görünür.
	roleCache    *cache.TTLCache[string, []Role]
	channelCache *cache.TTLCache[string, []Channel]
}

// NewClient, REST Gateway client'ı oluşturur.
//
// writeInterval: Ardışık yazma çağrıları arasındaki minimum süre.
// voiceToken nil geçilebilir (LiveKit konfigüre edilmemişse).
func NewClient(apiURL, botToken string, writeInterval time.Duration, voiceToken *VoiceTokenMinter) *Client {
	return &Client{
		apiURL:       apiURL,
		botToken:     botToken,
		http:         &http.Client{Timeout: 15 * time.Second},
		writeLimiter: rate.NewLimiter(rate.Every(writeInterval), 1),
		voiceToken:   voiceToken,
		roleCache:    cache.New[string, []Role](5*time.Second, time.Minute),
		channelCache: cache.New[string, []Channel](5*time.Second, time.Minute),
	}
}

// Close, cache cleanup goroutine'lerini durdurur.
func (c *Client) Close() {
	c.roleCache.Close()
	c.channelCache.Close()
}

// ListRoles, guild'in rol listesini döner (cache'li).
func (c *Client) ListRoles(ctx context.Context, guildID string) ([]Role, error) {
	if roles, ok := c.roleCache.Get(guildID); ok {
		return roles, nil
	}

	var roles []Role
	if err := c.get(ctx, fmt.Sprintf("/guilds/%s/roles", guildID), &roles); err != nil {
		return nil, err
	}

	c.roleCache.Set(guildID, roles)
	return roles, nil
}

// CreateRole, guild'de yetkisiz yeni bir rol oluşturur ve rol cache'ini
// invalidate eder — hemen ardından gelen ListRoles güncel listeyi görmelidir.
// Hata durumunda da invalidate edilir: create kısmen işlemiş ya da rol bu
// arada başka bir yerden oluşmuş olabilir, recovery re-list cache'e takılmamalı.
func (c *Client) CreateRole(ctx context.Context, guildID, name string) (*Role, error) {
	body := map[string]any{
		"name":        name,
		"permissions": 0,
	}

	var role Role
	err := c.write(ctx, http.MethodPost, fmt.Sprintf("/guilds/%s/roles", guildID), body, &role)
	c.roleCache.Delete(guildID)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// ListTextChannels, guild'in text kanallarını döner (cache'li).
func (c *Client) ListTextChannels(ctx context.Context, guildID string) ([]Channel, error) {
	if channels, ok := c.channelCache.Get(guildID); ok {
		return channels, nil
	}

	var channels []Channel
	if err := c.get(ctx, fmt.Sprintf("/guilds/%s/channels?type=text", guildID), &channels); err != nil {
		return nil, err
	}

	c.channelCache.Set(guildID, channels)
	return channels, nil
}

// SetChannelRoleOverride, kanalda role için send_messages + attach_files
// deny'layan override uygular. Çağrı idempotent'tir — aynı override'ı
// tekrar uygulamak platform tarafında no-op'tur.
func (c *Client) SetChannelRoleOverride(ctx context.Context, channelID, roleID string) error {
	body := map[string]any{
		"deny": []string{"send_messages", "attach_files"},
	}
	path := fmt.Sprintf("/channels/%s/permissions/%s", channelID, roleID)
	return c.write(ctx, http.MethodPut, path, body, nil)
}

// AddRoleToMember, üyeye rol atar.
func (c *Client) AddRoleToMember(ctx context.Context, guildID, userID, roleID string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID)
	return c.write(ctx, http.MethodPut, path, nil, nil)
}

// RemoveRoleFromMember, üyeden rol kaldırır.
func (c *Client) RemoveRoleFromMember(ctx context.Context, guildID, userID, roleID string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID)
	return c.write(ctx, http.MethodDelete, path, nil, nil)
}

// SetMemberVoiceMuted, üyenin voice-mute flag'ini ayarlar.
//
// Platform'un ses altyapısı LiveKit olduğundan, çağrıya RoomAdmin grant'lı
// bir LiveKit token eklenir — platform bu token'ı SFU'ya iletir.
func (c *Client) SetMemberVoiceMuted(ctx context.Context, guildID, userID string, muted bool) error {
	body := map[string]any{
		"muted": muted,
	}

	if c.voiceToken != nil {
		token, err := c.voiceToken.AdminToken(guildID)
		if err != nil {
			return fmt.Errorf("%w: failed to mint voice admin token: %v", pkg.ErrExternal, err)
		}
		body["voice_token"] = token
	}

	path := fmt.Sprintf("/guilds/%s/members/%s/voice", guildID, userID)
	return c.write(ctx, http.MethodPatch, path, body, nil)
}

// SendMessage, kanala mesaj gönderir.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) error {
	body := map[string]any{
		"content": content,
	}
	return c.write(ctx, http.MethodPost, fmt.Sprintf("/channels/%s/messages", channelID), body, nil)
}

// ─── HTTP helpers ───

// get, pace edilmeden GET çağrısı yapar (okumalar rate limit'e takılmaz).
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// write, yazma çağrısını pace edip gönderir.
// Wait, limiter'dan token alınana kadar bloklar — ctx iptal edilirse hata döner.
func (c *Client) write(ctx context.Context, method, path string, body, out any) error {
	if err := c.writeLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter wait: %v", pkg.ErrExternal, err)
	}
	return c.do(ctx, method, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bot "+c.botToken)
	req.Header.Set("Content-Type", "application/json")
	// Request ID — platform loglarında çağrı takibi için.
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", pkg.ErrExternal, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", pkg.ErrExternal, err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%w: invalid response (%s %s, status %d)", pkg.ErrExternal, method, path, resp.StatusCode)
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("%w: %s %s: %s", pkg.ErrExternal, method, path, msg)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: failed to decode response data: %v", pkg.ErrExternal, err)
		}
	}

	return nil
}
