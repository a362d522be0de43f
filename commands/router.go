// Package commands, gateway'den gelen mesajları bot komutlarına çevirir.
//
// Akış: message_create event → prefix kontrolü → komut adı çözümleme →
// cooldown kapısı → handler dispatch. Cooldown'a takılan çağrılar SESSİZCE
// düşürülür — kanala uyarı yazmak spam'i büyütür, sadece loglanır.
package commands

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/akinalp/bekci/pkg/i18n"
	"github.com/akinalp/bekci/platform"
	"github.com/akinalp/bekci/services"
)

// Message, bir komut çağrısının geldiği mesajın bağlamı.
type Message struct {
	GuildID   string
	ChannelID string
	AuthorID  string
}

// HandlerFunc, tek bir komutu işler. args, komut adından sonraki token'lardır.
type HandlerFunc func(ctx context.Context, msg Message, args []string)

// Router, komut adlarını handler'lara eşler ve cooldown kapısını uygular.
type Router struct {
	prefix    string
	cooldowns services.CooldownService
	gateway   platform.Gateway
	loc       *i18n.Localizer
	handlers  map[string]HandlerFunc
}

// NewRouter, boş bir komut router'ı oluşturur. Komutlar Register ile eklenir.
func NewRouter(prefix string, cooldowns services.CooldownService, gateway platform.Gateway, loc *i18n.Localizer) *Router {
	return &Router{
		prefix:    prefix,
		cooldowns: cooldowns,
		gateway:   gateway,
		loc:       loc,
		handlers:  make(map[string]HandlerFunc),
	}
}

// Register, bir komut adını handler'a bağlar. Adlar lowercase saklanır;
// dispatch'te de lowercase karşılaştırılır. Startup'ta çağrılır,
// sonrasında map sadece okunur — ayrıca kilit gerekmez.
func (r *Router) Register(name string, handler HandlerFunc) {
	r.handlers[strings.ToLower(name)] = handler
}

// HandleMessage, gateway'in message_create callback'inden çağrılır.
// Komut olmayan mesajlar sessizce yoksayılır.
func (r *Router) HandleMessage(guildID, channelID, authorID, content string) {
	body, ok := strings.CutPrefix(content, r.prefix)
	if !ok {
		return
	}

	fields := strings.Fields(body)
	if len(fields) == 0 {
		return
	}

	name := strings.ToLower(fields[0])
	handler, ok := r.handlers[name]
	if !ok {
		return
	}

	// Cooldown kapısı — yalnızca tanınan komutlar için. Kapı, komut henüz
	// çalışmadan pencereyi başlatır: komut hata verse bile pencere işler.
	if r.cooldowns.IsOnCooldown(guildID, name, authorID) {
		log.Printf("[commands] dropped %s from user %s in guild %s (on cooldown)", name, authorID, guildID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	handler(ctx, Message{GuildID: guildID, ChannelID: channelID, AuthorID: authorID}, fields[1:])
}

// reply, komut yanıtını kanala yazar. Gönderim hatası komutun sonucunu
// değiştirmez, sadece loglanır.
func (r *Router) reply(ctx context.Context, channelID, text string) {
	if err := r.gateway.SendMessage(ctx, channelID, text); err != nil {
		log.Printf("[commands] failed to send reply to channel %s: %v", channelID, err)
	}
}

// parseUserArg, komut argümanındaki kullanıcı referansını ID'ye çevirir.
// Hem çıplak ID hem de <@id> mention formatı kabul edilir.
func parseUserArg(arg string) string {
	arg = strings.TrimPrefix(arg, "<@")
	arg = strings.TrimSuffix(arg, ">")
	return strings.TrimSpace(arg)
}
