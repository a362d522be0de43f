package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/akinalp/bekci/models"
	"github.com/akinalp/bekci/pkg"
	"github.com/akinalp/bekci/pkg/i18n"
	"github.com/akinalp/bekci/services"
)

// CooldownCommands, cooldown kurallarını yöneten komutları sağlar.
//
// cmdcooldown <komut> <saniye> — kural ayarlar; 0 saniye kuralı siler.
// cmdcooldowns — guild'in aktif kurallarını listeler.
type CooldownCommands struct {
	cooldowns services.CooldownService
	loc       *i18n.Localizer
}

// NewCooldownCommands, cooldown komutlarını oluşturur.
func NewCooldownCommands(cooldowns services.CooldownService, loc *i18n.Localizer) *CooldownCommands {
	return &CooldownCommands{cooldowns: cooldowns, loc: loc}
}

// Register, cooldown komutlarını router'a bağlar.
func (c *CooldownCommands) Register(r *Router) {
	r.Register("cmdcooldown", c.setCooldown(r))
	r.Register("cmdcooldowns", c.listCooldowns(r))
}

func (c *CooldownCommands) setCooldown(r *Router) HandlerFunc {
	return func(ctx context.Context, msg Message, args []string) {
		if len(args) < 2 {
			r.reply(ctx, msg.ChannelID, c.loc.TWithParams("command.missingArgs", map[string]string{"command": "cmdcooldown"}))
			return
		}

		command := args[0]
		seconds, err := strconv.Atoi(args[1])
		if err != nil {
			r.reply(ctx, msg.ChannelID, c.loc.TWithParams("cooldown.invalid", map[string]string{"max": strconv.Itoa(models.MaxCooldownSeconds)}))
			return
		}

		rule, err := c.cooldowns.SetRule(ctx, msg.GuildID, command, seconds)
		if err != nil {
			if errors.Is(err, pkg.ErrBadRequest) {
				r.reply(ctx, msg.ChannelID, c.loc.TWithParams("cooldown.invalid", map[string]string{"max": strconv.Itoa(models.MaxCooldownSeconds)}))
				return
			}
			log.Printf("[commands] failed to set cooldown rule (guild=%s command=%s): %v", msg.GuildID, command, err)
			r.reply(ctx, msg.ChannelID, c.loc.T("cooldown.failed"))
			return
		}

		if rule == nil {
			r.reply(ctx, msg.ChannelID, c.loc.TWithParams("cooldown.cleared", map[string]string{"command": strings.ToLower(command)}))
			return
		}

		r.reply(ctx, msg.ChannelID, c.loc.TWithParams("cooldown.set", map[string]string{
			"command": rule.Command,
			"seconds": strconv.Itoa(rule.Seconds),
		}))
	}
}

func (c *CooldownCommands) listCooldowns(r *Router) HandlerFunc {
	return func(ctx context.Context, msg Message, args []string) {
		rules := c.cooldowns.ListRules(msg.GuildID)
		if len(rules) == 0 {
			r.reply(ctx, msg.ChannelID, c.loc.T("cooldown.none"))
			return
		}

		var sb strings.Builder
		sb.WriteString(c.loc.T("cooldown.listHeader"))
		for _, rule := range rules {
			sb.WriteString(fmt.Sprintf("\n%s: %ds", rule.Command, rule.Seconds))
		}

		r.reply(ctx, msg.ChannelID, sb.String())
	}
}
