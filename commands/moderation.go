package commands

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/akinalp/bekci/pkg"
	"github.com/akinalp/bekci/pkg/i18n"
	"github.com/akinalp/bekci/services"
)

// ModerationCommands, mute/unmute komut ailesini ve mute rolü ayarını sağlar.
type ModerationCommands struct {
	mutes services.MuteService
	cache services.MuteCache
	loc   *i18n.Localizer
}

// NewModerationCommands, moderasyon komutlarını oluşturur.
func NewModerationCommands(mutes services.MuteService, cache services.MuteCache, loc *i18n.Localizer) *ModerationCommands {
	return &ModerationCommands{mutes: mutes, cache: cache, loc: loc}
}

// Register, moderasyon komutlarını router'a bağlar.
func (m *ModerationCommands) Register(r *Router) {
	r.Register("mute", m.muteHandler(r, m.mutes.MuteUser, "mute.applied"))
	r.Register("unmute", m.muteHandler(r, m.mutes.UnmuteUser, "mute.removed"))
	r.Register("chatmute", m.muteHandler(r, m.mutes.ChatMute, "mute.chatApplied"))
	r.Register("chatunmute", m.muteHandler(r, m.mutes.ChatUnmute, "mute.chatRemoved"))
	r.Register("voicemute", m.muteHandler(r, m.mutes.VoiceMute, "mute.voiceApplied"))
	r.Register("voiceunmute", m.muteHandler(r, m.mutes.VoiceUnmute, "mute.voiceRemoved"))
	r.Register("setmuterole", m.setMuteRole(r))
}

// muteHandler, altı mute varyantının ortak iskeleti: kullanıcı argümanını
// çözer, servise delege eder, sonucu kanala yazar.
func (m *ModerationCommands) muteHandler(r *Router, apply func(ctx context.Context, guildID, userID string) error, successKey string) HandlerFunc {
	return func(ctx context.Context, msg Message, args []string) {
		if len(args) == 0 {
			r.reply(ctx, msg.ChannelID, m.loc.T("command.missingUser"))
			return
		}

		userID := parseUserArg(args[0])
		if userID == "" {
			r.reply(ctx, msg.ChannelID, m.loc.T("command.missingUser"))
			return
		}

		if err := apply(ctx, msg.GuildID, userID); err != nil {
			log.Printf("[commands] mute operation failed (guild=%s user=%s): %v", msg.GuildID, userID, err)
			r.reply(ctx, msg.ChannelID, m.loc.T("mute.failed"))
			return
		}

		r.reply(ctx, msg.ChannelID, m.loc.TWithParams(successKey, map[string]string{"user": args[0]}))
	}
}

func (m *ModerationCommands) setMuteRole(r *Router) HandlerFunc {
	return func(ctx context.Context, msg Message, args []string) {
		if len(args) == 0 {
			r.reply(ctx, msg.ChannelID, m.loc.TWithParams("command.missingArgs", map[string]string{"command": "setmuterole"}))
			return
		}

		// Rol adı birden fazla kelime olabilir — kalan argümanların tamamı addır.
		name := strings.Join(args, " ")
		if err := m.cache.SetMuteRoleName(ctx, msg.GuildID, name); err != nil {
			if errors.Is(err, pkg.ErrBadRequest) {
				r.reply(ctx, msg.ChannelID, m.loc.T("mute.roleInvalid"))
				return
			}
			log.Printf("[commands] failed to set mute role name (guild=%s): %v", msg.GuildID, err)
			r.reply(ctx, msg.ChannelID, m.loc.T("mute.failed"))
			return
		}

		r.reply(ctx, msg.ChannelID, m.loc.TWithParams("mute.roleSet", map[string]string{"role": name}))
	}
}
