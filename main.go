// Package main, bekci moderasyon bot'unun giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat
//  3. i18n çevirilerini yükle
//  4. Repository'leri oluştur (DB bağlantısı ile)
//  5. Service'leri oluştur ve kalıcı state'i hydrate et
//  6. Event bus subscriber'larını bağla
//  7. Komut router'ını kur
//  8. Gateway socket'i başlat (event stream)
//  9. Operator HTTP API'yi kur (CORS + JWT)
//  10. Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/bekci/bus"
	"github.com/akinalp/bekci/commands"
	"github.com/akinalp/bekci/config"
	"github.com/akinalp/bekci/database"
	"github.com/akinalp/bekci/handlers"
	"github.com/akinalp/bekci/middleware"
	"github.com/akinalp/bekci/models"
	"github.com/akinalp/bekci/pkg/email"
	"github.com/akinalp/bekci/pkg/i18n"
	"github.com/akinalp/bekci/pkg/ratelimit"
	"github.com/akinalp/bekci/platform"
	"github.com/akinalp/bekci/repository"
	"github.com/akinalp/bekci/services"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] bekci starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d prefix=%q)", cfg.Server.Port, cfg.Platform.CommandPrefix)

	// ─── 2. Database ───
	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. i18n (Çoklu Dil Desteği) ───
	localesFS, err := fs.Sub(i18n.EmbeddedLocales, "locales")
	if err != nil {
		log.Fatalf("[main] failed to open embedded locales: %v", err)
	}
	if err := i18n.Load(localesFS); err != nil {
		log.Fatalf("[main] failed to load i18n translations: %v", err)
	}
	localizer := i18n.NewLocalizer(cfg.Language)

	// ─── 4. Repository Layer ───
	guildConfigRepo := repository.NewSQLiteGuildConfigRepo(db.Conn)
	cooldownRepo := repository.NewSQLiteCooldownRepo(db.Conn)

	// ─── 5. Platform Gateway + Service Layer ───
	voiceToken := platform.NewVoiceTokenMinter(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret)
	gateway := platform.NewClient(cfg.Platform.APIURL, cfg.Platform.BotToken, cfg.Platform.WriteInterval(), voiceToken)

	// Operator alert mail — Resend konfigüre edilmemişse devre dışı.
	var alerts email.AlertSender
	if cfg.Email.ResendAPIKey != "" {
		alerts = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.OperatorTo)
	}

	muteBus := bus.NewMuteBus()
	muteCache := services.NewMuteCache(guildConfigRepo)
	cooldownService := services.NewCooldownService(cooldownRepo)
	muteService := services.NewMuteService(muteCache, gateway, muteBus, alerts)
	opsAuthService := services.NewOpsAuthService(
		cfg.JWT.OperatorHash,
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
	)

	// Kalıcı state'i yükle — roster tek bulk query ile gelir, cooldown
	// kuralları aynı sonuçtan hydrate edilir. Startup'tan sonra DB'den
	// okuma yapılmaz, tüm okumalar in-memory cache'ten döner.
	hydrateCtx, hydrateCancel := context.WithTimeout(context.Background(), 15*time.Second)
	configs, err := muteCache.LoadAll(hydrateCtx)
	hydrateCancel()
	if err != nil {
		log.Fatalf("[main] failed to hydrate guild state: %v", err)
	}
	cooldownService.Hydrate(configs)

	// ─── 6. Event Bus Subscribers ───
	// Mute/unmute event'leri şimdilik audit log'a yazılır. Yeni subscriber
	// eklemek wire-up'a bir satır: muteBus.OnMuted(...).
	muteBus.OnMuted(func(event models.MuteEvent) {
		log.Printf("[audit] muted: guild=%s user=%s scope=%s", event.GuildID, event.UserID, event.Scope)
	})
	muteBus.OnUnmuted(func(event models.MuteEvent) {
		log.Printf("[audit] unmuted: guild=%s user=%s scope=%s", event.GuildID, event.UserID, event.Scope)
	})

	// ─── 7. Komut Router ───
	router := commands.NewRouter(cfg.Platform.CommandPrefix, cooldownService, gateway, localizer)
	commands.NewModerationCommands(muteService, muteCache, localizer).Register(router)
	commands.NewCooldownCommands(cooldownService, localizer).Register(router)

	// ─── 8. Gateway Socket ───
	socket := platform.NewSocket(cfg.Platform.GatewayURL, cfg.Platform.BotToken)
	socket.OnMemberJoined(func(data platform.MemberJoinedData) {
		muteService.OnMemberJoined(data.GuildID, data.UserID)
	})
	socket.OnMessage(func(data platform.MessageCreateData) {
		router.HandleMessage(data.GuildID, data.ChannelID, data.AuthorID, data.Content)
	})

	socketCtx, socketCancel := context.WithCancel(context.Background())
	go socket.Run(socketCtx)

	// ─── 9. Operator HTTP API ───
	loginLimiter := ratelimit.NewLoginRateLimiter(5, 2*time.Minute)
	opsHandler := handlers.NewOpsHandler(opsAuthService, muteCache, cooldownService, loginLimiter)
	authMiddleware := middleware.NewAuthMiddleware(opsAuthService)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", opsHandler.Health)
	mux.HandleFunc("POST /api/auth/login", opsHandler.Login)
	mux.Handle("GET /api/guilds/{guildId}/mutes", authMiddleware.Require(http.HandlerFunc(opsHandler.GuildMutes)))
	mux.Handle("GET /api/guilds/{guildId}/cooldowns", authMiddleware.Require(http.HandlerFunc(opsHandler.GuildCooldowns)))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 10. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] operator API listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce gateway socket'i kapat — yeni event gelmesin.
	// Sonra HTTP server'ı kapat — mevcut request'lerin bitmesini bekler.
	socketCancel()
	loginLimiter.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] stopped gracefully")
}
