// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config struct'ı tüm ayarları tek bir yerde toplar, böylece
// her yerde ayrı ayrı os.Getenv() çağırmak yerine tek bir Config nesnesi taşırız.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her biri tek bir concern'ü temsil eder.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Platform PlatformConfig
	LiveKit  LiveKitConfig
	Email    EmailConfig

	// Language, komut yanıtlarının dili (en/tr). Desteklenmeyen bir değer
	// verilirse i18n katmanı varsayılana düşer.
	Language string
}

// ServerConfig, operator HTTP API ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/bekci.db)
}

// JWTConfig, operator API token ayarları.
type JWTConfig struct {
	Secret       string // Token imzalama anahtarı — GİZLİ TUTULMALI
	ExpiryHours  int    // Operator token ömrü, saat cinsinden (varsayılan: 12)
	OperatorHash string // Operator şifresinin bcrypt hash'i
}

// PlatformConfig, bot'un bağlandığı chat platformu ayarları.
//
// APIURL: REST yazma/okuma endpoint'lerinin base URL'i.
// GatewayURL: Event stream'in WebSocket URL'i (member_joined, message_create).
// BotToken: Platform'un bot hesabı token'ı — her REST çağrısında header'a eklenir.
// CommandPrefix: Komut mesajlarının prefix'i (varsayılan: "!").
// WriteRPS: Platform yazma çağrılarının saniye başına limiti. Platform'un
// write-rate limitine saygı için ~5 rps (200ms aralık) varsayılır.
type PlatformConfig struct {
	APIURL        string
	GatewayURL    string
	BotToken      string
	CommandPrefix string
	WriteRPS      float64
}

// LiveKitConfig, platform'un ses altyapısı (LiveKit SFU) ayarları.
// Voice mute çağrıları LiveKit admin token'ı ile yetkilendirilir.
type LiveKitConfig struct {
	URL       string
	APIKey    string
	APISecret string
}

// EmailConfig, operator alert mail ayarları (opsiyonel).
// ResendAPIKey boşsa alert mail gönderimi devre dışı kalır.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	OperatorTo   string
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env dosyasını yükle — dosya yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9091"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	expiryHours, err := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	writeRPS, err := strconv.ParseFloat(getEnv("PLATFORM_WRITE_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_WRITE_RPS: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	botToken := getEnv("PLATFORM_BOT_TOKEN", "")
	if botToken == "" {
		return nil, fmt.Errorf("PLATFORM_BOT_TOKEN environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/bekci.db"),
		},
		JWT: JWTConfig{
			Secret:       jwtSecret,
			ExpiryHours:  expiryHours,
			OperatorHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		},
		Platform: PlatformConfig{
			APIURL:        getEnv("PLATFORM_API_URL", "http://localhost:9090/api"),
			GatewayURL:    getEnv("PLATFORM_GATEWAY_URL", "ws://localhost:9090/gateway"),
			BotToken:      botToken,
			CommandPrefix: getEnv("COMMAND_PREFIX", "!"),
			WriteRPS:      writeRPS,
		},
		LiveKit: LiveKitConfig{
			URL:       getEnv("LIVEKIT_URL", "ws://localhost:7880"),
			APIKey:    getEnv("LIVEKIT_API_KEY", ""),
			APISecret: getEnv("LIVEKIT_API_SECRET", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM", ""),
			OperatorTo:   getEnv("OPERATOR_EMAIL", ""),
		},
		Language: getEnv("BOT_LANGUAGE", "en"),
	}

	return cfg, nil
}

// Addr, operator API'nin dinleyeceği adresi döner (ör: "0.0.0.0:9091").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WriteInterval, ardışık platform yazma çağrıları arasındaki minimum süre.
func (c *PlatformConfig) WriteInterval() time.Duration {
	if c.WriteRPS <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(float64(time.Second) / c.WriteRPS)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
