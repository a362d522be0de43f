package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/bekci/database"
	"github.com/akinalp/bekci/models"
)

// sqliteGuildConfigRepo, GuildConfigRepository interface'inin SQLite implementasyonu.
type sqliteGuildConfigRepo struct {
	db database.TxQuerier
}

// NewSQLiteGuildConfigRepo, constructor — interface döner.
// TxQuerier sayesinde hem *sql.DB hem WithTx içindeki *sql.Tx geçilebilir.
func NewSQLiteGuildConfigRepo(db database.TxQuerier) GuildConfigRepository {
	return &sqliteGuildConfigRepo{db: db}
}

// LoadAll, üç tabloyu okuyup guild bazında birleştirir.
//
// Guild satırı guild_configs'te olmasa bile muted_users veya
// command_cooldowns'ta kaydı varsa sonuçta görünür — hydration sonrası
// in-memory map'ler persisted state ile birebir aynı olmalıdır.
func (r *sqliteGuildConfigRepo) LoadAll(ctx context.Context) ([]models.GuildConfig, error) {
	byGuild := make(map[string]*models.GuildConfig)

	get := func(guildID string) *models.GuildConfig {
		if cfg, ok := byGuild[guildID]; ok {
			return cfg
		}
		cfg := &models.GuildConfig{GuildID: guildID}
		byGuild[guildID] = cfg
		return cfg
	}

	rows, err := r.db.QueryContext(ctx, `SELECT guild_id, mute_role_name FROM guild_configs`)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild configs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var guildID string
		var roleName *string
		if err := rows.Scan(&guildID, &roleName); err != nil {
			return nil, fmt.Errorf("failed to scan guild config: %w", err)
		}
		get(guildID).MuteRoleName = roleName
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guild configs: %w", err)
	}

	mutedRows, err := r.db.QueryContext(ctx, `SELECT guild_id, user_id FROM muted_users`)
	if err != nil {
		return nil, fmt.Errorf("failed to load muted users: %w", err)
	}
	defer mutedRows.Close()
	for mutedRows.Next() {
		var guildID, userID string
		if err := mutedRows.Scan(&guildID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan muted user: %w", err)
		}
		cfg := get(guildID)
		cfg.MutedUserIDs = append(cfg.MutedUserIDs, userID)
	}
	if err := mutedRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate muted users: %w", err)
	}

	cdRows, err := r.db.QueryContext(ctx, `SELECT guild_id, command, seconds FROM command_cooldowns`)
	if err != nil {
		return nil, fmt.Errorf("failed to load command cooldowns: %w", err)
	}
	defer cdRows.Close()
	for cdRows.Next() {
		var guildID string
		var rule models.CooldownRule
		if err := cdRows.Scan(&guildID, &rule.Command, &rule.Seconds); err != nil {
			return nil, fmt.Errorf("failed to scan cooldown rule: %w", err)
		}
		cfg := get(guildID)
		cfg.CooldownRules = append(cfg.CooldownRules, rule)
	}
	if err := cdRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cooldown rules: %w", err)
	}

	configs := make([]models.GuildConfig, 0, len(byGuild))
	for _, cfg := range byGuild {
		configs = append(configs, *cfg)
	}
	return configs, nil
}

// UpsertMuteRoleName, guild'in mute rol adını ekler veya günceller.
//
// INSERT ... ON CONFLICT pattern — PK (guild_id) çakışırsa güncellenir.
func (r *sqliteGuildConfigRepo) UpsertMuteRoleName(ctx context.Context, guildID, name string) error {
	query := `
		INSERT INTO guild_configs (guild_id, mute_role_name)
		VALUES (?, ?)
		ON CONFLICT(guild_id)
		DO UPDATE SET mute_role_name = excluded.mute_role_name,
		              updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, guildID, name); err != nil {
		return fmt.Errorf("failed to upsert mute role name: %w", err)
	}
	return nil
}

// AddMutedUser, kullanıcıyı muted setine ekler.
// INSERT OR IGNORE — kullanıcı zaten set'teyse no-op (idempotent retry için).
func (r *sqliteGuildConfigRepo) AddMutedUser(ctx context.Context, guildID, userID string) error {
	query := `INSERT OR IGNORE INTO muted_users (guild_id, user_id) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("failed to add muted user: %w", err)
	}
	return nil
}

// RemoveMutedUser, kullanıcıyı muted setinden çıkarır.
func (r *sqliteGuildConfigRepo) RemoveMutedUser(ctx context.Context, guildID, userID string) error {
	query := `DELETE FROM muted_users WHERE guild_id = ? AND user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("failed to remove muted user: %w", err)
	}
	return nil
}
