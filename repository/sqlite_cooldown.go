package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/bekci/database"
)

// sqliteCooldownRepo, CooldownRepository interface'inin SQLite implementasyonu.
type sqliteCooldownRepo struct {
	db database.TxQuerier
}

// NewSQLiteCooldownRepo, constructor — interface döner.
func NewSQLiteCooldownRepo(db database.TxQuerier) CooldownRepository {
	return &sqliteCooldownRepo{db: db}
}

// UpsertRule, (guild, command) kuralını ekler veya günceller.
func (r *sqliteCooldownRepo) UpsertRule(ctx context.Context, guildID, command string, seconds int) error {
	query := `
		INSERT INTO command_cooldowns (guild_id, command, seconds)
		VALUES (?, ?, ?)
		ON CONFLICT(guild_id, command)
		DO UPDATE SET seconds = excluded.seconds,
		              created_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, guildID, command, seconds); err != nil {
		return fmt.Errorf("failed to upsert cooldown rule: %w", err)
	}
	return nil
}

// DeleteRule, (guild, command) kuralını siler.
func (r *sqliteCooldownRepo) DeleteRule(ctx context.Context, guildID, command string) error {
	query := `DELETE FROM command_cooldowns WHERE guild_id = ? AND command = ?`
	if _, err := r.db.ExecContext(ctx, query, guildID, command); err != nil {
		return fmt.Errorf("failed to delete cooldown rule: %w", err)
	}
	return nil
}
