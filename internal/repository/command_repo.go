package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"iothub/internal/models"
)

type CommandSQLite struct {
	db *sql.DB
}

func NewCommandSQLite(db *sql.DB) *CommandSQLite { return &CommandSQLite{db: db} }

var _ CommandRepo = (*CommandSQLite)(nil)

const insertCommandSQL = `
	INSERT INTO control_commands (id, ts, command_type, command_value, device_id)
	VALUES (?, ?, ?, ?, ?)
`

// Append inserts one command record. Missing ID or IssuedAt are filled in.
func (r *CommandSQLite) Append(ctx context.Context, rec models.CommandRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.IssuedAt.IsZero() {
		rec.IssuedAt = time.Now().UTC()
	} else {
		rec.IssuedAt = rec.IssuedAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertCommandSQL,
		rec.ID,
		rec.IssuedAt,
		rec.CommandType,
		rec.Value,
		rec.DeviceID,
	)
	if err != nil {
		return fmt.Errorf("append command for %q: %w", rec.DeviceID, err)
	}
	return nil
}
