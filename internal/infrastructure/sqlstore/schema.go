package sqlstore

func schema(d Dialect) []string {
	boolType := "INTEGER"
	if d == Postgres {
		boolType = "BOOLEAN"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS notifications (
			notification_id TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			body            TEXT NOT NULL,
			type            TEXT NOT NULL,
			subject         TEXT NOT NULL,
			sender_id       TEXT,
			action_payload  TEXT NOT NULL DEFAULT '{}',
			is_deleted      ` + boolType + ` NOT NULL DEFAULT FALSE,
			deleted_at      TEXT,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS notifications_sender_id_idx ON notifications (sender_id)`,
		`CREATE TABLE IF NOT EXISTS recipients (
			id              TEXT PRIMARY KEY,
			notification_id TEXT NOT NULL REFERENCES notifications (notification_id),
			recipient_id    TEXT NOT NULL,
			seen_by_user    ` + boolType + ` NOT NULL DEFAULT FALSE,
			created_at      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS recipients_notification_id_idx ON recipients (notification_id)`,
		`CREATE INDEX IF NOT EXISTS recipients_recipient_id_idx ON recipients (recipient_id)`,
	}
}
