package repository

import "context"

// SetSavedDateRaw stores raw text as members of the key to reproduce a broken row.
func (x *SQLite) SetSavedDateRaw(ctx context.Context, key, raw string) error {
	_, err := x.db.ExecContext(ctx,
		`INSERT INTO lookup (pk, saved_date, size) VALUES (?, ?, 0)
		 ON CONFLICT(pk) DO UPDATE SET saved_date = excluded.saved_date`, key, raw)
	return err
}
