package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/exogenesis/timevault/internal/util"
	"github.com/exogenesis/timevault/pkg/models"

	// SQLite driver
	_ "modernc.org/sqlite"
)

const sqliteBusyRetryLimit = 4

// SQLite is a single file store implementing ConditionalLookupRepository and
// CollectionRepository for local use.
type SQLite struct {
	db       *sql.DB
	newTimer util.RetryTimerFactory
}

// NewSQLite opens (or creates) the database file and initializes the schema.
func NewSQLite(path string) (*SQLite, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open SQLite: %s", path)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	x := &SQLite{
		db:       db,
		newTimer: util.NewScaledExpRetryTimerFactory(100 * time.Millisecond),
	}
	if err := x.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Failed to migrate SQLite schema")
	}
	return x, nil
}

// Close closes the database.
func (x *SQLite) Close() error { return x.db.Close() }

func (x *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lookup (
		pk         TEXT PRIMARY KEY,
		saved_date TEXT NOT NULL,
		size       INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS collection (
		pk          TEXT NOT NULL,
		sk          INTEGER NOT NULL,
		is_unzipped INTEGER NOT NULL DEFAULT 0,
		vault       TEXT NOT NULL,
		key_name    TEXT NOT NULL,
		PRIMARY KEY (pk, sk)
	);
	`
	_, err := x.db.Exec(schema)
	return err
}

func isTransientSQLiteErr(err error) bool {
	msg := err.Error()
	for _, pattern := range []string{
		"SQLITE_BUSY",
		"SQLITE_LOCKED",
		"database is locked",
		"database table is locked",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func (x *SQLite) retryOnContention(ctx context.Context, fn func() error) error {
	var lastErr error
	err := x.newTimer(sqliteBusyRetryLimit).Run(ctx, func(seq int) (bool, error) {
		lastErr = fn()
		if lastErr == nil {
			return true, nil
		}
		if !isTransientSQLiteErr(lastErr) {
			return false, lastErr
		}
		return false, nil
	})

	if err == util.ErrRetryLimitExceeded {
		return lastErr
	}
	return err
}

// GetLookup reads members of the key.
func (x *SQLite) GetLookup(ctx context.Context, key string) (*models.LookupItem, error) {
	var raw string
	row := x.db.QueryRowContext(ctx, `SELECT saved_date FROM lookup WHERE pk = ?`, key)
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "Failed to get lookup item: %s", key)
	}

	var members []string
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		return nil, errors.Wrapf(ErrInvalidLookupItem, "key: %s", key)
	}
	if members == nil {
		members = []string{}
	}

	return &models.LookupItem{Key: key, Members: members}, nil
}

func encodeMembers(item *models.LookupItem) (string, error) {
	members := item.Members
	if members == nil {
		members = []string{}
	}
	raw, err := json.Marshal(members)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to encode members: %s", item.Key)
	}
	return string(raw), nil
}

// PutLookup overwrites the lookup item.
func (x *SQLite) PutLookup(ctx context.Context, item *models.LookupItem) error {
	raw, err := encodeMembers(item)
	if err != nil {
		return err
	}

	err = x.retryOnContention(ctx, func() error {
		_, err := x.db.ExecContext(ctx,
			`INSERT INTO lookup (pk, saved_date, size) VALUES (?, ?, ?)
			 ON CONFLICT(pk) DO UPDATE SET saved_date = excluded.saved_date, size = excluded.size`,
			item.Key, raw, item.Size())
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "Failed to put lookup item: %s", item.Key)
	}
	return nil
}

// PutLookupIf overwrites the lookup item if number of stored members is still same as prev.
func (x *SQLite) PutLookupIf(ctx context.Context, item *models.LookupItem, prev *models.LookupItem) error {
	raw, err := encodeMembers(item)
	if err != nil {
		return err
	}

	var affected int64
	err = x.retryOnContention(ctx, func() error {
		var res sql.Result
		var err error
		if prev == nil {
			res, err = x.db.ExecContext(ctx,
				`INSERT INTO lookup (pk, saved_date, size) VALUES (?, ?, ?) ON CONFLICT(pk) DO NOTHING`,
				item.Key, raw, item.Size())
		} else {
			res, err = x.db.ExecContext(ctx,
				`UPDATE lookup SET saved_date = ?, size = ? WHERE pk = ? AND size = ?`,
				raw, item.Size(), item.Key, prev.Size())
		}
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "Failed to put lookup item: %s", item.Key)
	}

	if affected == 0 {
		return ErrLookupConflict
	}
	return nil
}

// PutCollectionItem puts the item. An item of same year and unix time is replaced.
func (x *SQLite) PutCollectionItem(ctx context.Context, item *models.CollectionItem) error {
	err := x.retryOnContention(ctx, func() error {
		_, err := x.db.ExecContext(ctx,
			`INSERT INTO collection (pk, sk, is_unzipped, vault, key_name) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(pk, sk) DO UPDATE SET
			   is_unzipped = excluded.is_unzipped, vault = excluded.vault, key_name = excluded.key_name`,
			item.Year, item.UnixTime, item.IsUnzipped, item.Vault, item.KeyName)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "Failed to put collection item: %s", item.KeyName)
	}
	return nil
}

// GetCollectionItems returns items of the year ordered by unix time.
func (x *SQLite) GetCollectionItems(ctx context.Context, year string) ([]*models.CollectionItem, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT pk, sk, is_unzipped, vault, key_name FROM collection WHERE pk = ? ORDER BY sk`, year)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get collection items: %s", year)
	}
	defer rows.Close()

	items := []*models.CollectionItem{}
	for rows.Next() {
		var item models.CollectionItem
		if err := rows.Scan(&item.Year, &item.UnixTime, &item.IsUnzipped, &item.Vault, &item.KeyName); err != nil {
			return nil, errors.Wrap(err, "Failed to scan collection item")
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "Failed to get collection items: %s", year)
	}

	return items, nil
}
