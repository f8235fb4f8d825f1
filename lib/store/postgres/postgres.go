// Package postgres implements the interface for PostgreSQL.
package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/lib/pq" //nolint:gci // load the postgres driver that is used by the system

	"github.com/tarancss/acctpanel/lib/account"
	"github.com/tarancss/acctpanel/lib/store"
)

// schema is created on connection if not present.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id       BIGSERIAL PRIMARY KEY,
	net      TEXT NOT NULL,
	address  TEXT NOT NULL,
	name     TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	group_id TEXT NOT NULL DEFAULT '',
	UNIQUE (net, address)
);
CREATE TABLE IF NOT EXISTS selections (
	net     TEXT PRIMARY KEY,
	address TEXT NOT NULL DEFAULT '',
	locked  BOOLEAN NOT NULL DEFAULT FALSE,
	seq     BIGINT NOT NULL DEFAULT 0
);`

type Postgres struct {
	db *sql.DB
}

// New returns a postgres client connection to the specified database in 'connection'.
func New(connection string) (*Postgres, error) {
	db, err := sql.Open("postgres", connection)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to DB in %s: %w", connection, err)
	}

	if _, err = db.Exec(schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("cannot create schema: %w", err)
	}

	return &Postgres{db: db}, nil
}

// ClosePostgres will close any database connection. Must be called at termination time.
func (p *Postgres) ClosePostgres() error {
	return p.db.Close()
}

// AddAccount saves an account if its address does not already exist and returns its id.
func (p *Postgres) AddAccount(net string, a account.Record) ([]byte, error) {
	addr := account.Normalize(a.Address)

	var id int64

	err := p.db.QueryRow(`INSERT INTO accounts (net, address, name, category, group_id) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (net, address) DO NOTHING RETURNING id`,
		net, addr, a.Name, a.Category.String(), a.GroupID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) { // already there
		err = p.db.QueryRow(`SELECT id FROM accounts WHERE net = $1 AND address = $2`, net, addr).Scan(&id)
	}

	if err != nil {
		return nil, fmt.Errorf("could not insert account in db: %w", err)
	}

	return []byte(strconv.FormatInt(id, 10)), nil
}

// RemoveAccount deletes an account from the database.
func (p *Postgres) RemoveAccount(net, address string) error {
	res, err := p.db.Exec(`DELETE FROM accounts WHERE net = $1 AND address = $2`, net, account.Normalize(address))
	if err != nil {
		return fmt.Errorf("could not delete account: %w", err)
	}

	if n, _ := res.RowsAffected(); n != 1 {
		return store.ErrAccountNotFound
	}

	return nil
}

// GetAccounts returns the accounts of the network in insertion order.
func (p *Postgres) GetAccounts(net string) (recs []account.Record, err error) {
	rows, err := p.db.Query(`SELECT address, name, category, group_id FROM accounts WHERE net = $1 ORDER BY id`, net)
	if err != nil {
		return nil, fmt.Errorf("could not query accounts: %w", err)
	}
	defer rows.Close()

	recs = []account.Record{}

	for rows.Next() {
		var cat string

		r := account.Record{Network: net}
		if err = rows.Scan(&r.Address, &r.Name, &cat, &r.GroupID); err != nil {
			return nil, err
		}

		r.Category, _ = account.ParseCategory(cat)
		recs = append(recs, r)
	}

	return recs, rows.Err()
}

// LoadSelection loads from db the selection state for the indicated network.
func (p *Postgres) LoadSelection(net string) (s store.Selection, err error) {
	var seq int64

	err = p.db.QueryRow(`SELECT address, locked, seq FROM selections WHERE net = $1`, net).
		Scan(&s.Address, &s.Locked, &seq)
	if errors.Is(err, sql.ErrNoRows) {
		err = store.ErrDataNotFound
	}

	s.Seq = uint64(seq)

	return
}

// SaveSelection saves to db the selection state for the indicated network.
func (p *Postgres) SaveSelection(net string, s store.Selection) error {
	_, err := p.db.Exec(`INSERT INTO selections (net, address, locked, seq) VALUES ($1, $2, $3, $4)
		ON CONFLICT (net) DO UPDATE SET address = EXCLUDED.address, locked = EXCLUDED.locked, seq = EXCLUDED.seq`,
		net, s.Address, s.Locked, int64(s.Seq))

	return err
}
