package database

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const maintenanceDB = "postgres"

// Manager creates and drops the PostgreSQL database named in a connection
// URL by talking to the server's maintenance database.
type Manager struct {
	URL string
}

func NewManager(url string) *Manager {
	return &Manager{URL: url}
}

// CreateDB creates the target database unless it already exists. It reports
// whether a database was created.
func (m *Manager) CreateDB(parentCtx context.Context) (bool, error) {
	name, maintenanceURL, err := m.split()
	if err != nil {
		return false, err
	}

	conn, err := m.openConn(parentCtx, maintenanceURL)
	if err != nil {
		return false, err
	}
	defer m.closeConn(parentCtx, conn)

	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	exists := false
	row := conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT datname
			FROM pg_catalog.pg_database
			WHERE datname = $1
			LIMIT 1
		);
	`, name)
	if err := row.Scan(&exists); err != nil {
		return false, errors.Wrap(err, "checking if database exists failed")
	}
	if exists {
		return false, nil
	}

	_, err = conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s;", pgx.Identifier{name}.Sanitize()))
	if err != nil {
		return false, errors.Wrapf(err, "creating database %s failed", name)
	}
	return true, nil
}

func (m *Manager) DropDB(parentCtx context.Context) error {
	name, maintenanceURL, err := m.split()
	if err != nil {
		return err
	}

	conn, err := m.openConn(parentCtx, maintenanceURL)
	if err != nil {
		return err
	}
	defer m.closeConn(parentCtx, conn)

	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	_, err = conn.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s;", pgx.Identifier{name}.Sanitize()))
	if err != nil {
		return errors.Wrapf(err, "dropping database %s failed", name)
	}
	return nil
}

// split returns the target database name and the same URL pointed at the
// maintenance database.
func (m *Manager) split() (string, string, error) {
	if !IsPostgres(m.URL) {
		return "", "", fmt.Errorf("database management needs a postgres:// URL")
	}
	u, err := url.Parse(m.URL)
	if err != nil {
		return "", "", errors.Wrap(err, "parsing database URL failed")
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", "", fmt.Errorf("database URL has no database name")
	}
	u.Path = "/" + maintenanceDB
	return name, u.String(), nil
}

func (m *Manager) openConn(ctx context.Context, connString string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, errors.Wrapf(err, "opening connection failed, connString=\"%s\"", redact(connString))
	}
	return conn, nil
}

func (m *Manager) closeConn(parentCtx context.Context, conn *pgx.Conn) {
	ctx, cancel := getQueryContext(parentCtx)
	defer cancel()

	if err := conn.Close(ctx); err != nil {
		log.Printf("closing connection failed: %+v\n", err)
	}
}

func redact(connString string) string {
	u, err := url.Parse(connString)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}

func getQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parentCtx, 10*time.Second)
}
