package clients

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new client.
func (r *PGRepo) Create(ctx context.Context, client Client) error {
	const query = `
INSERT INTO clients (id, name, email, created_at)
VALUES ($1, $2, $3, $4)`
	var email sql.NullString
	if client.Email != "" {
		email = sql.NullString{String: client.Email, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query, client.ID, client.Name, email, client.CreatedAt)
	return err
}

// GetByID fetches a client by ID.
func (r *PGRepo) GetByID(ctx context.Context, clientID string) (Client, error) {
	const query = `
SELECT id, name, email, created_at
FROM clients
WHERE id = $1
LIMIT 1`
	var client Client
	var email sql.NullString
	err := r.DB.QueryRowContext(ctx, query, clientID).Scan(&client.ID, &client.Name, &email, &client.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	if email.Valid {
		client.Email = email.String
	}
	return client, nil
}

// GetMany fetches the clients found among clientIDs, keyed by ID.
func (r *PGRepo) GetMany(ctx context.Context, clientIDs []string) (map[string]Client, error) {
	out := make(map[string]Client, len(clientIDs))
	if len(clientIDs) == 0 {
		return out, nil
	}
	const query = `
SELECT id, name, email, created_at
FROM clients
WHERE id = ANY($1)`
	rows, err := r.DB.QueryContext(ctx, query, clientIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var client Client
		var email sql.NullString
		if err := rows.Scan(&client.ID, &client.Name, &email, &client.CreatedAt); err != nil {
			return nil, err
		}
		if email.Valid {
			client.Email = email.String
		}
		out[client.ID] = client
	}
	return out, rows.Err()
}

// List lists clients ordered by name.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Client, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, name, email, created_at
FROM clients
ORDER BY lower(name), id
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Client{}
	for rows.Next() {
		var client Client
		var email sql.NullString
		if err := rows.Scan(&client.ID, &client.Name, &email, &client.CreatedAt); err != nil {
			return nil, err
		}
		if email.Valid {
			client.Email = email.String
		}
		out = append(out, client)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
