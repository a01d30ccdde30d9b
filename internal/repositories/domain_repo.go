package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prudhvinik1/crmsync/internal/models"
)

var ErrNotFound = errors.New("not found")

type PostgresDomainRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresDomainRepository(pool *pgxpool.Pool) *PostgresDomainRepository {
	return &PostgresDomainRepository{pool: pool}
}

// GetDomain loads the single tenant record with its connected accounts.
func (r *PostgresDomainRepository) GetDomain(ctx context.Context) (*models.Domain, error) {
	query := `SELECT id, api_key, created_at, updated_at FROM domains LIMIT 1`

	var domain models.Domain
	err := r.pool.QueryRow(ctx, query).
		Scan(&domain.ID, &domain.APIKey, &domain.CreatedAt, &domain.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}

	accountsQuery := `SELECT id, domain_id, hub_id, access_token, refresh_token, token_expires_at,
	                         last_pulled_companies, last_pulled_contacts, last_pulled_meetings,
	                         created_at, updated_at
	                  FROM hubspot_accounts
	                  WHERE domain_id = $1
	                  ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, accountsQuery, domain.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var account models.HubspotAccount
		err := rows.Scan(
			&account.ID,
			&account.DomainID,
			&account.HubID,
			&account.AccessToken,
			&account.RefreshToken,
			&account.TokenExpiresAt,
			&account.LastPulled.Companies,
			&account.LastPulled.Contacts,
			&account.LastPulled.Meetings,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		domain.Accounts = append(domain.Accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return &domain, nil
}

// Save persists the whole document: every account's token fields and
// checkpoints in one transaction.
func (r *PostgresDomainRepository) Save(ctx context.Context, domain *models.Domain) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	accountQuery := `UPDATE hubspot_accounts
	                 SET access_token = $1,
	                     refresh_token = $2,
	                     token_expires_at = $3,
	                     last_pulled_companies = $4,
	                     last_pulled_contacts = $5,
	                     last_pulled_meetings = $6,
	                     updated_at = NOW()
	                 WHERE id = $7`

	for _, account := range domain.Accounts {
		result, err := tx.Exec(ctx, accountQuery,
			account.AccessToken,
			account.RefreshToken,
			account.TokenExpiresAt,
			account.LastPulled.Companies,
			account.LastPulled.Contacts,
			account.LastPulled.Meetings,
			account.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to save account %s: %w", account.HubID, err)
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE domains SET updated_at = NOW() WHERE id = $1`, domain.ID); err != nil {
		return fmt.Errorf("failed to save domain: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}
