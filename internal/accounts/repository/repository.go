// Package repository provides data access for user accounts and organizations.
// This context is read-mostly: account provisioning and authentication live in
// a separate identity service, so only lookups needed by the operations
// modules are implemented here.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wasteops_backend/platform/apperr"
)

// User is an account row as seen by the operations modules.
type User struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Repository defines account lookups.
type Repository interface {
	// GetUser retrieves a single user by ID.
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	// ListActiveCollectors retrieves active collector accounts in an organization.
	ListActiveCollectors(ctx context.Context, organizationID uuid.UUID) ([]User, error)
	// PrimaryContact resolves the organization's primary contact user. When no
	// explicit contact is configured it falls back to the earliest active
	// management account.
	PrimaryContact(ctx context.Context, organizationID uuid.UUID) (uuid.UUID, error)
}

const selectUser = `
	SELECT id, organization_id, email, full_name, role, is_active, created_at
	FROM users`

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new accounts repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// GetUser retrieves a single user by ID.
func (r *Repo) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id).Scan(
		&u.ID, &u.OrganizationID, &u.Email, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

// ListActiveCollectors retrieves active collector accounts in an organization,
// ordered by name for stable assignment pickers.
func (r *Repo) ListActiveCollectors(ctx context.Context, organizationID uuid.UUID) ([]User, error) {
	rows, err := r.pool.Query(ctx, selectUser+`
		WHERE organization_id = $1 AND role = 'collector' AND is_active
		ORDER BY full_name ASC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list active collectors: %w", err)
	}
	defer rows.Close()

	var results []User
	for rows.Next() {
		var u User
		err := rows.Scan(&u.ID, &u.OrganizationID, &u.Email, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan collector: %w", err)
		}
		results = append(results, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collectors: %w", err)
	}

	return results, nil
}

// PrimaryContact resolves the notification recipient for organization-level
// events. COALESCE prefers the explicitly configured contact over the
// earliest active management account.
func (r *Repo) PrimaryContact(ctx context.Context, organizationID uuid.UUID) (uuid.UUID, error) {
	var contactID *uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(
			o.primary_contact_user_id,
			(SELECT u.id FROM users u
			 WHERE u.organization_id = o.id AND u.role = 'management' AND u.is_active
			 ORDER BY u.created_at ASC
			 LIMIT 1)
		)
		FROM organizations o
		WHERE o.id = $1`, organizationID).Scan(&contactID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperr.NotFound("organization not found")
		}
		return uuid.Nil, fmt.Errorf("resolve primary contact: %w", err)
	}
	if contactID == nil {
		return uuid.Nil, apperr.NotFound("organization has no primary contact")
	}

	return *contactID, nil
}
