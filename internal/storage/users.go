package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/liftlog/internal/models"
)

// GetOrCreateUser finds or creates a user by Tailscale login name.
// Returns the user ID. Updates last_seen and display_name on each call.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user %s: %w", login, err)
	}
	return id, nil
}

const profileColumns = `user_id, username, display_name, bio, is_public, created_at`

func scanProfile(row interface{ Scan(...any) error }) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.Username, &p.DisplayName, &p.Bio, &p.IsPublic, &p.CreatedAt)
	return p, err
}

// GetProfile returns the profile of a user.
func (db *DB) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	p, err := scanProfile(db.Pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID))
	if err != nil {
		return models.Profile{}, noRows(err, "querying profile")
	}
	return p, nil
}

// GetProfileByUsername looks a profile up by its cleaned username.
func (db *DB) GetProfileByUsername(ctx context.Context, username string) (models.Profile, error) {
	p, err := scanProfile(db.Pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = $1`, models.CleanUsername(username)))
	if err != nil {
		return models.Profile{}, noRows(err, "querying profile by username")
	}
	return p, nil
}

// UpsertProfile creates or updates a user's profile. The username is cleaned before storing.
func (db *DB) UpsertProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	p.Username = models.CleanUsername(p.Username)
	if p.Username == "" {
		return models.Profile{}, fmt.Errorf("username is empty after cleaning")
	}
	out, err := scanProfile(db.Pool.QueryRow(ctx, `
		INSERT INTO profiles (user_id, username, display_name, bio, is_public)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
			SET username = EXCLUDED.username, display_name = EXCLUDED.display_name,
			    bio = EXCLUDED.bio, is_public = EXCLUDED.is_public
		RETURNING `+profileColumns,
		p.UserID, p.Username, p.DisplayName, p.Bio, p.IsPublic))
	if err != nil {
		return models.Profile{}, fmt.Errorf("upserting profile: %w", err)
	}
	return out, nil
}

// SearchProfiles finds public profiles whose username starts with prefix.
func (db *DB) SearchProfiles(ctx context.Context, prefix string, limit int) ([]models.Profile, error) {
	prefix = models.CleanUsername(prefix)
	rows, err := db.Pool.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles
		 WHERE is_public AND username LIKE $1
		 ORDER BY username
		 LIMIT $2`,
		strings.ReplaceAll(prefix, "_", `\_`)+"%", nullLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}
	defer rows.Close()

	result := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
