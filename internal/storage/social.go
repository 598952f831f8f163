package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SendFriendRequest creates a pending request. Asking a user who already asked you
// accepts their request instead.
func (db *DB) SendFriendRequest(ctx context.Context, userID, friendID int) (models.Friendship, error) {
	if userID == friendID {
		return models.Friendship{}, fmt.Errorf("cannot befriend yourself")
	}
	f := models.Friendship{UserID: userID, FriendID: friendID}
	var status string
	err := db.Pool.QueryRow(ctx,
		`UPDATE friendships SET status = 'accepted'
		 WHERE user_id = $2 AND friend_id = $1
		 RETURNING id, status, created_at`, userID, friendID).Scan(&f.ID, &status, &f.CreatedAt)
	if err == nil {
		f.UserID, f.FriendID = friendID, userID
		f.Status = models.FriendshipStatus(status)
		return f, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Friendship{}, fmt.Errorf("accepting reverse request: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, friend_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING id, status, created_at`, userID, friendID).Scan(&f.ID, &status, &f.CreatedAt)
	if err != nil {
		return models.Friendship{}, fmt.Errorf("inserting friend request: %w", err)
	}
	f.Status = models.FriendshipStatus(status)
	return f, nil
}

// AcceptFriendRequest accepts a pending request addressed to userID.
func (db *DB) AcceptFriendRequest(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE friendships SET status = 'accepted' WHERE id = $1 AND friend_id = $2 AND status = 'pending'`, id, userID)
	if err != nil {
		return fmt.Errorf("accepting friend request %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("accepting friend request %s: %w", id, ErrNotFound)
	}
	return nil
}

// RemoveFriendship deletes a friendship or request on either side.
func (db *DB) RemoveFriendship(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM friendships WHERE id = $1 AND (user_id = $2 OR friend_id = $2)`, id, userID)
	if err != nil {
		return fmt.Errorf("removing friendship %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("removing friendship %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListFriendships returns every friendship or request involving the user, with the other side's profile.
func (db *DB) ListFriendships(ctx context.Context, userID int) ([]models.Friendship, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT f.id, f.user_id, f.friend_id, f.status, f.created_at,
		        COALESCE(p.username, u.login), COALESCE(p.display_name, u.display_name),
		        COALESCE(p.bio, ''), COALESCE(p.is_public, FALSE), u.created_at
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.user_id = $1 THEN f.friend_id ELSE f.user_id END
		 LEFT JOIN profiles p ON p.user_id = u.id
		 WHERE f.user_id = $1 OR f.friend_id = $1
		 ORDER BY f.status, f.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying friendships: %w", err)
	}
	defer rows.Close()

	result := []models.Friendship{}
	for rows.Next() {
		var f models.Friendship
		var status string
		var p models.Profile
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &status, &f.CreatedAt,
			&p.Username, &p.DisplayName, &p.Bio, &p.IsPublic, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning friendship: %w", err)
		}
		f.Status = models.FriendshipStatus(status)
		p.UserID = f.FriendID
		if f.FriendID == userID {
			p.UserID = f.UserID
		}
		f.Friend = &p
		result = append(result, f)
	}
	return result, rows.Err()
}

// FriendIDs returns the ids of users with an accepted friendship with userID.
func (db *DB) FriendIDs(ctx context.Context, userID int) ([]int, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT CASE WHEN user_id = $1 THEN friend_id ELSE user_id END
		 FROM friendships
		 WHERE (user_id = $1 OR friend_id = $1) AND status = 'accepted'`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying friend ids: %w", err)
	}
	defer rows.Close()

	result := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning friend id: %w", err)
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

// Usernames resolves display names for a set of users. Users without a profile fall back to their login.
func (db *DB) Usernames(ctx context.Context, userIDs []int) (map[int]string, error) {
	out := make(map[int]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT u.id, COALESCE(p.username, u.login)
		 FROM users u LEFT JOIN profiles p ON p.user_id = u.id
		 WHERE u.id = ANY($1)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("querying usernames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning username: %w", err)
		}
		out[id] = name
	}
	return out, rows.Err()
}
