package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const botColumns = `id, name, token, channel_id, invite_link, welcome_msg,
	button_text, not_sub_msg, success_msg, welcome_img_key, enabled,
	created_at, updated_at`

func scanBot(row interface{ Scan(...any) error }) (*Bot, error) {
	var b Bot
	err := row.Scan(
		&b.ID, &b.Name, &b.Token, &b.ChannelID, &b.InviteLink,
		&b.WelcomeMsg, &b.ButtonText, &b.NotSubMsg, &b.SuccessMsg,
		&b.WelcomeImgKey, &b.Enabled, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBot inserts a new bot definition. Returns ErrConflict when the ID
// is already taken.
func CreateBot(b *Bot) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO bots (id, name, token, channel_id, invite_link, welcome_msg,
			button_text, not_sub_msg, success_msg, welcome_img_key, enabled,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Name, b.Token, b.ChannelID, b.InviteLink, b.WelcomeMsg,
		b.ButtonText, b.NotSubMsg, b.SuccessMsg, b.WelcomeImgKey, b.Enabled,
		b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrConflict
		}
		return fmt.Errorf("failed to create bot: %w", err)
	}

	return nil
}

// ListBots returns all bot definitions in insertion order.
func ListBots() ([]Bot, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(`SELECT ` + botColumns + ` FROM bots ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bots: %w", err)
	}
	defer rows.Close()

	var bots []Bot
	for rows.Next() {
		b, err := scanBot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bot: %w", err)
		}
		bots = append(bots, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return bots, nil
}

// GetBot returns a single bot by ID, or ErrNotFound.
func GetBot(id string) (*Bot, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	b, err := scanBot(db.QueryRow(`SELECT `+botColumns+` FROM bots WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bot: %w", err)
	}

	return b, nil
}

// UpdateBot updates every editable field of an existing bot. The ID itself
// is never rewritten.
func UpdateBot(id string, b *Bot) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	result, err := db.Exec(`
		UPDATE bots
		SET name = ?, token = ?, channel_id = ?, invite_link = ?,
			welcome_msg = ?, button_text = ?, not_sub_msg = ?, success_msg = ?,
			welcome_img_key = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`, b.Name, b.Token, b.ChannelID, b.InviteLink, b.WelcomeMsg, b.ButtonText,
		b.NotSubMsg, b.SuccessMsg, b.WelcomeImgKey, b.Enabled, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update bot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteBot removes a bot definition. Returns ErrNotFound when the ID does
// not exist.
func DeleteBot(id string) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	result, err := db.Exec(`DELETE FROM bots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
