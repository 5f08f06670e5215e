package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/pong-social/internal/model"
)

// Membership status values stored in channel_relations.status.
const (
	channelInvited = "INVITED"
)

// ChannelRepo reads the channels / channel_relations tables for the
// notification feed.
type ChannelRepo struct{ DB *sql.DB }

func NewChannelRepo(db *sql.DB) *ChannelRepo { return &ChannelRepo{DB: db} }

// FindPendingInvitations returns channel invites addressed to userID that
// have not been accepted or declined, oldest change first.
func (r *ChannelRepo) FindPendingInvitations(ctx context.Context, userID uint64) ([]model.ChannelInvitation, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT cr.id, ch.id, ch.title, cr.updated_at
		 FROM channel_relations cr
		 JOIN channels ch ON ch.id = cr.channel_id
		 WHERE cr.user_id = ? AND cr.status = ?
		 ORDER BY cr.updated_at ASC`,
		userID, channelInvited)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChannelInvitation
	for rows.Next() {
		var inv model.ChannelInvitation
		if err := rows.Scan(&inv.ID, &inv.Channel.ID, &inv.Channel.Title, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
