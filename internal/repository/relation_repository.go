package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/pong-social/internal/model"
)

// RelationRepo reads the user_relations table. Only the pending-approval
// query is needed by the notification feed; the rest of the relation CRUD
// lives with the relation endpoints.
type RelationRepo struct{ DB *sql.DB }

func NewRelationRepo(db *sql.DB) *RelationRepo { return &RelationRepo{DB: db} }

// FindPendingApprovals returns friend requests addressed to userID that are
// still pending, oldest change first. The requesting user is joined in so
// the feed can render it without a second query.
func (r *RelationRepo) FindPendingApprovals(ctx context.Context, userID uint64) ([]model.PendingApproval, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT ur.id, u.id, u.nickname, u.avatar_img_path, ur.updated_at
		 FROM user_relations ur
		 JOIN users u ON u.id = ur.user_id
		 WHERE ur.other_user_id = ? AND ur.status = ?
		 ORDER BY ur.updated_at ASC`,
		userID, model.RelationPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PendingApproval
	for rows.Next() {
		var p model.PendingApproval
		if err := rows.Scan(&p.ID, &p.OtherUser.ID, &p.OtherUser.Nickname, &p.OtherUser.AvatarImgPath, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
