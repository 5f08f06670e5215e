package model

import "time"

// Relation status values stored in user_relations.status.  PENDING means
// the request has been sent but not yet approved by the other user.
const (
	RelationPending = "PENDING"
	RelationFriend  = "FRIEND"
	RelationBlocked = "BLOCKED"
)

// PendingApproval is a friend request awaiting the recipient's decision.
// OtherUser is the user who sent the request; UpdatedAt is when the
// relation row last changed and drives notification ordering.
type PendingApproval struct {
	ID        uint64       // user_relations.id
	OtherUser UserOverview // the requesting user
	UpdatedAt time.Time    // user_relations.updated_at
}
