package model

import "time"

// Channel types stored in channels.type.
const (
	ChannelPublic    = "PUBLIC"
	ChannelPrivate   = "PRIVATE"
	ChannelProtected = "PROTECTED"
)

// ChannelOverview is the compact channel shape embedded in invitations.
type ChannelOverview struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// ChannelInvitation is a pending invite for a user to join a channel,
// read from channel_relations rows with status INVITED.
type ChannelInvitation struct {
	ID        uint64          // channel_relations.id
	Channel   ChannelOverview // the inviting channel
	UpdatedAt time.Time       // channel_relations.updated_at
}
