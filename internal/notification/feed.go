package notification

// Package notification assembles the unread feed a client receives right
// after (re)connecting: pending friend requests and pending channel invites,
// merged into one sequence ordered by when each item last changed.  The feed
// is built on demand from the relation/channel tables and never mutates any
// read state, so re-requesting it returns the same items until the
// underlying rows change.

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/pong-social/internal/model"
)

// Item types. The Type field is the discriminant clients switch on.
type Type string

const (
	TypeFriendRequest Type = "FRIEND_REQUEST"
	TypeChannelInvite Type = "CHANNEL_INVITE"
)

// Item is one entry of the unread feed. Exactly one of RequestingUser /
// InvitingChannel is set, matching Type.
type Item struct {
	Type            Type                   `json:"type"`
	UpdatedAt       time.Time              `json:"updatedAt"`
	RequestingUser  *model.UserOverview    `json:"requestingUser,omitempty"`
	InvitingChannel *model.ChannelOverview `json:"invitingChannel,omitempty"`
}

// SocketResolver maps a live socket back to its user. The connection
// gateway implements it.
type SocketResolver interface {
	ResolveUserForSocket(ctx context.Context, socketID string) (uint64, error)
}

// RelationSource provides pending friend requests for a user.
type RelationSource interface {
	FindPendingApprovals(ctx context.Context, userID uint64) ([]model.PendingApproval, error)
}

// ChannelSource provides pending channel invitations for a user.
type ChannelSource interface {
	FindPendingInvitations(ctx context.Context, userID uint64) ([]model.ChannelInvitation, error)
}

// Feed builds unread notification sequences.
type Feed struct {
	resolver  SocketResolver
	relations RelationSource
	channels  ChannelSource
}

func NewFeed(resolver SocketResolver, relations RelationSource, channels ChannelSource) *Feed {
	return &Feed{resolver: resolver, relations: relations, channels: channels}
}

// Unread resolves the socket's user and returns their merged feed, oldest
// item first. The merge is stable: for equal timestamps, friend requests
// keep their fetch order ahead of channel invites, so the same inputs
// always produce the same sequence.
func (f *Feed) Unread(ctx context.Context, socketID string) ([]Item, error) {
	userID, err := f.resolver.ResolveUserForSocket(ctx, socketID)
	if err != nil {
		return nil, err
	}
	return f.UnreadForUser(ctx, userID)
}

// UnreadForUser is Unread without the socket hop, for callers that already
// hold a user id.
func (f *Feed) UnreadForUser(ctx context.Context, userID uint64) ([]Item, error) {
	approvals, err := f.relations.FindPendingApprovals(ctx, userID)
	if err != nil {
		return nil, err
	}
	invites, err := f.channels.FindPendingInvitations(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(approvals)+len(invites))
	for i := range approvals {
		items = append(items, Item{
			Type:           TypeFriendRequest,
			UpdatedAt:      approvals[i].UpdatedAt,
			RequestingUser: &approvals[i].OtherUser,
		})
	}
	for i := range invites {
		items = append(items, Item{
			Type:            TypeChannelInvite,
			UpdatedAt:       invites[i].UpdatedAt,
			InvitingChannel: &invites[i].Channel,
		})
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].UpdatedAt.Before(items[b].UpdatedAt)
	})
	return items, nil
}
