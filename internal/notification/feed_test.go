package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pong-social/internal/model"
	"github.com/iliyamo/pong-social/internal/notification"
	"github.com/iliyamo/pong-social/internal/presence"
)

type fakeResolver struct {
	userID uint64
	err    error
}

func (f *fakeResolver) ResolveUserForSocket(context.Context, string) (uint64, error) {
	return f.userID, f.err
}

type fakeRelations struct{ approvals []model.PendingApproval }

func (f *fakeRelations) FindPendingApprovals(context.Context, uint64) ([]model.PendingApproval, error) {
	return f.approvals, nil
}

type fakeChannels struct{ invites []model.ChannelInvitation }

func (f *fakeChannels) FindPendingInvitations(context.Context, uint64) ([]model.ChannelInvitation, error) {
	return f.invites, nil
}

func TestUnreadMergesAscendingByUpdatedAt(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	feed := notification.NewFeed(
		&fakeResolver{userID: 7},
		&fakeRelations{approvals: []model.PendingApproval{
			{ID: 1, OtherUser: model.UserOverview{ID: 2, Nickname: "jinsoo"}, UpdatedAt: t1},
		}},
		&fakeChannels{invites: []model.ChannelInvitation{
			{ID: 9, Channel: model.ChannelOverview{ID: 3, Title: "pong lounge"}, UpdatedAt: t2},
		}},
	)

	items, err := feed.Unread(context.Background(), "sock-a")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, notification.TypeFriendRequest, items[0].Type)
	require.Equal(t, "jinsoo", items[0].RequestingUser.Nickname)
	require.Equal(t, notification.TypeChannelInvite, items[1].Type)
	require.Equal(t, "pong lounge", items[1].InvitingChannel.Title)
}

func TestUnreadTieBreakIsDeterministic(t *testing.T) {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	feed := notification.NewFeed(
		&fakeResolver{userID: 7},
		&fakeRelations{approvals: []model.PendingApproval{
			{ID: 1, OtherUser: model.UserOverview{ID: 2, Nickname: "a"}, UpdatedAt: ts},
		}},
		&fakeChannels{invites: []model.ChannelInvitation{
			{ID: 9, Channel: model.ChannelOverview{ID: 3, Title: "c"}, UpdatedAt: ts},
		}},
	)

	// Stable merge: for equal timestamps the friend request keeps its slot
	// ahead of the invite, on every invocation.
	for i := 0; i < 3; i++ {
		items, err := feed.Unread(context.Background(), "sock-a")
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, notification.TypeFriendRequest, items[0].Type)
		require.Equal(t, notification.TypeChannelInvite, items[1].Type)
	}
}

func TestUnreadFailsForUnregisteredSocket(t *testing.T) {
	feed := notification.NewFeed(
		&fakeResolver{err: presence.ErrNotFound},
		&fakeRelations{},
		&fakeChannels{},
	)
	_, err := feed.Unread(context.Background(), "ghost")
	require.ErrorIs(t, err, presence.ErrNotFound)
}

func TestUnreadEmptySources(t *testing.T) {
	feed := notification.NewFeed(&fakeResolver{userID: 7}, &fakeRelations{}, &fakeChannels{})
	items, err := feed.Unread(context.Background(), "sock-a")
	require.NoError(t, err)
	require.Empty(t, items)
}
