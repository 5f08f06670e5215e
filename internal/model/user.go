package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Accounts are created through the OAuth registration flow, so
// there is no password column; the email is the stable link back to the
// external identity provider.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Email         – unique email address reported by the OAuth provider.
//  Nickname      – display name chosen at registration.
//  AvatarImgPath – optional path to the user's avatar image.
//  LadderPoint   – ranking score used by matchmaking.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	ID            uint64    // users.id
	Email         string    // users.email
	Nickname      string    // users.nickname
	AvatarImgPath string    // users.avatar_img_path (may be empty)
	LadderPoint   int       // users.ladder_point
	CreatedAt     time.Time // users.created_at
	UpdatedAt     time.Time // users.updated_at
}

// UserOverview is the compact user shape embedded in notification items
// and other feeds where the full record would be overkill.
type UserOverview struct {
	ID            uint64 `json:"id"`
	Nickname      string `json:"nickname"`
	AvatarImgPath string `json:"avatarImgPath,omitempty"`
}
