package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/pong-social/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,nickname,avatar_img_path,ladder_point,created_at,updated_at"

// Create inserts a user and returns its ID. The email comes from the OAuth
// provider, never from client input.
func (r *UserRepo) Create(ctx context.Context, email, nickname, avatarImgPath string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, nickname, avatar_img_path) VALUES (?,?,?)",
		email, nickname, avatarImgPath)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.Nickname, &u.AvatarImgPath, &u.LadderPoint, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.Nickname, &u.AvatarImgPath, &u.LadderPoint, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
