package postgres

import (
	"context"

	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type userRepository struct {
	db DB
}

func NewUserRepository(db DB) interfaces.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, name, hostel, is_staff, api_token`

func scanUser(row Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Hostel, &u.IsStaff, &u.APIToken); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindByToken(ctx context.Context, token string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE api_token = $1`, token))
	if err != nil {
		// never echo the token back
		return nil, notFound(err, "user", "by token")
	}
	return u, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}
