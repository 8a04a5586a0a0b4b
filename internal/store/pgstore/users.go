package pgstore

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

const userColumns = `id, name, email, password, roles, phone, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var roles []string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &roles, &u.Phone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	u.Roles = make(model.Roles, 0, len(roles))
	for _, r := range roles {
		u.Roles = append(u.Roles, model.Role(r))
	}
	return &u, nil
}

func rolesToText(rs model.Roles) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateUser")
	defer span.End()

	u.Email = strings.ToLower(u.Email)
	_, err := s.db.Exec(ctx, `
        INSERT INTO users (id, name, email, password, roles, phone, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, u.PasswordHash, rolesToText(u.Roles), u.Phone, u.CreatedAt, u.UpdatedAt,
	)
	return translate(err)
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetUser")
	defer span.End()

	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetUserByEmail")
	defer span.End()

	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (s *Store) AddUserRole(ctx context.Context, id string, role model.Role, at time.Time) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "Store.AddUserRole")
	defer span.End()

	return scanUser(s.db.QueryRow(ctx, `
        UPDATE users
        SET roles = CASE WHEN $2::text = ANY(roles) THEN roles ELSE array_append(roles, $2::text) END,
            updated_at = $3
        WHERE id = $1
        RETURNING `+userColumns,
		id, string(role), at,
	))
}

func (s *Store) UpdateUserContact(ctx context.Context, id, name, phone string, at time.Time) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "Store.UpdateUserContact")
	defer span.End()

	return scanUser(s.db.QueryRow(ctx, `
        UPDATE users SET name = $2, phone = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns,
		id, name, phone, at,
	))
}

const profileColumns = `id, user_id, skill_category, years_experience, about, price, rating,
    previous_work_images, profile_picture, availability, cnic, certifications, created_at, updated_at`

func scanProfile(row pgx.Row) (*model.MerchantProfile, error) {
	var p model.MerchantProfile
	var skill, availability string
	err := row.Scan(&p.ID, &p.UserID, &skill, &p.YearsExperience, &p.About, &p.Price, &p.Rating,
		&p.PreviousWorkImages, &p.ProfilePicture, &availability, &p.CNIC, &p.Certifications,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	p.SkillCategory = model.SkillCategory(skill)
	p.Availability = model.Availability(availability)
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *Store) CreateProfile(ctx context.Context, p *model.MerchantProfile) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateProfile")
	defer span.End()

	// ON CONFLICT keeps an enclosing transaction usable after a duplicate
	tag, err := s.db.Exec(ctx, `
        INSERT INTO merchant_profiles (`+profileColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        ON CONFLICT DO NOTHING`,
		p.ID, p.UserID, string(p.SkillCategory), p.YearsExperience, p.About, p.Price, p.Rating,
		nonNil(p.PreviousWorkImages), p.ProfilePicture, string(p.Availability), p.CNIC, nonNil(p.Certifications),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrDuplicate
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*model.MerchantProfile, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetProfile")
	defer span.End()

	return scanProfile(s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM merchant_profiles WHERE user_id = $1`, userID))
}

func (s *Store) ListProfiles(ctx context.Context) ([]*model.MerchantProfile, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListProfiles")
	defer span.End()

	rows, err := s.db.Query(ctx, `SELECT `+profileColumns+` FROM merchant_profiles ORDER BY rating DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.MerchantProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SaveProfile(ctx context.Context, p *model.MerchantProfile) error {
	ctx, span := s.tracer.Start(ctx, "Store.SaveProfile")
	defer span.End()

	tag, err := s.db.Exec(ctx, `
        UPDATE merchant_profiles SET
            skill_category = $2, years_experience = $3, about = $4, price = $5, rating = $6,
            previous_work_images = $7, profile_picture = $8, availability = $9, cnic = $10,
            certifications = $11, updated_at = $12
        WHERE user_id = $1`,
		p.UserID, string(p.SkillCategory), p.YearsExperience, p.About, p.Price, p.Rating,
		nonNil(p.PreviousWorkImages), p.ProfilePicture, string(p.Availability), p.CNIC,
		nonNil(p.Certifications), p.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
