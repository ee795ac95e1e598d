package duosite

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) insertAccount(ctx context.Context, email, hash string) (Account, error) {
	acc := Account{ID: uuid.NewString(), Email: email, PasswordHash: hash, CreatedAt: s.now().UTC()}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		acc.ID, acc.Email, acc.PasswordHash, formatTime(acc.CreatedAt)); err != nil {
		return Account{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (id, updated_at) VALUES (?, ?)`,
		acc.ID, formatTime(acc.CreatedAt)); err != nil {
		return Account{}, fmt.Errorf("insert profile: %w", err)
	}
	return acc, tx.Commit()
}

// GetAccountByEmail looks up an account by its (case-insensitive) email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	var acc Account
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM accounts WHERE email = ?`,
		normalizeEmail(email)).Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &created)
	if err != nil {
		return Account{}, err
	}
	acc.CreatedAt = parseTime(created)
	return acc, nil
}

func (s *Store) setPasswordHash(ctx context.Context, id, hash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE accounts SET password_hash = ? WHERE id = ?`, hash, id)
	return err
}

// GetAdmin returns the admin record of an account, or ErrNotFound when the
// account is not an admin.
func (s *Store) GetAdmin(ctx context.Context, id string) (AdminAccount, error) {
	var a AdminAccount
	var super int
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT id, email, is_super_admin, created_at FROM admin_users WHERE id = ?`, id).
		Scan(&a.ID, &a.Email, &super, &created)
	if err != nil {
		return AdminAccount{}, err
	}
	a.IsSuperAdmin = super == 1
	a.CreatedAt = parseTime(created)
	return a, nil
}

func (s *Store) upsertAdmin(ctx context.Context, acc Account, super bool) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO admin_users (id, email, is_super_admin, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, is_super_admin = MAX(is_super_admin, excluded.is_super_admin)`,
		acc.ID, acc.Email, boolInt(super), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("upsert admin %s: %w", acc.Email, err)
	}
	return nil
}

// ListAdmins returns every admin account, oldest first.
func (s *Store) ListAdmins(ctx context.Context) ([]AdminAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, email, is_super_admin, created_at FROM admin_users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AdminAccount
	for rows.Next() {
		var a AdminAccount
		var super int
		var created string
		if err := rows.Scan(&a.ID, &a.Email, &super, &created); err != nil {
			return nil, err
		}
		a.IsSuperAdmin = super == 1
		a.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetProfile returns the profile of an account.
func (s *Store) GetProfile(ctx context.Context, id string) (Profile, error) {
	var p Profile
	var updated string
	err := s.db.QueryRowContext(ctx, `SELECT id, username, full_name, bio, avatar_url, updated_at FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Username, &p.FullName, &p.Bio, &p.AvatarURL, &updated)
	if err != nil {
		return Profile{}, err
	}
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

func (s *Store) saveProfile(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO profiles (id, username, full_name, bio, avatar_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			full_name = excluded.full_name,
			bio = excluded.bio,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`,
		p.ID, p.Username, p.FullName, p.Bio, p.AvatarURL, formatTime(p.UpdatedAt))
	return err
}

// SaveImage inserts or replaces image metadata.
func (s *Store) SaveImage(ctx context.Context, img Image) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO images (filename, original_name, width, height, size, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			original_name = excluded.original_name,
			width = excluded.width,
			height = excluded.height,
			size = excluded.size,
			uploaded_at = excluded.uploaded_at`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// ListImages returns all images ordered by upload time (newest first).
func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, original_name, width, height, size, uploaded_at
		FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ImageExists reports whether metadata for filename is stored.
func (s *Store) ImageExists(ctx context.Context, filename string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM images WHERE filename = ?)`, filename).Scan(&exists)
	return exists == 1, err
}

// DeleteImage removes image metadata by filename.
func (s *Store) DeleteImage(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE filename = ?`, filename)
	return err
}
