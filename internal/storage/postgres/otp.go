package postgres

import (
	"context"
	"errors"

	"github.com/ButyrinIA/mindspace/internal/otp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OTPStore keeps pending registration codes in the otp_codes table.
type OTPStore struct {
	pool *pgxpool.Pool
}

func (s *OTPStore) Put(ctx context.Context, email string, entry otp.Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO otp_codes (email, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at`,
		email, entry.Code, entry.ExpiresAt)
	return err
}

func (s *OTPStore) Get(ctx context.Context, email string) (otp.Entry, error) {
	var e otp.Entry
	err := s.pool.QueryRow(ctx, `SELECT code, expires_at FROM otp_codes WHERE email=$1`, email).
		Scan(&e.Code, &e.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return otp.Entry{}, otp.ErrNotFound
	}
	return e, err
}

func (s *OTPStore) Delete(ctx context.Context, email string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM otp_codes WHERE email=$1`, email)
	return err
}
