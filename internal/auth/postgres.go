package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"shopcore.dev/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users(context.Context) UserStore       { return &pgUserStore{db: s.db} }
func (s *PGStore) Sessions(context.Context) SessionStore { return &pgSessionStore{db: s.db} }
func (s *PGStore) Audit(context.Context) AuditStore      { return &pgAuditStore{db: s.db} }

// User store ---------------------------------------------------------------
type pgUserStore struct{ db *sql.DB }

const userColumns = `id, merchant_id, email, password_hash, display_name, role, is_active, created_at, updated_at`

func (s *pgUserStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, merchant_id, email, password_hash, display_name, role, is_active) values($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.MerchantID, strings.ToLower(u.Email), nullIfEmpty(u.PasswordHash), u.DisplayName, string(u.Role), u.Active,
	)
	return err
}

func (s *pgUserStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *pgUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where lower(email)=lower($1)`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u    User
		hash sql.NullString
		role string
	)
	if err := row.Scan(&u.ID, &u.MerchantID, &u.Email, &hash, &u.DisplayName, &role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.PasswordHash = hash.String
	u.Role = Role(role)
	return &u, nil
}

// Session store ------------------------------------------------------------
type pgSessionStore struct{ db *sql.DB }

func (s *pgSessionStore) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into sessions(id, user_id, remote_addr, expires_at) values($1,$2,$3,$4)`,
		sess.ID, sess.UserID, sess.RemoteAddr, sess.ExpiresAt,
	)
	return err
}

// Audit store --------------------------------------------------------------
type pgAuditStore struct{ db *sql.DB }

func (s *pgAuditStore) Append(ctx context.Context, entry *AuditEntry) error {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	meta, _ := json.Marshal(entry.Metadata)
	_, err := s.db.ExecContext(ctx,
		`insert into audit_log(id, action, actor_user_id, remote_addr, metadata) values($1,$2,$3,$4,$5)`,
		entry.ID, entry.Action, nullIfEmpty(entry.ActorUserID), entry.RemoteAddr, meta,
	)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
