package adminauth

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Principals is the store backing the provisioning workflow and the guard.
// The guard's lookups re-hit this repository on every request; the workflow's
// mutations go through the Tx variants so the population-count check and the
// insert are one transaction.
type Principals interface {
	repository.Repository[*Principal]

	Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error)
	CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error)

	GetByEmail(ctx context.Context, email string) (*Principal, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*Principal, error)
	GetByEmailOrUsernameTx(ctx context.Context, tx bun.IDB, email, username string) (*Principal, error)
	GetActiveByID(ctx context.Context, id uuid.UUID) (*Principal, error)
	GetByIDAndRole(ctx context.Context, id uuid.UUID, role Role) (*Principal, error)
	GetByIDAndRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role Role) (*Principal, error)

	ListByRoleAndStatus(ctx context.Context, role Role, status RequestStatus) ([]*Principal, error)
	ListSubAdmins(ctx context.Context) ([]*Principal, error)

	Create(ctx context.Context, record *Principal, criteria ...repository.InsertCriteria) (*Principal, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Principal, criteria ...repository.InsertCriteria) (*Principal, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status RequestStatus) (*Principal, error)
	UpdateRequestStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status RequestStatus) (*Principal, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*Principal, error)
	SetActiveTx(ctx context.Context, tx bun.IDB, id uuid.UUID, active bool) (*Principal, error)
	DeleteSubAdmin(ctx context.Context, id uuid.UUID) (*Principal, error)
	DeleteSubAdminTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Principal, error)
}

type principals struct {
	repository.Repository[*Principal]
	db *bun.DB
}

var (
	_ Principals                        = (*principals)(nil)
	_ repository.Repository[*Principal] = (*principals)(nil)
)

func NewPrincipalsRepository(db *bun.DB) Principals {
	repo := repository.NewRepository[*Principal](db, repository.ModelHandlers[*Principal]{
		NewRecord: func() *Principal { return &Principal{} },
		GetID: func(p *Principal) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Principal, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &principals{
		Repository: repo,
		db:         db,
	}
}

func (a *principals) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	return a.CountTx(ctx, a.db, criteria...)
}

func (a *principals) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	q := tx.NewSelect().Model((*Principal)(nil))
	for _, c := range criteria {
		q = c(q)
	}
	return q.Count(ctx)
}

func (a *principals) GetByEmail(ctx context.Context, email string) (*Principal, error) {
	record := &Principal{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", normalizeIdentifier(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *principals) GetByEmailOrUsername(ctx context.Context, email, username string) (*Principal, error) {
	return a.GetByEmailOrUsernameTx(ctx, a.db, email, username)
}

func (a *principals) GetByEmailOrUsernameTx(ctx context.Context, tx bun.IDB, email, username string) (*Principal, error) {
	record := &Principal{}
	err := tx.NewSelect().
		Model(record).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.email = ?", normalizeIdentifier(email)).
				WhereOr("?TableAlias.username = ?", strings.TrimSpace(username))
		}).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email, "username": username})
		}
		return nil, err
	}

	return record, nil
}

// GetActiveByID is the guard's lookup: the is_active filter means deactivated
// and deleted principals are indistinguishable from forged ids.
func (a *principals) GetActiveByID(ctx context.Context, id uuid.UUID) (*Principal, error) {
	record := &Principal{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.is_active = ?", true).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *principals) GetByIDAndRole(ctx context.Context, id uuid.UUID, role Role) (*Principal, error) {
	return a.GetByIDAndRoleTx(ctx, a.db, id, role)
}

func (a *principals) GetByIDAndRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role Role) (*Principal, error) {
	record := &Principal{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.principal_role = ?", role).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String(), "role": role})
		}
		return nil, err
	}

	return record, nil
}

// ListByRoleAndStatus returns matches ordered by creation time ascending; the
// original left ordering to the store default, which made reviews jumpy.
func (a *principals) ListByRoleAndStatus(ctx context.Context, role Role, status RequestStatus) ([]*Principal, error) {
	var records []*Principal
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.principal_role = ?", role).
		Where("?TableAlias.request_status = ?", status).
		Order("pr.created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *principals) ListSubAdmins(ctx context.Context) ([]*Principal, error) {
	var records []*Principal
	err := a.db.NewSelect().
		Model(&records).
		Relation("CreatedBy").
		Where("?TableAlias.principal_role = ?", RoleSubAdmin).
		Order("pr.created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *principals) Create(ctx context.Context, record *Principal, criteria ...repository.InsertCriteria) (*Principal, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *principals) CreateTx(ctx context.Context, tx bun.IDB, record *Principal, criteria ...repository.InsertCriteria) (*Principal, error) {
	preparePrincipalDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *principals) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status RequestStatus) (*Principal, error) {
	return a.UpdateRequestStatusTx(ctx, a.db, id, status)
}

func (a *principals) UpdateRequestStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status RequestStatus) (*Principal, error) {
	record := &Principal{
		ID:            id,
		RequestStatus: status,
	}

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

func (a *principals) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Principal, error) {
	return a.SetActiveTx(ctx, a.db, id, active)
}

func (a *principals) SetActiveTx(ctx context.Context, tx bun.IDB, id uuid.UUID, active bool) (*Principal, error) {
	// NOTE: the ORM update path drops zero-value fields, which makes
	// deactivation (is_active = FALSE) a no-op. Raw SQL sidesteps it.
	res, err := a.Repository.RawTx(ctx, tx, setActiveSQL, active, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return res[0], nil
}

var setActiveSQL = `UPDATE "principals" AS "pr"
SET
	"is_active" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"pr"."id" = ?
RETURNING *;`

func (a *principals) DeleteSubAdmin(ctx context.Context, id uuid.UUID) (*Principal, error) {
	return a.DeleteSubAdminTx(ctx, a.db, id)
}

// DeleteSubAdminTx hard-deletes the record, and only when the target is a sub
// admin; a super admin id passes through untouched and reports not found.
func (a *principals) DeleteSubAdminTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Principal, error) {
	record, err := a.GetByIDAndRoleTx(ctx, tx, id, RoleSubAdmin)
	if err != nil {
		return nil, err
	}

	_, err = tx.NewDelete().
		Model((*Principal)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.principal_role = ?", RoleSubAdmin).
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return record, nil
}

func preparePrincipalDefaults(record *Principal) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleSubAdmin
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
