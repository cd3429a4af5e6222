package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhildabhi034/assembly-inventory/internal/model"
)

const uniqueViolationCode = "23505"

var partColumns = []string{
	"id", "name", "type", "quantity_in_stock", "description", "created_at", "updated_at",
}

type repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

func NewPartRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) Create(ctx context.Context, p *model.Part) (uuid.UUID, error) {
	q := r.sb.
		Insert("parts").
		Columns("name", "type", "quantity_in_stock", "description").
		Values(p.Name, p.Type, p.QuantityInStock, p.Description).
		Suffix("RETURNING id, created_at, updated_at")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	err = r.db(ctx).QueryRow(ctx, sqlStr, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return uuid.Nil, model.ErrDuplicatePartName
		}
		return uuid.Nil, err
	}

	return p.ID, nil
}

func (r *repository) PartByID(ctx context.Context, id uuid.UUID) (*model.Part, error) {
	q := r.sb.
		Select(partColumns...).
		From("parts").
		Where(sq.Eq{"id": id})

	return r.queryPart(ctx, q)
}

// PartByIDForUpdate reads the part holding a write-exclusive row lock for
// the rest of the surrounding transaction. Callers must be inside InTx.
func (r *repository) PartByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Part, error) {
	q := r.sb.
		Select(partColumns...).
		From("parts").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE")

	return r.queryPart(ctx, q)
}

func (r *repository) PartByName(ctx context.Context, name string) (*model.Part, error) {
	q := r.sb.
		Select(partColumns...).
		From("parts").
		Where(sq.Eq{"name": name})

	return r.queryPart(ctx, q)
}

func (r *repository) PartsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Part, error) {
	q := r.sb.
		Select(partColumns...).
		From("parts").
		Where(sq.Eq{"id": ids})

	return r.queryParts(ctx, q)
}

func (r *repository) List(ctx context.Context) ([]model.Part, error) {
	q := r.sb.
		Select(partColumns...).
		From("parts").
		OrderBy("name ASC")

	return r.queryParts(ctx, q)
}

// AdjustStock applies a relative delta to the part's stock counter.
func (r *repository) AdjustStock(ctx context.Context, id uuid.UUID, delta int64) error {
	q := r.sb.
		Update("parts").
		Set("quantity_in_stock", sq.Expr("quantity_in_stock + ?", delta)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrPartNotFound
	}

	return nil
}

func (r *repository) CreateComponents(ctx context.Context, comps []model.PartComponent) error {
	if len(comps) == 0 {
		return nil
	}

	q := r.sb.
		Insert("part_components").
		Columns("assembled_part_id", "component_part_id", "quantity")
	for _, c := range comps {
		q = q.Values(c.AssembledPartID, c.ComponentPartID, c.Quantity)
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db(ctx).Exec(ctx, sqlStr, args...); err != nil {
		return err
	}

	return nil
}

func (r *repository) ComponentsByAssembledID(ctx context.Context, id uuid.UUID) ([]model.PartComponent, error) {
	q := r.sb.
		Select("id", "assembled_part_id", "component_part_id", "quantity").
		From("part_components").
		Where(sq.Eq{"assembled_part_id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PartComponent
	for rows.Next() {
		var c model.PartComponent
		if err := rows.Scan(&c.ID, &c.AssembledPartID, &c.ComponentPartID, &c.Quantity); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// RequirementsByAssembledID returns the assembly's BOM edges joined with
// each component's name and current stock.
func (r *repository) RequirementsByAssembledID(ctx context.Context, id uuid.UUID) ([]model.ComponentRequirement, error) {
	q := r.requirementsQuery().
		Where(sq.Eq{"pc.assembled_part_id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ComponentRequirement
	for rows.Next() {
		var (
			assembledID uuid.UUID
			req         model.ComponentRequirement
		)
		if err := rows.Scan(&assembledID, &req.ComponentID, &req.Name, &req.PerUnit, &req.InStock); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// RequirementsByAssembledIDs batches the component lookup for a set of
// assemblies in one query, grouped by assembly id.
func (r *repository) RequirementsByAssembledIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.ComponentRequirement, error) {
	out := make(map[uuid.UUID][]model.ComponentRequirement, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	q := r.requirementsQuery().
		Where(sq.Eq{"pc.assembled_part_id": ids})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			assembledID uuid.UUID
			req         model.ComponentRequirement
		)
		if err := rows.Scan(&assembledID, &req.ComponentID, &req.Name, &req.PerUnit, &req.InStock); err != nil {
			return nil, err
		}
		out[assembledID] = append(out[assembledID], req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *repository) requirementsQuery() sq.SelectBuilder {
	return r.sb.
		Select(
			"pc.assembled_part_id",
			"pc.component_part_id",
			"p.name",
			"pc.quantity",
			"p.quantity_in_stock",
		).
		From("part_components AS pc").
		Join("parts AS p ON p.id = pc.component_part_id").
		OrderBy("p.name ASC")
}

func (r *repository) queryPart(ctx context.Context, q sq.SelectBuilder) (*model.Part, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var p model.Part
	err = r.db(ctx).QueryRow(ctx, sqlStr, args...).Scan(
		&p.ID,
		&p.Name,
		&p.Type,
		&p.QuantityInStock,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPartNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *repository) queryParts(ctx context.Context, q sq.SelectBuilder) ([]model.Part, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Part
	for rows.Next() {
		var p model.Part
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Type,
			&p.QuantityInStock,
			&p.Description,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
