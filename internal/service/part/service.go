package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/nikhildabhi034/assembly-inventory/internal/model"
	"github.com/nikhildabhi034/assembly-inventory/platform/logger"
)

const (
	minNameLen        = 2
	maxNameLen        = 100
	maxDescriptionLen = 500
)

type PartRepository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, p *model.Part) (uuid.UUID, error)
	PartByID(ctx context.Context, id uuid.UUID) (*model.Part, error)
	PartByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Part, error)
	PartByName(ctx context.Context, name string) (*model.Part, error)
	PartsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Part, error)
	List(ctx context.Context) ([]model.Part, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int64) error
	CreateComponents(ctx context.Context, comps []model.PartComponent) error
	ComponentsByAssembledID(ctx context.Context, id uuid.UUID) ([]model.PartComponent, error)
	RequirementsByAssembledID(ctx context.Context, id uuid.UUID) ([]model.ComponentRequirement, error)
	RequirementsByAssembledIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.ComponentRequirement, error)
}

type PartAssembledSender interface {
	SendPartAssembled(ctx context.Context, event model.BuiltPart) error
}

type service struct {
	repo           PartRepository
	events         PartAssembledSender
	readDBTimeout  time.Duration
	writeDBTimeout time.Duration
}

func NewPartService(
	repository PartRepository,
	events PartAssembledSender,
	readDBTimeout time.Duration,
	writeDBTimeout time.Duration,
) *service {
	return &service{
		repo:           repository,
		events:         events,
		readDBTimeout:  readDBTimeout,
		writeDBTimeout: writeDBTimeout,
	}
}

func (svc *service) Create(ctx context.Context, params model.CreatePartParams) (*model.Part, error) {
	const op = "part.service.Create"
	log := logger.With(
		logger.String("name", params.Name),
		logger.String("type", string(params.Type)),
	)

	params.Name = strings.TrimSpace(params.Name)
	if err := validateCreateParams(params); err != nil {
		log.Error(ctx, "wrong params", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	part := &model.Part{
		Name:            params.Name,
		Type:            params.Type,
		QuantityInStock: 0,
		Description:     params.Description,
	}

	txCtx, cancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer cancel()

	err := svc.repo.InTx(txCtx, func(ctx context.Context) error {
		if _, err := svc.repo.PartByName(ctx, part.Name); err == nil {
			return fmt.Errorf("%w: %q", model.ErrDuplicatePartName, part.Name)
		} else if !errors.Is(err, model.ErrPartNotFound) {
			return err
		}

		if _, err := svc.repo.Create(ctx, part); err != nil {
			return err
		}

		if part.Type != model.TypeAssembled {
			return nil
		}

		return svc.createComponents(ctx, part.ID, params.Components)
	})
	if err != nil {
		log.Error(ctx, "create part", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return part, nil
}

// createComponents persists the BOM edges of a freshly inserted assembly.
// Runs inside the creation transaction: any failure here rolls back the
// part row as well.
func (svc *service) createComponents(ctx context.Context, assemblyID uuid.UUID, components []model.ComponentInput) error {
	ids := lo.Uniq(lo.Map(components, func(c model.ComponentInput, _ int) uuid.UUID {
		return c.ID
	}))

	found, err := svc.repo.PartsByIDs(ctx, ids)
	if err != nil {
		return err
	}

	if len(found) != len(ids) {
		foundIDs := lo.SliceToMap(found, func(p model.Part) (uuid.UUID, struct{}) {
			return p.ID, struct{}{}
		})
		missing := lo.FilterMap(ids, func(id uuid.UUID, _ int) (string, bool) {
			_, ok := foundIDs[id]
			return id.String(), !ok
		})
		return fmt.Errorf("%w with IDs: %s", model.ErrComponentPartsNotFound, strings.Join(missing, ", "))
	}

	for _, id := range ids {
		cycle, err := svc.wouldCreateCycle(ctx, assemblyID, id)
		if err != nil {
			return err
		}
		if cycle {
			return model.ErrCircularDependency
		}
	}

	edges := lo.Map(components, func(c model.ComponentInput, _ int) model.PartComponent {
		return model.PartComponent{
			AssembledPartID: assemblyID,
			ComponentPartID: c.ID,
			Quantity:        c.Quantity,
		}
	})

	return svc.repo.CreateComponents(ctx, edges)
}

// wouldCreateCycle reports whether the edge assembly -> component would
// close a cycle. It walks existing edges outward from the candidate
// component with an explicit work stack; the visited set bounds the walk
// to O(V+E) even if the stored graph is already malformed.
func (svc *service) wouldCreateCycle(ctx context.Context, assemblyID, componentID uuid.UUID) (bool, error) {
	if assemblyID == componentID {
		return true, nil
	}

	visited := make(map[uuid.UUID]struct{})
	stack := []uuid.UUID{componentID}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur == assemblyID {
			return true, nil
		}
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}

		edges, err := svc.repo.ComponentsByAssembledID(ctx, cur)
		if err != nil {
			return false, err
		}
		for _, e := range edges {
			stack = append(stack, e.ComponentPartID)
		}
	}

	return false, nil
}

// AdjustQuantity applies a signed delta to a part's stock inside one
// transaction, holding a write lock on the part row. A positive delta on
// an assembled part is a build: every direct component is checked first,
// then deducted by edge quantity x delta. Business failures come back as
// a FAILED result, not an error.
func (svc *service) AdjustQuantity(ctx context.Context, partID uuid.UUID, delta int64) (*model.AdjustQuantityResult, error) {
	const op = "part.service.AdjustQuantity"
	log := logger.With(
		logger.String("part_id", partID.String()),
		logger.Int64("delta", delta),
	)

	var (
		part *model.Part
		res  *model.AdjustQuantityResult
	)

	txCtx, cancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer cancel()

	err := svc.repo.InTx(txCtx, func(ctx context.Context) error {
		var err error
		part, err = svc.repo.PartByIDForUpdate(ctx, partID)
		if err != nil {
			if errors.Is(err, model.ErrPartNotFound) {
				res = failed("Part not found")
			}
			return err
		}

		if delta < 0 && -delta > part.QuantityInStock {
			res = failed(fmt.Sprintf("Insufficient quantity for %s", part.Name))
			return model.ErrInsufficientQuantity
		}

		if part.Type == model.TypeAssembled && delta > 0 {
			reqs, err := svc.repo.RequirementsByAssembledID(ctx, part.ID)
			if err != nil {
				return err
			}

			// Check every component before touching any of them, so an
			// insufficient one never leaves the others partially deducted.
			// The overflow guard keeps PerUnit*delta from wrapping negative,
			// which would slip past the check and credit the component.
			for _, req := range reqs {
				if delta > math.MaxInt64/req.PerUnit || req.InStock < req.PerUnit*delta {
					res = failed(fmt.Sprintf("Insufficient quantity of %s", req.Name))
					return model.ErrInsufficientQuantity
				}
			}

			for _, req := range reqs {
				if err := svc.repo.AdjustStock(ctx, req.ComponentID, -req.PerUnit*delta); err != nil {
					return err
				}
			}
		}

		return svc.repo.AdjustStock(ctx, part.ID, delta)
	})
	if err != nil {
		if res != nil {
			log.Warn(ctx, "adjust quantity rejected", logger.String("reason", res.Message))
			return res, nil
		}

		// Storage detail stays in the log; callers only see the outcome.
		log.Error(ctx, "adjust quantity", logger.ErrorF(err))
		return failed("Update failed"), nil
	}

	if part.Type == model.TypeAssembled && delta > 0 {
		svc.sendPartAssembled(ctx, part, delta)
	}

	return &model.AdjustQuantityResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("Updated quantity for %s", part.Name),
	}, nil
}

// sendPartAssembled publishes the build event. The stock change is already
// committed at this point, so a publish failure only gets logged.
func (svc *service) sendPartAssembled(ctx context.Context, part *model.Part, units int64) {
	event := model.BuiltPart{
		EventID: uuid.New(),
		PartID:  part.ID,
		Name:    part.Name,
		Units:   units,
	}

	if err := svc.events.SendPartAssembled(ctx, event); err != nil {
		logger.Warn(ctx, "send part assembled event",
			logger.String("part_id", part.ID.String()),
			logger.ErrorF(err),
		)
	}
}

func (svc *service) PartByID(ctx context.Context, partID uuid.UUID) (*model.PartWithComponents, error) {
	const op = "part.service.PartByID"
	log := logger.With(
		logger.String("part_id", partID.String()),
	)

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	p, err := svc.repo.PartByID(ctx, partID)
	if err != nil {
		log.Error(ctx, "repository part by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := &model.PartWithComponents{Part: *p}
	if p.Type != model.TypeAssembled {
		return out, nil
	}

	reqs, err := svc.repo.RequirementsByAssembledID(ctx, p.ID)
	if err != nil {
		log.Error(ctx, "repository requirements by assembled id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out.Components = toComponentRefs(reqs)

	return out, nil
}

func (svc *service) List(ctx context.Context) ([]model.PartWithComponents, error) {
	const op = "part.service.List"

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	parts, err := svc.repo.List(ctx)
	if err != nil {
		logger.Error(ctx, "repository list parts", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	assembledIDs := lo.FilterMap(parts, func(p model.Part, _ int) (uuid.UUID, bool) {
		return p.ID, p.Type == model.TypeAssembled
	})

	// One batched lookup for all assemblies instead of a query per part.
	reqsByID := make(map[uuid.UUID][]model.ComponentRequirement)
	if len(assembledIDs) > 0 {
		reqsByID, err = svc.repo.RequirementsByAssembledIDs(ctx, assembledIDs)
		if err != nil {
			logger.Error(ctx, "repository requirements by assembled ids", logger.ErrorF(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return lo.Map(parts, func(p model.Part, _ int) model.PartWithComponents {
		out := model.PartWithComponents{Part: p}
		if p.Type == model.TypeAssembled {
			out.Components = toComponentRefs(reqsByID[p.ID])
		}
		return out
	}), nil
}

func validateCreateParams(params model.CreatePartParams) error {
	if n := utf8.RuneCountInString(params.Name); n < minNameLen || n > maxNameLen {
		return fmt.Errorf("%w: name must be %d-%d characters",
			model.ErrValidation, minNameLen, maxNameLen)
	}

	if params.Description != nil && utf8.RuneCountInString(*params.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description cannot exceed %d characters",
			model.ErrValidation, maxDescriptionLen)
	}

	switch params.Type {
	case model.TypeRaw:
		if len(params.Components) > 0 {
			return fmt.Errorf("%w: raw parts cannot have components", model.ErrValidation)
		}
	case model.TypeAssembled:
		if len(params.Components) == 0 {
			return fmt.Errorf("%w: assembled part must have at least one component", model.ErrValidation)
		}
		for _, c := range params.Components {
			if c.ID == uuid.Nil {
				return fmt.Errorf("%w: component part id is required", model.ErrValidation)
			}
			if c.Quantity < 1 {
				return fmt.Errorf("%w: component quantity must be at least 1", model.ErrValidation)
			}
		}
	default:
		return fmt.Errorf("%w: part type must be either RAW or ASSEMBLED", model.ErrValidation)
	}

	return nil
}

func failed(msg string) *model.AdjustQuantityResult {
	return &model.AdjustQuantityResult{Status: model.StatusFailed, Message: msg}
}

func toComponentRefs(reqs []model.ComponentRequirement) []model.ComponentRef {
	return lo.Map(reqs, func(r model.ComponentRequirement, _ int) model.ComponentRef {
		return model.ComponentRef{
			ID:       r.ComponentID,
			Name:     r.Name,
			Quantity: r.PerUnit,
		}
	})
}
