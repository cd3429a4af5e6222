package model

import (
	"time"

	"github.com/google/uuid"
)

type PartType string

const (
	TypeRaw       PartType = "RAW"
	TypeAssembled PartType = "ASSEMBLED"
)

type Part struct {
	// Unique identifier of the part, generated by the store.
	ID uuid.UUID
	// Unique human-readable part name, 2-100 characters after trimming.
	Name string
	// RAW parts have no components; ASSEMBLED parts are built from other parts.
	Type PartType
	// Units currently on hand. Never negative.
	QuantityInStock int64
	// Optional free-form description, up to 500 characters.
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PartComponent is a directed BOM edge: the assembled part requires
// Quantity units of the component part per one unit built.
type PartComponent struct {
	ID              uuid.UUID
	AssembledPartID uuid.UUID
	ComponentPartID uuid.UUID
	Quantity        int64
}

// ComponentInput is one BOM entry of a part being created.
type ComponentInput struct {
	ID       uuid.UUID
	Quantity int64
}

type CreatePartParams struct {
	Name        string
	Type        PartType
	Description *string
	Components  []ComponentInput
}

// ComponentRef is the flattened component view attached to read responses.
type ComponentRef struct {
	ID       uuid.UUID
	Name     string
	Quantity int64
}

type PartWithComponents struct {
	Part
	// Direct components of an assembled part; nil for raw parts.
	Components []ComponentRef
}

// ComponentRequirement is a BOM edge joined with the component's current
// state, used to plan a build before any stock is touched.
type ComponentRequirement struct {
	ComponentID uuid.UUID
	Name        string
	// Units consumed per one unit of the assembly.
	PerUnit int64
	// Component stock at plan time, read inside the build transaction.
	InStock int64
}

type AdjustmentStatus string

const (
	StatusSuccess AdjustmentStatus = "SUCCESS"
	StatusFailed  AdjustmentStatus = "FAILED"
)

// AdjustQuantityResult is the outcome of a stock adjustment. Business
// failures (missing part, insufficient stock) are reported here rather
// than as errors: they are routine outcomes the caller must branch on.
type AdjustQuantityResult struct {
	Status  AdjustmentStatus
	Message string
}

// BuiltPart is the event published after a successful build of an
// assembled part.
type BuiltPart struct {
	EventID uuid.UUID
	PartID  uuid.UUID
	Name    string
	Units   int64
}
