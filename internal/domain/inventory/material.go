package inventory

import (
	"fmt"
	"strings"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// MaterialKind distinguishes the two ledgers a recipe can draw from
type MaterialKind string

const (
	MaterialKindRawMaterial     MaterialKind = "RAW_MATERIAL"
	MaterialKindFinishedProduct MaterialKind = "FINISHED_PRODUCT"
)

// IsValid checks if the material kind is known
func (k MaterialKind) IsValid() bool {
	switch k {
	case MaterialKindRawMaterial, MaterialKindFinishedProduct:
		return true
	}
	return false
}

// String returns the string representation
func (k MaterialKind) String() string {
	return string(k)
}

// MaterialRef points at a single material batch, either a raw material or a
// finished product used as an ingredient. Build it with RawMaterialRef or
// FinishedProductRef; the zero value refers to nothing.
type MaterialRef struct {
	kind MaterialKind
	id   uuid.UUID
}

// RawMaterialRef references a raw material batch
func RawMaterialRef(id uuid.UUID) MaterialRef {
	return MaterialRef{kind: MaterialKindRawMaterial, id: id}
}

// FinishedProductRef references a finished product batch
func FinishedProductRef(id uuid.UUID) MaterialRef {
	return MaterialRef{kind: MaterialKindFinishedProduct, id: id}
}

// NewMaterialRef rebuilds a reference from its persisted (kind, id) pair
func NewMaterialRef(kind MaterialKind, id uuid.UUID) (MaterialRef, error) {
	if !kind.IsValid() {
		return MaterialRef{}, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown material type %q", kind))
	}
	if id == uuid.Nil {
		return MaterialRef{}, shared.ErrInvalidInput.WithMessage("material id cannot be empty")
	}
	return MaterialRef{kind: kind, id: id}, nil
}

// Kind returns which ledger the reference points into
func (r MaterialRef) Kind() MaterialKind {
	return r.kind
}

// ID returns the referenced batch id
func (r MaterialRef) ID() uuid.UUID {
	return r.id
}

// IsZero reports whether the reference is unset
func (r MaterialRef) IsZero() bool {
	return r.kind == "" || r.id == uuid.Nil
}

// IsRawMaterial reports whether the reference points at a raw material
func (r MaterialRef) IsRawMaterial() bool {
	return r.kind == MaterialKindRawMaterial
}

// IsFinishedProduct reports whether the reference points at a finished product
func (r MaterialRef) IsFinishedProduct() bool {
	return r.kind == MaterialKindFinishedProduct
}

func (r MaterialRef) String() string {
	return string(r.kind) + ":" + r.id.String()
}

// NameKey folds a material name into the key used to group batches of the
// same material ("Flour", " flour " and "FLOUR" share one key).
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
