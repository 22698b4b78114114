package stage

import (
	"sort"

	"stagegate/domain/core"
)

// Type categorizes stages by lifecycle role
type Type string

const (
	TypeProgress        Type = "progress"         // ordered forward-moving stage
	TypeTerminalSuccess Type = "terminal_success" // won / signed
	TypeTerminalFailure Type = "terminal_failure" // lost / terminated
	TypeTerminalNeutral Type = "terminal_neutral" // pending / on hold
	TypeUnknown         Type = "unknown"          // id absent from the catalog
)

// IsTerminal reports whether the type is one of the terminal variants.
func (t Type) IsTerminal() bool {
	switch t {
	case TypeTerminalSuccess, TypeTerminalFailure, TypeTerminalNeutral:
		return true
	default:
		return false
	}
}

// Targetable reports whether a stage of this type may be committed as a
// future target. Neutral/pending stages are parked states, never goals.
func (t Type) Targetable() bool {
	return t == TypeProgress || t == TypeTerminalSuccess || t == TypeTerminalFailure
}

// RequiresConfirmation reports whether targeting a stage of this type
// should be surfaced for explicit confirmation before committing.
func (t Type) RequiresConfirmation() bool {
	return t == TypeTerminalFailure
}

// Definition describes one stage in a per-domain catalog.
// DisplayOrder is meaningful only for progress-type stages.
type Definition struct {
	ID           core.StageID `json:"id"`
	Name         string       `json:"name"`
	DisplayOrder *int         `json:"display_order,omitempty"`
	Type         Type         `json:"type"`
	Active       bool         `json:"active"`
}

// Catalog is the immutable, per-domain set of stage definitions.
// Lookups by unknown id never fail hard; they report TypeUnknown so the
// engine stays total.
type Catalog struct {
	domain string
	defs   []Definition
	byID   map[core.StageID]Definition
}

// NewCatalog builds a catalog for one domain. Definitions are kept in
// display order for progress stages, terminal stages after.
func NewCatalog(domain string, defs []Definition) (*Catalog, error) {
	if domain == "" {
		return nil, core.NewValidationError("catalog", "domain cannot be empty")
	}
	if len(defs) == 0 {
		return nil, core.NewValidationError("catalog", "must contain at least one stage")
	}

	byID := make(map[core.StageID]Definition, len(defs))
	for _, def := range defs {
		if def.ID.IsEmpty() {
			return nil, core.NewValidationError("stage", "id cannot be empty")
		}
		if _, dup := byID[def.ID]; dup {
			return nil, core.NewValidationError("stage", "duplicate stage id: "+def.ID.String())
		}
		if def.Type == TypeProgress && def.DisplayOrder == nil {
			return nil, core.NewValidationError("stage", "progress stage needs a display order: "+def.ID.String())
		}
		byID[def.ID] = def
	}

	sorted := make([]Definition, len(defs))
	copy(sorted, defs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].DisplayOrder, sorted[j].DisplayOrder
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		default:
			return false
		}
	})

	return &Catalog{domain: domain, defs: sorted, byID: byID}, nil
}

// Domain returns the domain this catalog describes (e.g. "pipeline").
func (c *Catalog) Domain() string { return c.domain }

// Definitions returns the catalog contents in display order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Lookup resolves a nullable stage id to its definition.
func (c *Catalog) Lookup(id *core.StageID) (Definition, bool) {
	if id == nil {
		return Definition{}, false
	}
	def, ok := c.byID[*id]
	return def, ok
}

// TypeOf returns the stage type for a nullable id, TypeUnknown when the
// id is nil or not in the catalog.
func (c *Catalog) TypeOf(id *core.StageID) Type {
	def, ok := c.Lookup(id)
	if !ok {
		return TypeUnknown
	}
	return def.Type
}

// NameOf returns the display name for a nullable id, or the raw id when
// it is not in the catalog.
func (c *Catalog) NameOf(id *core.StageID) string {
	def, ok := c.Lookup(id)
	if !ok {
		if id == nil {
			return ""
		}
		return id.String()
	}
	return def.Name
}

// OrderOf returns the display order of a progress stage. The second
// return is false for nil ids, unknown ids, and non-progress stages:
// order comparisons across types are never meaningful.
func (c *Catalog) OrderOf(id *core.StageID) (int, bool) {
	def, ok := c.Lookup(id)
	if !ok || def.Type != TypeProgress || def.DisplayOrder == nil {
		return 0, false
	}
	return *def.DisplayOrder, true
}

// OrderDelta returns to-minus-from between two progress stages.
// ok is false unless both sides carry a comparable order.
func (c *Catalog) OrderDelta(from, to *core.StageID) (delta int, ok bool) {
	fromOrder, okFrom := c.OrderOf(from)
	toOrder, okTo := c.OrderOf(to)
	if !okFrom || !okTo {
		return 0, false
	}
	return toOrder - fromOrder, true
}
