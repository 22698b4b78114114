package stage

import "stagegate/domain/core"

// Seed catalogs for the two shipped domains. The concrete ids here are
// seed data consumed by migrations and the testkit; the engine itself
// only ever sees whatever catalog it is handed.

const (
	DomainPipeline = "pipeline"
	DomainContract = "contract"
)

func orderPtr(n int) *int { return &n }

// SalesPipelineCatalog returns the stage catalog for sales-pipeline entities.
func SalesPipelineCatalog() *Catalog {
	c, err := NewCatalog(DomainPipeline, []Definition{
		{ID: "lead", Name: "Lead", DisplayOrder: orderPtr(1), Type: TypeProgress, Active: true},
		{ID: "qualified", Name: "Qualified", DisplayOrder: orderPtr(2), Type: TypeProgress, Active: true},
		{ID: "proposal", Name: "Proposal", DisplayOrder: orderPtr(3), Type: TypeProgress, Active: true},
		{ID: "negotiation", Name: "Negotiation", DisplayOrder: orderPtr(4), Type: TypeProgress, Active: true},
		{ID: "verbal_commit", Name: "Verbal Commit", DisplayOrder: orderPtr(5), Type: TypeProgress, Active: true},
		{ID: "won", Name: "Won", Type: TypeTerminalSuccess, Active: true},
		{ID: "lost", Name: "Lost", Type: TypeTerminalFailure, Active: true},
		{ID: "on_hold", Name: "On Hold", Type: TypeTerminalNeutral, Active: true},
	})
	if err != nil {
		// Seed data is fixed at compile time; a failure here is a programming error.
		panic(err)
	}
	return c
}

// ContractStatusCatalog returns the status catalog for contract entities.
func ContractStatusCatalog() *Catalog {
	c, err := NewCatalog(DomainContract, []Definition{
		{ID: "draft", Name: "Draft", DisplayOrder: orderPtr(1), Type: TypeProgress, Active: true},
		{ID: "legal_review", Name: "Legal Review", DisplayOrder: orderPtr(2), Type: TypeProgress, Active: true},
		{ID: "sent", Name: "Sent", DisplayOrder: orderPtr(3), Type: TypeProgress, Active: true},
		{ID: "countersigning", Name: "Countersigning", DisplayOrder: orderPtr(4), Type: TypeProgress, Active: true},
		{ID: "signed", Name: "Signed", Type: TypeTerminalSuccess, Active: true},
		{ID: "declined", Name: "Declined", Type: TypeTerminalFailure, Active: true},
		{ID: "suspended", Name: "Suspended", Type: TypeTerminalNeutral, Active: true},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// SeedCatalogs returns every shipped catalog keyed by domain.
func SeedCatalogs() map[string]*Catalog {
	return map[string]*Catalog{
		DomainPipeline: SalesPipelineCatalog(),
		DomainContract: ContractStatusCatalog(),
	}
}

// SeedCatalog looks up one shipped catalog by domain name.
func SeedCatalog(domain string) (*Catalog, error) {
	c, ok := SeedCatalogs()[domain]
	if !ok {
		return nil, core.NewNotFoundError("stage catalog", domain)
	}
	return c, nil
}
