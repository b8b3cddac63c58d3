package payments

import "log"

// Plan is internal plan metadata for one gateway order form.
type Plan struct {
	ExternalID   string
	Type         string
	DisplayName  string
	NominalPrice float64
}

// Catalog maps gateway plan identifiers (the order form name on the wire) to
// internal plan metadata. The table is static and loaded at startup.
type Catalog struct {
	plans map[string]Plan
}

func NewCatalog(plans ...Plan) *Catalog {
	table := make(map[string]Plan, len(plans))
	for _, plan := range plans {
		table[plan.ExternalID] = plan
	}
	return &Catalog{plans: table}
}

// DefaultCatalog returns the plans currently sold on the directory.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Plan{ExternalID: "model-basic", Type: "model-basic", DisplayName: "Model Basic", NominalPrice: 9.90},
		Plan{ExternalID: "model-premium", Type: "model-premium", DisplayName: "Model Premium", NominalPrice: 29},
		Plan{ExternalID: "model-pro", Type: "model-pro", DisplayName: "Model Pro", NominalPrice: 49},
	)
}

// Resolve maps a gateway plan id to internal plan metadata. Unknown ids never
// fail the event: the plan is synthesized from the id itself with the billed
// amount as price, and logged so unrecognized forms can be added to the table.
func (c *Catalog) Resolve(externalID string, fallbackAmount float64) Plan {
	if plan, ok := c.plans[externalID]; ok {
		return plan
	}

	log.Printf("payments: unknown plan %q, tracking with billed amount %.2f", externalID, fallbackAmount)
	return Plan{
		ExternalID:   externalID,
		Type:         externalID,
		DisplayName:  externalID,
		NominalPrice: fallbackAmount,
	}
}
