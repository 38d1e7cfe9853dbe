package ports

import (
	"context"

	"github.com/aretw0/pvm/pkg/domain"
)

// DefinitionRepository resolves process definitions. Definitions are shared
// read-only by every instance started from them.
type DefinitionRepository interface {
	// Definition returns the definition with the id.
	// Returns domain.ErrDefinitionNotFound if there is none.
	Definition(ctx context.Context, id string) (*domain.ProcessDefinition, error)

	// ListDefinitions returns the ids of every known definition, sorted.
	ListDefinitions(ctx context.Context) ([]string, error)
}
