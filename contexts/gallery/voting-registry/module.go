package votingregistry

import (
	"log/slog"

	httpadapter "galleria/contexts/gallery/voting-registry/adapters/http"
	"galleria/contexts/gallery/voting-registry/adapters/memory"
	"galleria/contexts/gallery/voting-registry/application/commands"
	"galleria/contexts/gallery/voting-registry/application/queries"
	"galleria/contexts/gallery/voting-registry/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Registry *commands.RegistryUseCase
	Rankings queries.RankingUseCase
	Store    *memory.Store
}

type Dependencies struct {
	Subjects ports.SubjectRepository
	Ledger   ports.VoterLedger
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	registry := &commands.RegistryUseCase{
		Subjects: deps.Subjects,
		Ledger:   deps.Ledger,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	rankings := queries.RankingUseCase{
		Subjects: deps.Subjects,
	}
	return Module{
		Handler: httpadapter.Handler{
			Registry: registry,
			Rankings: rankings,
			Logger:   deps.Logger,
		},
		Registry: registry,
		Rankings: rankings,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Subjects: store,
		Ledger:   store,
		Clock:    store,
		IDGen:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}
