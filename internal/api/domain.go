package api

import (
	"context"
	"time"

	"github.com/SixtySecondsApp/use60-sub018/internal/audit"
	"github.com/SixtySecondsApp/use60-sub018/internal/demotions"
	"github.com/SixtySecondsApp/use60-sub018/internal/engine"
	"github.com/SixtySecondsApp/use60-sub018/internal/identity"
	"github.com/SixtySecondsApp/use60-sub018/internal/messaging"
	"github.com/SixtySecondsApp/use60-sub018/internal/promotions"
	"github.com/SixtySecondsApp/use60-sub018/internal/repmemory"
	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
	"github.com/SixtySecondsApp/use60-sub018/internal/trust"
)

const webhookTimeout = 10 * time.Second

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Identity identity.System
	Signals  signals.System
	Trust    trust.System
	Audit    audit.System
	Engine   *engine.Engine
}

// NewDomain creates all domain systems from the API runtime. Construction
// order follows the dependency chain: ledger and audit first, then the state
// machine, then the background collaborators that react to signals.
func NewDomain(ctx context.Context, runtime *Runtime) (*Domain, error) {
	db := runtime.Database.Connection()

	identitySystem, err := identity.New(ctx, runtime.Auth, db, runtime.Logger)
	if err != nil {
		return nil, err
	}

	signalsSystem := signals.New(db, runtime.Engine, runtime.Logger)
	auditSystem := audit.New(db, runtime.Logger, runtime.Pagination)
	trustSystem := trust.New(db, signalsSystem, auditSystem, runtime.Engine, runtime.Logger)

	store := messaging.NewStore(db)
	notifier := promotions.NewNotifier(
		store,
		store,
		messaging.NewWebhookSender(webhookTimeout),
		auditSystem,
		runtime.Logger,
	)

	evaluator := demotions.NewEvaluator(signalsSystem, trustSystem, runtime.Engine, runtime.Logger)
	projector := repmemory.NewProjector(db, trustSystem, runtime.Logger)

	pipeline := engine.New(
		runtime.Tasks,
		trustSystem,
		evaluator,
		notifier,
		projector,
		runtime.Logger,
	)

	return &Domain{
		Identity: identitySystem,
		Signals:  signalsSystem,
		Trust:    trustSystem,
		Audit:    auditSystem,
		Engine:   pipeline,
	}, nil
}
