package navigator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fines/internal/auth"
	"fines/internal/log"
	"fines/internal/metrics"
	"fines/internal/session"
)

// Operator identifies who pressed a button.
type Operator struct {
	ID       int64
	Username string
}

// Event is one inbound interaction: either a session start or a token.
type Event struct {
	Operator Operator
	Start    bool
	Token    string
}

// RoleResolver is satisfied by *auth.Resolver.
type RoleResolver interface {
	Resolve(ctx context.Context, userID int64) (auth.Role, error)
}

type Navigator struct {
	machine  *Machine
	roles    RoleResolver
	sessions session.Store
	metrics  *metrics.Metrics
	logger   *log.Logger
}

func New(machine *Machine, roles RoleResolver, sessions session.Store, m *metrics.Metrics, logger *log.Logger) *Navigator {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Navigator{
		machine:  machine,
		roles:    roles,
		sessions: sessions,
		metrics:  m,
		logger:   logger.WithComponent(log.ComponentNavigator),
	}
}

// Handle processes one event. It always returns a screen to show; the error
// is non-nil only when storage failed, in which case the screen is the
// generic failure screen.
func (n *Navigator) Handle(ctx context.Context, ev Event) (Screen, error) {
	start := time.Now()
	logger := n.logger.With(
		log.FieldCorrelationID, uuid.NewString(),
		log.FieldOperatorID, ev.Operator.ID,
	)
	ctx = log.NewContext(ctx, logger)

	role, err := n.roles.Resolve(ctx, ev.Operator.ID)
	if err != nil {
		// Resolve already fell back to Viewer.
		logger.WarnContext(ctx, "Role resolution degraded", log.FieldError, err, log.FieldErrorType, log.ErrorTypeAuth)
	}

	if ev.Start {
		logger.InfoContext(ctx, "Session started", log.FieldUsername, ev.Operator.Username, log.FieldRole, role.String())
		n.metrics.ObserveAction("start", metrics.OutcomeOK, start)
		return n.machine.Start(role, ev.Operator.Username), nil
	}

	action, err := Decode(ev.Token)
	if err != nil {
		logger.WarnContext(ctx, "Invalid action token", log.FieldAction, ev.Token, log.FieldError, err)
		n.metrics.ObserveAction("invalid", metrics.OutcomeInvalid, start)
		return InvalidActionScreen(), nil
	}
	kind := action.Kind()
	logger = logger.With(log.FieldAction, kind)

	if action.Privileged() && !role.IsAdmin() {
		logger.WarnContext(ctx, "Privileged action denied", log.FieldRole, role.String())
		n.metrics.ObserveAction(kind, metrics.OutcomeDenied, start)
		return AccessDeniedScreen(), nil
	}

	sel, err := n.sessions.Load(ctx, ev.Operator.ID)
	if err != nil {
		return n.fail(ctx, logger, kind, start, log.ErrorTypeDatabase, "Session load failed", err)
	}

	out, err := n.machine.Transition(ctx, Input{Action: action, Role: role, Selection: sel})
	if err != nil {
		return n.fail(ctx, logger, kind, start, log.ErrorTypeDatabase, "Ledger operation failed", err)
	}

	if out.Selection != sel {
		if err := n.sessions.Save(ctx, ev.Operator.ID, out.Selection); err != nil {
			// The transition already happened; show its result anyway.
			logger.ErrorContext(ctx, "Session save failed", log.FieldError, err, log.FieldErrorType, log.ErrorTypeDatabase)
		}
	}

	sl := log.NewStructuredLogger(logger)
	if f := out.Recorded; f != nil {
		sl.LogFineRecorded(ctx, ev.Operator.ID, f.ID, f.Employee, f.Amount, f.Reason, string(f.Month))
		n.metrics.IncrementFineRecorded(f.Amount)
	}
	if f := out.Removed; f != nil {
		sl.LogFineRemoved(ctx, ev.Operator.ID, f.ID, f.Employee, f.Amount, f.Reason, string(f.Month))
		n.metrics.IncrementFineRemoved()
	}

	logger.DebugContext(ctx, "Action handled", log.FieldDuration, time.Since(start).Milliseconds())
	n.metrics.ObserveAction(kind, metrics.OutcomeOK, start)
	return out.Screen, nil
}

func (n *Navigator) fail(ctx context.Context, logger *log.Logger, kind string, start time.Time, errorType, msg string, err error) (Screen, error) {
	if errors.Is(err, context.Canceled) {
		logger.WarnContext(ctx, msg, log.FieldError, err)
	} else {
		log.NewStructuredLogger(logger).LogError(ctx, msg, err, errorType, log.OpHandle, nil)
	}
	n.metrics.ObserveAction(kind, metrics.OutcomeError, start)
	return FailureScreen(), err
}
