package ledger

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models/events"
)

// IsAdmin reports whether id may record income and expenses.
func (l *Ledger) IsAdmin(id models.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.isAdmin(id)
}

// isAdmin expects writeMu or mu to be held.
func (l *Ledger) isAdmin(id models.Address) bool {
	if id == l.owner {
		return true
	}
	_, ok := l.admins[id]
	return ok
}

// AddAdmin grants admin rights to id. Only the owner may call it; granting to an
// existing admin succeeds without changing anything.
func (l *Ledger) AddAdmin(ctx context.Context, caller, id models.Address) (events.AdminAdded, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.AddAdmin")
	defer span.End()
	span.SetAttributes(attribute.String("caller", caller.String()), attribute.String("admin", id.String()))

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if caller != l.owner {
		span.SetStatus(codes.Error, ErrUnauthorized.Error())
		return events.AdminAdded{}, fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, caller)
	}
	if !id.Valid() || id.IsZero() {
		span.SetStatus(codes.Error, ErrInvalidOperation.Error())
		return events.AdminAdded{}, fmt.Errorf("%w: cannot grant admin to %q", ErrInvalidOperation, id)
	}

	changed := !l.isAdmin(id)
	if changed {
		if err := l.store.SaveAdmin(ctx, id); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save admin")
			return events.AdminAdded{}, fmt.Errorf("save admin: %w", err)
		}
		l.mu.Lock()
		l.admins[id] = struct{}{}
		l.mu.Unlock()
	}

	ev := events.AdminAdded{
		Address:    id.String(),
		AddedBy:    caller.String(),
		Changed:    changed,
		OccurredAt: l.clock().UTC(),
	}
	l.publish(ctx, events.TopicAdminAdded, id.String(), ev)
	l.logger.Info("admin added", zap.String("admin", id.String()), zap.Bool("changed", changed))

	return ev, nil
}

// RemoveAdmin revokes admin rights from id. The owner cannot be removed; removing
// an address that is not an admin is a no-op.
func (l *Ledger) RemoveAdmin(ctx context.Context, caller, id models.Address) (events.AdminRemoved, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.RemoveAdmin")
	defer span.End()
	span.SetAttributes(attribute.String("caller", caller.String()), attribute.String("admin", id.String()))

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if caller != l.owner {
		span.SetStatus(codes.Error, ErrUnauthorized.Error())
		return events.AdminRemoved{}, fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, caller)
	}
	if id == l.owner {
		span.SetStatus(codes.Error, ErrInvalidOperation.Error())
		return events.AdminRemoved{}, fmt.Errorf("%w: the owner is always an admin", ErrInvalidOperation)
	}

	_, changed := l.admins[id]
	if changed {
		if err := l.store.DeleteAdmin(ctx, id); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "delete admin")
			return events.AdminRemoved{}, fmt.Errorf("delete admin: %w", err)
		}
		l.mu.Lock()
		delete(l.admins, id)
		l.mu.Unlock()
	}

	ev := events.AdminRemoved{
		Address:    id.String(),
		RemovedBy:  caller.String(),
		Changed:    changed,
		OccurredAt: l.clock().UTC(),
	}
	l.publish(ctx, events.TopicAdminRemoved, id.String(), ev)
	l.logger.Info("admin removed", zap.String("admin", id.String()), zap.Bool("changed", changed))

	return ev, nil
}
