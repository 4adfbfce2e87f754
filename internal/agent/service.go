package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/accesshub/accesshub/internal/observability"
	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/rbac"
)

// Store is the slice of the RBAC service the reconciler reads and mutates.
type Store interface {
	RoleNames(ctx context.Context) ([]string, error)
	PermissionNames(ctx context.Context) ([]string, error)
	FindRoleByName(ctx context.Context, name string) (rbac.Role, error)
	FindPermissionByName(ctx context.Context, name string) (rbac.Permission, error)
	CreateRole(ctx context.Context, name, description string) (rbac.Role, error)
	CreatePermission(ctx context.Context, name, description string) (rbac.Permission, error)
	GrantExists(ctx context.Context, roleID, permissionID int64) (bool, error)
	GrantPermission(ctx context.Context, roleID, permissionID int64) (rbac.Grant, error)
}

var _ Store = (*rbac.Service)(nil)

// Service reconciles free-text commands against the RBAC store. Actions are
// applied strictly in model order because later actions may depend on entities
// created by earlier ones; each action is isolated so one failure does not
// void the batch.
type Service struct {
	logger    *slog.Logger
	store     Store
	completer Completer
	cache     *SnapshotCache
	metrics   *observability.Metrics
}

// NewService constructs the reconciler.
func NewService(logger *slog.Logger, store Store, completer Completer, cache *SnapshotCache, metrics *observability.Metrics) *Service {
	return &Service{logger: logger, store: store, completer: completer, cache: cache, metrics: metrics}
}

// Execute interprets the command and returns one human-readable result line
// per applied action, in action order.
func (s *Service) Execute(ctx context.Context, command string) ([]string, error) {
	invocation := uuid.NewString()

	snap, err := s.cache.Fetch(ctx, s.loadSnapshot)
	if err != nil {
		return nil, fmt.Errorf("agent: load directory: %w", err)
	}

	text, err := s.completer.Complete(ctx, buildPrompt(snap.Roles, snap.Permissions, command))
	if err != nil {
		return nil, fmt.Errorf("agent: model call: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCompletion
	}

	actions, err := parseActions(text)
	if err != nil {
		s.logger.Warn("unusable model completion",
			slog.String("invocation", invocation),
			slog.Any("error", err))
		return nil, err
	}

	results := make([]string, 0, len(actions))
	mutated := false
	for _, action := range actions {
		if s.applyAction(ctx, action, &results) {
			mutated = true
		}
	}
	if mutated {
		s.cache.Invalidate(ctx)
	}

	s.logger.Info("agent command reconciled",
		slog.String("invocation", invocation),
		slog.Int("actions", len(actions)),
		slog.Int("results", len(results)))
	return results, nil
}

// applyAction executes a single action, appending its result lines. It reports
// whether the directory of names changed.
func (s *Service) applyAction(ctx context.Context, action Action, results *[]string) bool {
	switch action.Type {
	case ActionCreateRole:
		return s.createRole(ctx, action, results)
	case ActionCreatePermission:
		return s.createPermission(ctx, action, results)
	case ActionAssignPermission:
		return s.assignPermission(ctx, action, results)
	default:
		// Unrecognised action types are dropped without a result line.
		s.count(action.Type, "skipped")
		return false
	}
}

func (s *Service) createRole(ctx context.Context, action Action, results *[]string) bool {
	_, err := s.store.FindRoleByName(ctx, action.Name)
	if err == nil {
		*results = append(*results, fmt.Sprintf("Role '%s' already exists", action.Name))
		s.count(action.Type, "exists")
		return false
	}
	if !errors.Is(err, httpx.ErrNotFound) {
		s.fail(action, err, results)
		return false
	}
	role, err := s.store.CreateRole(ctx, action.Name, action.Description)
	if err != nil {
		s.fail(action, err, results)
		return false
	}
	*results = append(*results, fmt.Sprintf("Created role '%s'", role.Name))
	s.count(action.Type, "created")
	return true
}

func (s *Service) createPermission(ctx context.Context, action Action, results *[]string) bool {
	_, err := s.store.FindPermissionByName(ctx, action.Name)
	if err == nil {
		*results = append(*results, fmt.Sprintf("Permission '%s' already exists", action.Name))
		s.count(action.Type, "exists")
		return false
	}
	if !errors.Is(err, httpx.ErrNotFound) {
		s.fail(action, err, results)
		return false
	}
	perm, err := s.store.CreatePermission(ctx, action.Name, action.Description)
	if err != nil {
		s.fail(action, err, results)
		return false
	}
	*results = append(*results, fmt.Sprintf("Created permission '%s'", perm.Name))
	s.count(action.Type, "created")
	return true
}

func (s *Service) assignPermission(ctx context.Context, action Action, results *[]string) bool {
	role, err := s.store.FindRoleByName(ctx, action.Role)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			// Roles are never created implicitly by assignment.
			*results = append(*results, fmt.Sprintf("Failed to assign: Role '%s' not found", action.Role))
			s.count(action.Type, "role_missing")
		} else {
			s.fail(action, err, results)
		}
		return false
	}

	mutated := false
	perm, err := s.store.FindPermissionByName(ctx, action.Permission)
	if errors.Is(err, httpx.ErrNotFound) {
		perm, err = s.store.CreatePermission(ctx, action.Permission, AutoCreatedDescription)
		if err != nil {
			s.fail(action, err, results)
			return false
		}
		*results = append(*results, fmt.Sprintf("Auto-created permission '%s'", perm.Name))
		s.count(action.Type, "auto_created")
		mutated = true
	} else if err != nil {
		s.fail(action, err, results)
		return false
	}

	exists, err := s.store.GrantExists(ctx, role.ID, perm.ID)
	if err != nil {
		s.fail(action, err, results)
		return mutated
	}
	if exists {
		*results = append(*results, fmt.Sprintf("'%s' is already assigned to '%s'", perm.Name, role.Name))
		s.count(action.Type, "already_assigned")
		return mutated
	}
	if _, err := s.store.GrantPermission(ctx, role.ID, perm.ID); err != nil {
		s.fail(action, err, results)
		return mutated
	}
	*results = append(*results, fmt.Sprintf("Assigned '%s' to '%s'", perm.Name, role.Name))
	s.count(action.Type, "assigned")
	return mutated
}

func (s *Service) fail(action Action, err error, results *[]string) {
	*results = append(*results, fmt.Sprintf("Error executing %s: %s", action.Type, err.Error()))
	s.count(action.Type, "failed")
}

func (s *Service) count(actionType ActionType, outcome string) {
	if s.metrics == nil {
		return
	}
	label := string(actionType)
	if label == "" {
		label = "UNKNOWN"
	}
	s.metrics.AgentAction(label, outcome)
}

func (s *Service) loadSnapshot(ctx context.Context) (Snapshot, error) {
	roles, err := s.store.RoleNames(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	perms, err := s.store.PermissionNames(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Roles: roles, Permissions: perms}, nil
}
