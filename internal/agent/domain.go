// Package agent translates free-text administration commands into RBAC
// mutations through a language model.
package agent

// ActionType identifies one of the bounded action shapes the model may emit.
type ActionType string

const (
	ActionCreateRole       ActionType = "CREATE_ROLE"
	ActionCreatePermission ActionType = "CREATE_PERMISSION"
	ActionAssignPermission ActionType = "ASSIGN_PERMISSION"
)

// Action is one entry of the model's action array. The zero Type (or any type
// outside the vocabulary) marks an unrecognised action, which the reconciler
// skips without emitting a result line.
type Action struct {
	Type        ActionType `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Role        string     `json:"role"`
	Permission  string     `json:"permission"`
}

// AutoCreatedDescription is the placeholder stored when ASSIGN_PERMISSION has
// to create the permission it references.
const AutoCreatedDescription = "Auto-created by agent"
