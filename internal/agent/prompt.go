package agent

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are an RBAC (Role-Based Access Control) administrator assistant.
Your job is to interpret natural language commands and output a JSON array of actions to execute.

Current Roles: [%s]
Current Permissions: [%s]

Supported Actions:
1. CREATE_ROLE: { "type": "CREATE_ROLE", "name": "...", "description": "..." }
2. CREATE_PERMISSION: { "type": "CREATE_PERMISSION", "name": "...", "description": "..." } // name should be key-like e.g. posts:edit
3. ASSIGN_PERMISSION: { "type": "ASSIGN_PERMISSION", "role": "...", "permission": "..." } // use exact names if they exist, or they will be created

Rules:
- If a role or permission already exists, do not try to create it again, just use it for assignment.
- If the user asks to assign a permission that doesn't exist, create it first.
- Output ONLY valid JSON.

Command: "%s"`

// buildPrompt embeds the current name directory and the user's command.
func buildPrompt(roleNames, permissionNames []string, command string) string {
	return fmt.Sprintf(promptTemplate,
		strings.Join(roleNames, ", "),
		strings.Join(permissionNames, ", "),
		command,
	)
}
