// Package role defines the sender roles used in agent conversations.
package role

// Role identifies who produced a message: the system prompt, the user
// query, the model, or a tool result fed back to the model.
type Role string

const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
	Tool      Role = "tool"
)

// String returns the underlying string value of the role.
func (r Role) String() string {
	return string(r)
}
