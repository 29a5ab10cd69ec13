package globals

// JwtSecret signs and validates every token the agent deals with. It is
// replaced from JWT_SECRET at startup.
var JwtSecret = []byte("change-me")

// Context keys
type ContextKey string

const UserIDKey ContextKey = "userId"
const RoleKey ContextKey = "role"
