package mail

// Command names for IMAP commands this client issues.
const (
	// Any state commands
	CommandCapability = "CAPABILITY"
	CommandNoop       = "NOOP"
	CommandLogout     = "LOGOUT"

	// Not authenticated state commands
	CommandStartTLS     = "STARTTLS"
	CommandAuthenticate = "AUTHENTICATE"
	CommandLogin        = "LOGIN"

	// Authenticated state commands
	CommandEnable      = "ENABLE"
	CommandSelect      = "SELECT"
	CommandExamine     = "EXAMINE"
	CommandCreate      = "CREATE"
	CommandDelete      = "DELETE"
	CommandRename      = "RENAME"
	CommandSubscribe   = "SUBSCRIBE"
	CommandUnsubscribe = "UNSUBSCRIBE"
	CommandList        = "LIST"
	CommandLsub        = "LSUB"
	CommandStatus      = "STATUS"
	CommandAppend      = "APPEND"
	CommandIdle        = "IDLE"
	CommandID          = "ID"

	// Selected state commands
	CommandClose   = "CLOSE"
	CommandExpunge = "EXPUNGE"
	CommandSearch  = "SEARCH"
	CommandFetch   = "FETCH"
	CommandStore   = "STORE"
	CommandCopy    = "COPY"
	CommandMove    = "MOVE"
	CommandSort    = "SORT"
	CommandThread  = "THREAD"
	CommandUID     = "UID"

	// Extension commands
	CommandSetMetadata = "SETMETADATA"
	CommandGetMetadata = "GETMETADATA"
)
