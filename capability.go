package mail

import (
	"strings"
	"sync"
)

// Cap represents an IMAP capability token as advertised in the
// CAPABILITY response or the greeting's capability text.
type Cap string

// Capabilities this client understands and acts on. Trimmed from the
// full IANA registry to the extensions this module actually implements
// (RFC 3501/9051 core, IDLE, NAMESPACE, ID, UIDPLUS, MOVE, CONDSTORE,
// QRESYNC, ENABLE, METADATA, LITERAL+/-, SORT/THREAD, SPECIAL-USE);
// capabilities with no client-facing operation (ACL, QUOTA, URLAUTH,
// CATENATE, NOTIFY, COMPRESS, ...) are not modeled — a server may still
// advertise them, they are simply never queried via Has.
const (
	// Core
	CapIMAP4rev1 Cap = "IMAP4rev1"
	CapIMAP4rev2 Cap = "IMAP4rev2"

	// Authentication mechanisms this client can drive (spec Non-goal:
	// no SASL beyond LOGIN/PLAIN/APOP; APOP is POP3-only and has no
	// AUTH= capability form).
	CapAuthPlain Cap = "AUTH=PLAIN"
	CapAuthLogin Cap = "AUTH=LOGIN"

	// RFC 4959 - SASL Initial Response
	CapSASLIR Cap = "SASL-IR"

	// RFC 2177 - IDLE
	CapIdle Cap = "IDLE"

	// RFC 2342 - Namespace
	CapNamespace Cap = "NAMESPACE"

	// RFC 2971 - ID
	CapID Cap = "ID"

	// RFC 3348 - Children
	CapChildren Cap = "CHILDREN"

	// RFC 3501 - STARTTLS / LOGINDISABLED
	CapStartTLS      Cap = "STARTTLS"
	CapLogindisabled Cap = "LOGINDISABLED"

	// RFC 4315 - UIDPLUS
	CapUIDPlus Cap = "UIDPLUS"

	// RFC 5161 - ENABLE
	CapEnable Cap = "ENABLE"

	// RFC 5256 - SORT / THREAD
	CapSort                 Cap = "SORT"
	CapThreadOrderedSubject Cap = "THREAD=ORDEREDSUBJECT"
	CapThreadReferences     Cap = "THREAD=REFERENCES"

	// RFC 5464 - METADATA / METADATA-SERVER
	CapMetadata       Cap = "METADATA"
	CapMetadataServer Cap = "METADATA-SERVER"

	// RFC 6154 - SPECIAL-USE / CREATE-SPECIAL-USE
	CapSpecialUse       Cap = "SPECIAL-USE"
	CapCreateSpecialUse Cap = "CREATE-SPECIAL-USE"

	// RFC 6851 - MOVE
	CapMove Cap = "MOVE"

	// RFC 7162 - CONDSTORE / QRESYNC
	CapCondStore Cap = "CONDSTORE"
	CapQResync   Cap = "QRESYNC"

	// RFC 7888 - LITERAL+ / LITERAL-
	CapLiteralPlus  Cap = "LITERAL+"
	CapLiteralMinus Cap = "LITERAL-"
)

// CapSet is a thread-safe set of IMAP capabilities, replaced wholesale
// whenever the server sends a fresh CAPABILITY response (e.g. after
// LOGIN or STARTTLS, since the pre-upgrade set is no longer trustworthy).
type CapSet struct {
	mu   sync.RWMutex
	caps map[Cap]bool
}

// NewCapSet creates a new CapSet with the given capabilities.
func NewCapSet(caps ...Cap) *CapSet {
	cs := &CapSet{caps: make(map[Cap]bool, len(caps))}
	for _, c := range caps {
		cs.caps[c] = true
	}
	return cs
}

// Has returns true if the set contains the given capability.
func (cs *CapSet) Has(cap Cap) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.caps[cap]
}

// Add adds capabilities to the set.
func (cs *CapSet) Add(caps ...Cap) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, c := range caps {
		cs.caps[c] = true
	}
}

// Remove removes capabilities from the set.
func (cs *CapSet) Remove(caps ...Cap) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, c := range caps {
		delete(cs.caps, c)
	}
}

// Reset replaces the set's contents entirely, used when a fresh
// CAPABILITY response invalidates whatever was known before.
func (cs *CapSet) Reset(caps ...Cap) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.caps = make(map[Cap]bool, len(caps))
	for _, c := range caps {
		cs.caps[c] = true
	}
}

// All returns all capabilities in the set as a slice.
func (cs *CapSet) All() []Cap {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	result := make([]Cap, 0, len(cs.caps))
	for c := range cs.caps {
		result = append(result, c)
	}
	return result
}

// Len returns the number of capabilities in the set.
func (cs *CapSet) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.caps)
}

// String returns the capabilities as a space-separated string.
func (cs *CapSet) String() string {
	caps := cs.All()
	strs := make([]string, len(caps))
	for i, c := range caps {
		strs[i] = string(c)
	}
	return strings.Join(strs, " ")
}

// Clone returns a copy of the capability set.
func (cs *CapSet) Clone() *CapSet {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	newCS := &CapSet{caps: make(map[Cap]bool, len(cs.caps))}
	for c := range cs.caps {
		newCS.caps[c] = true
	}
	return newCS
}

// HasAuth returns true if the set contains an AUTH= capability for the
// given mechanism name.
func (cs *CapSet) HasAuth(mechanism string) bool {
	return cs.Has(Cap("AUTH=" + strings.ToUpper(mechanism)))
}
