package contexts

import (
	"context"
	"runtime"
	"strconv"
	"sync"

	"github.com/turnbullerin/autoinject/internal/shared"
)

// Informant names used inside composite cache keys.
const (
	// GoroutineInformantName keys contexts by calling goroutine.
	GoroutineInformantName = "goroutine"
	// NamedInformantName keys contexts by a manually switched label.
	NamedInformantName = "named_context"
	// ScopeInformantName keys contexts by the ExecutionScope token
	// carried in the context.Context.
	ScopeInformantName = "task_scope"
)

// GoroutineInformant reports the identity of the calling goroutine, the
// closest Go analog of thread-local context: the token is automatically
// valid for the goroutine's lifetime and needs no setup. Goroutine exit
// cannot be observed, so hosts that spawn goroutines must release their
// caches through the injector's ThreadCleanup after the goroutine is done.
// The name field also keeps the struct non-zero-sized, so separately
// constructed informants are distinct interface values and deregistering
// one never removes another.
type GoroutineInformant struct {
	name string
}

// NewGoroutineInformant creates the goroutine-identity informant.
func NewGoroutineInformant() *GoroutineInformant {
	return &GoroutineInformant{name: GoroutineInformantName}
}

// Name implements shared.ContextInformant.
func (g *GoroutineInformant) Name() string { return g.name }

// ContextID implements shared.ContextInformant.
func (g *GoroutineInformant) ContextID(_ context.Context) shared.Token {
	return GoroutineToken(CurrentGoroutineID())
}

// GoroutineToken converts a goroutine id into its cache token.
func GoroutineToken(id uint64) shared.Token {
	return shared.Token(strconv.FormatUint(id, 10))
}

// CurrentGoroutineID returns the runtime id of the calling goroutine,
// parsed from the stack header ("goroutine N [running]:"). The id is
// stable for the goroutine's lifetime and never reused concurrently.
func CurrentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := buf[:n]

	// Skip "goroutine " and read digits up to the following space.
	const prefix = len("goroutine ")
	id := uint64(0)
	for i := prefix; i < len(header); i++ {
		c := header[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

// NamedInformant keys contexts by an explicitly switched label. It is
// useful for request-scoped isolation inside a single-threaded
// dispatcher: call SwitchContext at the top of each request and
// EndContext when the request finishes so its cached instances can be
// evicted on the next sweep.
type NamedInformant struct {
	current shared.Token
	expired []shared.Token
	mu      sync.Mutex
}

// NewNamedInformant creates a manual informant in the "_default" context.
func NewNamedInformant() *NamedInformant {
	return &NamedInformant{current: "_default"}
}

// Name implements shared.ContextInformant.
func (n *NamedInformant) Name() string { return NamedInformantName }

// ContextID implements shared.ContextInformant.
func (n *NamedInformant) ContextID(_ context.Context) shared.Token {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// SwitchContext changes the active label. Resolutions after the switch
// are cached separately from resolutions before it.
func (n *NamedInformant) SwitchContext(label string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = shared.Token(label)
}

// EndContext marks a label's context as finished. Its cached instances
// are evicted on the injector's next expiry sweep.
func (n *NamedInformant) EndContext(label string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired = append(n.expired, shared.Token(label))
}

// ExpiredContexts implements shared.ExpiryReporter. Each ended label is
// reported once.
func (n *NamedInformant) ExpiredContexts() []shared.Token {
	n.mu.Lock()
	defer n.mu.Unlock()
	expired := n.expired
	n.expired = nil
	return expired
}

// ScopeInformant reports the token of the ExecutionScope carried in the
// context.Context. Outside of any scope it reports the empty token, which
// matches across all callers, so code that never uses execution scopes is
// unaffected by this informant being registered.
// The name field keeps the struct non-zero-sized for the same reason as
// GoroutineInformant.
type ScopeInformant struct {
	name string
}

// NewScopeInformant creates the cooperative-task informant.
func NewScopeInformant() *ScopeInformant {
	return &ScopeInformant{name: ScopeInformantName}
}

// Name implements shared.ContextInformant.
func (s *ScopeInformant) Name() string { return s.name }

// ContextID implements shared.ContextInformant.
func (s *ScopeInformant) ContextID(ctx context.Context) shared.Token {
	scope, ok := ScopeFrom(ctx)
	if !ok {
		return shared.EmptyToken
	}
	return scope.Token()
}
