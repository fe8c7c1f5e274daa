// Package login is the presence directory: which account is
// authenticated on which shard, with the single-active-session
// invariant enforced at TryLogin.
package login

import (
	"hash/fnv"
	"log"
	"sync"

	"github.com/gs-cluster/database"
	"github.com/gs-cluster/subscriber"
	"github.com/gs-cluster/wire"
)

const stripeCount = 32

// Policy decides whether an account may log in at all. The account
// store backs the default implementation; ban rules live outside the
// fabric.
type Policy interface {
	CanLogin(account string) bool
}

// StorePolicy refuses banned accounts. A store error fails closed:
// directory unavailability is fatal to new logins but never corrupts
// stored mappings.
type StorePolicy struct {
	Accounts database.AccountStore
}

// CanLogin CanLogin
func (p *StorePolicy) CanLogin(account string) bool {
	banned, err := p.Accounts.IsBanned(account)
	if err != nil {
		log.Println("login policy:", err)
		return false
	}
	return !banned
}

type stripe struct {
	mu       sync.Mutex
	sessions map[string]uint32
}

// Directory tracks account → hosting server id. Sessions are memory
// only and rebuilt after a restart. State is striped by account so
// unrelated logins never block each other.
type Directory struct {
	policy   Policy
	registry *subscriber.Registry
	stripes  [stripeCount]stripe
}

// NewDirectory NewDirectory
func NewDirectory(policy Policy, registry *subscriber.Registry) *Directory {
	d := &Directory{policy: policy, registry: registry}
	for i := range d.stripes {
		d.stripes[i].sessions = make(map[string]uint32)
	}
	return d
}

func (d *Directory) stripeOf(account string) *stripe {
	h := fnv.New32a()
	h.Write([]byte(account))
	return &d.stripes[h.Sum32()%stripeCount]
}

// TryLogin is the integrity checkpoint for one active session per
// account. A re-login on the same shard is idempotent success. A login
// while the account is live on a different shard first orders that
// shard to disconnect it; only then is the new mapping stored.
func (d *Directory) TryLogin(account string, serverID uint32) bool {
	if d.policy != nil && !d.policy.CanLogin(account) {
		return false
	}

	st := d.stripeOf(account)
	st.mu.Lock()
	defer st.mu.Unlock()

	prev, ok := st.sessions[account]
	if ok && prev != serverID {
		sub := d.registry.Get(prev)
		if sub != nil {
			if !sub.DisconnectAccount(account, wire.KillReasonDuplicateLogin) {
				log.Printf("login %v: eviction on server %v failed", account, prev)
				return false
			}
			log.Printf("login %v: evicted from server %v", account, prev)
		}
		// shard gone: the old mapping is stale, overwrite it
	}

	st.sessions[account] = serverID
	return true
}

// LogOff removes the mapping, but only when the calling shard still
// owns it. A stale logoff from a shard that lost the session is a
// no-op.
func (d *Directory) LogOff(account string, serverID uint32) {
	st := d.stripeOf(account)
	st.mu.Lock()
	if cur, ok := st.sessions[account]; ok && cur == serverID {
		delete(st.sessions, account)
	}
	st.mu.Unlock()
}

// Kick administratively disconnects an account from whichever shard
// hosts it and clears the mapping. False when the account is offline
// or the hosting shard refused the order.
func (d *Directory) Kick(account string) bool {
	st := d.stripeOf(account)
	st.mu.Lock()
	defer st.mu.Unlock()

	serverID, ok := st.sessions[account]
	if !ok {
		return false
	}
	if sub := d.registry.Get(serverID); sub != nil {
		if !sub.DisconnectAccount(account, wire.KillReasonAdmin) {
			log.Printf("kick %v: server %v refused", account, serverID)
			return false
		}
	}
	delete(st.sessions, account)
	return true
}

// ServerOf the hosting server id of an account, false when offline
func (d *Directory) ServerOf(account string) (uint32, bool) {
	st := d.stripeOf(account)
	st.mu.Lock()
	defer st.mu.Unlock()
	id, ok := st.sessions[account]
	return id, ok
}

// Snapshot a consistent point-in-time copy for diagnostics. Each
// stripe is held only for the duration of its copy.
func (d *Directory) Snapshot() map[string]uint32 {
	out := make(map[string]uint32)
	for i := range d.stripes {
		st := &d.stripes[i]
		st.mu.Lock()
		for account, id := range st.sessions {
			out[account] = id
		}
		st.mu.Unlock()
	}
	return out
}
