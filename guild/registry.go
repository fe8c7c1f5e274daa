// Package guild owns guild structure, membership, alliance and
// hostility relations for the whole cluster. Runtime guild ids are
// assigned in memory and never persisted as foreign keys: the guild
// name is the stable identity, so independently-run realms can be
// merged without id collisions.
package guild

import (
	"log"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"

	"github.com/gs-cluster/database"
	"github.com/gs-cluster/subscriber"
	"github.com/gs-cluster/wire"
)

// Position member position. Exactly one GuildMaster exists per guild.
type Position uint8

// positions
const (
	PositionNormal Position = iota
	PositionGuildMaster
	PositionBattleMaster
)

// NamePolicy validates guild names; the real rules (charset, banned
// words) live outside the fabric.
type NamePolicy interface {
	ValidName(name string) bool
}

// LengthPolicy default policy: printable name of bounded length
type LengthPolicy struct {
	Max int
}

// ValidName ValidName
func (p *LengthPolicy) ValidName(name string) bool {
	max := p.Max
	if max == 0 {
		max = 20
	}
	if len(name) < 2 || len(name) > max {
		return false
	}
	return strings.TrimSpace(name) == name
}

type member struct {
	charID   uint32
	name     string
	serverID uint32
	position Position
	online   bool
}

type guildState struct {
	id       uint32
	name     string
	logo     []byte
	score    int
	notice   string
	createAt time.Time
	// runtime ids of the related guilds, zero when unset
	hostileID  uint32
	allianceID uint32
	members    map[uint32]*member
}

type alliance struct {
	id       uint32
	masterID uint32
	guilds   mapset.Set // runtime guild ids
}

// ListEntry one roster row: online members only
type ListEntry struct {
	CharID   uint32
	CharName string
	ServerID uint32
	Position Position
}

// Config registry collaborators
type Config struct {
	Store    database.GuildStore
	Registry *subscriber.Registry
	Policy   NamePolicy
}

// Registry Registry. One mutex guards all guild state: alliance and
// hostility operations span several guilds, so per-guild locking would
// deadlock or race the master designation.
type Registry struct {
	config Config

	mu        sync.Mutex
	guilds    map[uint32]*guildState
	byName    map[string]uint32
	alliances map[uint32]*alliance

	nextGuildID    uint32
	nextAllianceID uint32
}

// NewRegistry create a registry and populate it from persistence.
// Every loaded member starts offline.
func NewRegistry(config Config) *Registry {
	if config.Policy == nil {
		config.Policy = &LengthPolicy{}
	}
	r := &Registry{
		config:    config,
		guilds:    make(map[uint32]*guildState),
		byName:    make(map[string]uint32),
		alliances: make(map[uint32]*alliance),
	}
	r.load()
	return r
}

func nameKey(name string) string { return strings.ToLower(name) }

func (r *Registry) load() {
	if r.config.Store == nil {
		return
	}
	records, err := r.config.Store.GetGuilds()
	if err != nil {
		log.Println("guild load:", err)
		return
	}
	for i := range records {
		rec := &records[i]
		g := r.addGuildLocked(rec)
		members, err := r.config.Store.MembersOf(rec.Name)
		if err != nil {
			log.Println("guild load:", err)
			continue
		}
		for _, m := range members {
			g.members[m.CharID] = &member{charID: m.CharID, name: m.CharName, position: Position(m.Position)}
		}
	}
	// second pass: hostility and alliance references resolve by name
	for i := range records {
		rec := &records[i]
		g := r.guilds[r.byName[nameKey(rec.Name)]]
		if rec.Hostile != "" {
			if id, ok := r.byName[nameKey(rec.Hostile)]; ok {
				g.hostileID = id
			}
		}
		if rec.Alliance != "" {
			if masterID, ok := r.byName[nameKey(rec.Alliance)]; ok {
				r.joinAllianceLocked(g.id, masterID)
			}
		}
	}
}

func (r *Registry) addGuildLocked(rec *database.GuildRecord) *guildState {
	r.nextGuildID++
	g := &guildState{
		id:       r.nextGuildID,
		name:     rec.Name,
		logo:     rec.Logo,
		score:    rec.Score,
		notice:   rec.Notice,
		createAt: rec.CreateAt,
		members:  make(map[uint32]*member),
	}
	r.guilds[g.id] = g
	r.byName[nameKey(rec.Name)] = g.id
	return g
}

// GuildExists case-insensitive name check
func (r *Registry) GuildExists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byName[nameKey(name)]
	return ok
}

// GetGuildIDByName runtime id of a guild, false when unknown
func (r *Registry) GetGuildIDByName(name string) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byName[nameKey(name)]
	return id, ok
}

// CreateGuild creates the guild and the founder's GuildMaster
// membership, and marks the founder online on serverID. The caller
// must not additionally report the founder entering the game.
func (r *Registry) CreateGuild(name, masterName string, masterID uint32, logo []byte, serverID uint32) bool {
	if !r.config.Policy.ValidName(name) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[nameKey(name)]; ok {
		return false
	}

	rec := &database.GuildRecord{Name: name, Logo: logo, CreateAt: time.Now()}
	if r.config.Store != nil {
		if err := r.config.Store.SaveGuild(rec); err != nil {
			log.Println("create guild:", err)
			return false
		}
		if err := r.config.Store.SaveMember(&database.GuildMemberRecord{
			GuildName: name, CharID: masterID, CharName: masterName, Position: uint8(PositionGuildMaster),
		}); err != nil {
			log.Println("create guild:", err)
		}
	}

	g := r.addGuildLocked(rec)
	g.members[masterID] = &member{
		charID:   masterID,
		name:     masterName,
		serverID: serverID,
		position: PositionGuildMaster,
		online:   true,
	}
	return true
}

// CreateGuildMember joins a character to a guild. A second GuildMaster
// cannot join as one; the position is downgraded.
func (r *Registry) CreateGuildMember(guildID, charID uint32, charName string, position Position, serverID uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return false
	}
	if _, ok := g.members[charID]; ok {
		return false
	}
	if position == PositionGuildMaster {
		position = PositionNormal
	}

	if r.config.Store != nil {
		if err := r.config.Store.SaveMember(&database.GuildMemberRecord{
			GuildName: g.name, CharID: charID, CharName: charName, Position: uint8(position),
		}); err != nil {
			log.Println("create member:", err)
		}
	}
	g.members[charID] = &member{
		charID:   charID,
		name:     charName,
		serverID: serverID,
		position: position,
		online:   true,
	}
	return true
}

// ChangeGuildMemberPosition changes a member's position. Promoting a
// new GuildMaster demotes the previous one in the same step, so the
// guild never observes zero or two masters. Demoting the sole master
// without a successor is refused.
func (r *Registry) ChangeGuildMemberPosition(guildID, charID uint32, position Position) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return false
	}
	m, ok := g.members[charID]
	if !ok {
		return false
	}
	if m.position == position {
		return true
	}

	if position == PositionGuildMaster {
		for _, other := range g.members {
			if other.position == PositionGuildMaster {
				other.position = PositionNormal
				r.persistPosition(g, other)
			}
		}
	} else if m.position == PositionGuildMaster {
		// the sole master must hand over first
		return false
	}

	m.position = position
	r.persistPosition(g, m)
	return true
}

func (r *Registry) persistPosition(g *guildState, m *member) {
	if r.config.Store == nil {
		return
	}
	if err := r.config.Store.UpdateMember(&database.GuildMemberRecord{
		GuildName: g.name, CharID: m.charID, CharName: m.name, Position: uint8(m.position),
	}); err != nil {
		log.Println("member position:", err)
	}
}

// PlayerEnteredGame marks a guild member online on a shard.
func (r *Registry) PlayerEnteredGame(guildID, charID, serverID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.guilds[guildID]; ok {
		if m, ok := g.members[charID]; ok {
			m.serverID = serverID
			m.online = true
		}
	}
}

// GuildMemberLeftGame marks a guild member offline.
func (r *Registry) GuildMemberLeftGame(guildID, charID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.guilds[guildID]; ok {
		if m, ok := g.members[charID]; ok {
			m.online = false
			m.serverID = 0
		}
	}
}

// GetGuildList the roster as shards render it: members currently
// online anywhere in the cluster. Offline members are omitted, the
// persisted roster is the store's concern.
func (r *Registry) GetGuildList(guildID uint32) []ListEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return nil
	}
	entries := make([]ListEntry, 0, len(g.members))
	for _, m := range g.members {
		if !m.online {
			continue
		}
		entries = append(entries, ListEntry{
			CharID:   m.charID,
			CharName: m.name,
			ServerID: m.serverID,
			Position: m.position,
		})
	}
	return entries
}

// KickMember removes a member by name. Kicking the GuildMaster is
// refused; the mastership must be transferred first.
func (r *Registry) KickMember(guildID uint32, charName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return false
	}
	var target *member
	for _, m := range g.members {
		if m.name == charName {
			target = m
			break
		}
	}
	if target == nil || target.position == PositionGuildMaster {
		return false
	}

	delete(g.members, target.charID)
	if r.config.Store != nil {
		if err := r.config.Store.DeleteMember(g.name, charName); err != nil {
			log.Println("kick member:", err)
		}
	}
	if target.online {
		r.notifyShardLocked(target.serverID, &wire.MsgGuildNotice{
			GuildID: guildID, Notice: wire.GuildNoticeKicked, CharName: charName,
		})
	}
	return true
}

// IncreaseGuildScore IncreaseGuildScore
func (r *Registry) IncreaseGuildScore(guildID uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guilds[guildID]
	if !ok {
		return false
	}
	g.score++
	r.persistGuildLocked(g)
	return true
}

// SetGuildNotice SetGuildNotice
func (r *Registry) SetGuildNotice(guildID uint32, notice string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guilds[guildID]
	if !ok {
		return false
	}
	g.notice = notice
	r.persistGuildLocked(g)
	return true
}

// SendGuildMessage relays one guild chat line to every shard hosting
// at least one online member: one push per shard, not per member.
func (r *Registry) SendGuildMessage(guildID uint32, fromName, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return
	}
	msg := &wire.MsgGuildMessage{GuildID: guildID, FromName: fromName, Text: text}
	for _, serverID := range r.onlineShardsLocked(g) {
		if sub := r.config.Registry.Get(serverID); sub != nil {
			sub.GuildMessage(msg)
		}
	}
}

// DeleteGuild disbands a guild: every online member's and ally's shard
// is told to clear its UI state, hostile and alliance back-references
// on other guilds are nulled, and the persisted structure is removed.
func (r *Registry) DeleteGuild(guildID uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return false
	}

	shards := mapset.NewThreadUnsafeSet()
	for _, serverID := range r.onlineShardsLocked(g) {
		shards.Add(serverID)
	}
	for _, allyID := range r.allianceMembersLocked(guildID) {
		if allyID == guildID {
			continue
		}
		if ally, ok := r.guilds[allyID]; ok {
			for _, serverID := range r.onlineShardsLocked(ally) {
				shards.Add(serverID)
			}
		}
	}
	notice := &wire.MsgGuildNotice{GuildID: guildID, Notice: wire.GuildNoticeDeleted, CharName: g.name}
	for serverID := range shards.Iter() {
		r.notifyShardLocked(serverID.(uint32), notice)
	}

	// clear back-references held by other guilds
	for _, other := range r.guilds {
		if other.hostileID == guildID {
			other.hostileID = 0
			r.persistGuildLocked(other)
		}
	}
	r.leaveAllianceLocked(guildID)

	delete(r.byName, nameKey(g.name))
	delete(r.guilds, guildID)
	if r.config.Store != nil {
		if err := r.config.Store.DeleteGuild(g.name); err != nil {
			log.Println("delete guild:", err)
		}
	}
	return true
}

// CreateAlliance puts the target guild into the requester's alliance,
// creating one headed by the requester when none exists. A guild
// belongs to at most one alliance; joining implies leaving the old.
func (r *Registry) CreateAlliance(requesterID, targetID uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	requester, ok := r.guilds[requesterID]
	if !ok {
		return false
	}
	if _, ok := r.guilds[targetID]; !ok {
		return false
	}
	if requesterID == targetID {
		return false
	}

	if requester.allianceID == 0 {
		r.nextAllianceID++
		a := &alliance{id: r.nextAllianceID, masterID: requesterID, guilds: mapset.NewThreadUnsafeSet()}
		a.guilds.Add(requesterID)
		r.alliances[a.id] = a
		requester.allianceID = a.id
		r.persistAllianceLocked(requesterID)
	}
	r.joinAllianceLocked(targetID, r.alliances[requester.allianceID].masterID)
	return true
}

// joinAllianceLocked adds guildID to the alliance headed by masterID,
// creating the alliance when the master is not yet in one.
func (r *Registry) joinAllianceLocked(guildID, masterID uint32) {
	master, ok := r.guilds[masterID]
	if !ok {
		return
	}
	if master.allianceID == 0 {
		r.nextAllianceID++
		a := &alliance{id: r.nextAllianceID, masterID: masterID, guilds: mapset.NewThreadUnsafeSet()}
		a.guilds.Add(masterID)
		r.alliances[a.id] = a
		master.allianceID = a.id
	}
	g, ok := r.guilds[guildID]
	if !ok || g.allianceID == master.allianceID {
		return
	}
	r.leaveAllianceLocked(guildID)
	a := r.alliances[master.allianceID]
	a.guilds.Add(guildID)
	g.allianceID = a.id
	r.persistAllianceLocked(guildID)
}

// RemoveFromAlliance detaches one guild. When the detached guild led
// the alliance, leadership moves to another member; an emptied
// alliance dissolves.
func (r *Registry) RemoveFromAlliance(guildID uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok || g.allianceID == 0 {
		return false
	}
	r.leaveAllianceLocked(guildID)
	return true
}

func (r *Registry) leaveAllianceLocked(guildID uint32) {
	g, ok := r.guilds[guildID]
	if !ok || g.allianceID == 0 {
		return
	}
	a := r.alliances[g.allianceID]
	g.allianceID = 0
	a.guilds.Remove(guildID)
	r.persistAllianceLocked(guildID)

	if a.guilds.Cardinality() == 0 {
		delete(r.alliances, a.id)
		return
	}
	if a.masterID == guildID {
		// Iter must always be drained, so pick the successor from a
		// snapshot instead
		ids := a.guilds.ToSlice()
		a.masterID = ids[0].(uint32)
		// members now reference the new master guild
		for _, id := range ids {
			r.persistAllianceLocked(id.(uint32))
		}
	}
}

// GetAllianceMemberGuildIDs all guilds allied with guildID, itself
// included. A guild outside any alliance is its own singleton set.
func (r *Registry) GetAllianceMemberGuildIDs(guildID uint32) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allianceMembersLocked(guildID)
}

func (r *Registry) allianceMembersLocked(guildID uint32) []uint32 {
	g, ok := r.guilds[guildID]
	if !ok {
		return nil
	}
	if g.allianceID == 0 {
		return []uint32{guildID}
	}
	a := r.alliances[g.allianceID]
	ids := make([]uint32, 0, a.guilds.Cardinality())
	for id := range a.guilds.Iter() {
		ids = append(ids, id.(uint32))
	}
	return ids
}

// AllianceMasterOf the guild leading guildID's alliance, false when
// the guild is not allied.
func (r *Registry) AllianceMasterOf(guildID uint32) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guilds[guildID]
	if !ok || g.allianceID == 0 {
		return 0, false
	}
	return r.alliances[g.allianceID].masterID, true
}

// DeclareHostility marks the target attackable by guildID's members.
func (r *Registry) DeclareHostility(guildID, targetID uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return false
	}
	if _, ok := r.guilds[targetID]; !ok || guildID == targetID {
		return false
	}
	g.hostileID = targetID
	r.persistGuildLocked(g)
	return true
}

// RemoveHostility clears the hostile reference. Removing an already
// cleared hostility is a no-op, not an error.
func (r *Registry) RemoveHostility(guildID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guilds[guildID]
	if !ok || g.hostileID == 0 {
		return
	}
	g.hostileID = 0
	r.persistGuildLocked(g)
}

// HostileGuildOf current hostile target, zero when none
func (r *Registry) HostileGuildOf(guildID uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.guilds[guildID]; ok {
		return g.hostileID
	}
	return 0
}

// GuildScore GuildScore
func (r *Registry) GuildScore(guildID uint32) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.guilds[guildID]; ok {
		return g.score
	}
	return 0
}

func (r *Registry) onlineShardsLocked(g *guildState) []uint32 {
	seen := mapset.NewThreadUnsafeSet()
	ids := make([]uint32, 0)
	for _, m := range g.members {
		if m.online && seen.Add(m.serverID) {
			ids = append(ids, m.serverID)
		}
	}
	return ids
}

func (r *Registry) notifyShardLocked(serverID uint32, notice *wire.MsgGuildNotice) {
	if sub := r.config.Registry.Get(serverID); sub != nil {
		sub.GuildNotice(notice)
	}
}

// persistGuildLocked writes the mutable guild fields back to the
// store, translating runtime relations to names.
func (r *Registry) persistGuildLocked(g *guildState) {
	if r.config.Store == nil {
		return
	}
	rec := &database.GuildRecord{
		Name:     g.name,
		Logo:     g.logo,
		Score:    g.score,
		Notice:   g.notice,
		CreateAt: g.createAt,
	}
	if hostile, ok := r.guilds[g.hostileID]; ok {
		rec.Hostile = hostile.name
	}
	if g.allianceID != 0 {
		if master, ok := r.guilds[r.alliances[g.allianceID].masterID]; ok {
			rec.Alliance = master.name
		}
	}
	if err := r.config.Store.UpdateGuild(rec); err != nil {
		log.Println("persist guild:", err)
	}
}

func (r *Registry) persistAllianceLocked(guildID uint32) {
	if g, ok := r.guilds[guildID]; ok {
		r.persistGuildLocked(g)
	}
}
