package resolver

import (
	"github.com/kingrea/flowsem/internal/chain"
	"github.com/kingrea/flowsem/internal/flow"
)

// portMatches reports whether stored and requested name the same port,
// either by raw name or by capitalized alias. Index is compared separately.
func portMatches(stored, requested flow.PortData) bool {
	if stored.Name == requested.Name {
		return true
	}
	return requested.CapName != "" && stored.CapName == requested.CapName
}

// resolvePort searches the port list selected by dir for the reference and
// appends a new entry when nothing matches. A name that is stored as scalar
// but requested as indexed (or the other way round) is a conflict; the
// list does not change in that case. Existing entries are never modified.
func resolvePort(s *opState, ref chain.PortRef, dir flow.Direction) PortResult {
	requested := ref.Data()
	for _, stored := range s.ports(dir) {
		if !portMatches(stored, requested) {
			continue
		}
		if stored.HasIndex != requested.HasIndex {
			return PortResult{
				Kind:      OutcomeConflict,
				Port:      stored,
				Pos:       max(requested.SrcPos, stored.SrcPos),
				requested: requested,
				owner:     s.name,
				dir:       dir,
			}
		}
		if stored.HasIndex && stored.Index != requested.Index {
			continue
		}
		return PortResult{Kind: OutcomeFound, Port: stored, Pos: requested.SrcPos, requested: requested, owner: s.name, dir: dir}
	}
	s.appendPort(dir, requested)
	return PortResult{Kind: OutcomeCreated, Port: requested, Pos: requested.SrcPos, requested: requested, owner: s.name, dir: dir}
}
