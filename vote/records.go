package vote

import (
	"fmt"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// BallotRecord is the serializable form of a ballot.
type BallotRecord struct {
	Voter      string
	Commitment []byte
	Weight     uint64
	Revealed   bool
	Choice     uint32
	Claimed    bool
}

// PollRecord is the serializable form of a poll, used by the registry's
// durable store. Stage boundaries are unix timestamps.
type PollRecord struct {
	ID           uint64
	CommitEnd    int64
	RevealEnd    int64
	VotesFor     uint64
	VotesAgainst uint64
	Ballots      []BallotRecord
}

// Snapshot returns the serializable state of a poll. Ballots are sorted
// by voter for deterministic output.
func (b *Box) Snapshot(pollID uint64) (PollRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.polls[pollID]
	if !ok {
		return PollRecord{}, fmt.Errorf("%w: %d", ErrNoSuchPoll, pollID)
	}

	voters := maps.Keys(p.ballots)
	slices.Sort(voters)

	record := PollRecord{
		ID:           p.id,
		CommitEnd:    p.commitEnd.Unix(),
		RevealEnd:    p.revealEnd.Unix(),
		VotesFor:     p.votesFor,
		VotesAgainst: p.votesAgainst,
		Ballots:      make([]BallotRecord, 0, len(voters)),
	}
	for _, voter := range voters {
		ballot := p.ballots[voter]
		record.Ballots = append(record.Ballots, BallotRecord{
			Voter:      voter,
			Commitment: append([]byte{}, ballot.Commitment...),
			Weight:     ballot.Weight,
			Revealed:   ballot.Revealed,
			Choice:     uint32(ballot.Choice),
			Claimed:    ballot.Claimed,
		})
	}
	return record, nil
}

// Restore installs a poll from its serialized form, overwriting any
// in-memory poll with the same id. Used when reopening a registry from
// its durable store.
func (b *Box) Restore(record PollRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := &poll{
		id:           record.ID,
		commitEnd:    time.Unix(record.CommitEnd, 0),
		revealEnd:    time.Unix(record.RevealEnd, 0),
		votesFor:     record.VotesFor,
		votesAgainst: record.VotesAgainst,
		ballots:      make(map[string]*Ballot, len(record.Ballots)),
	}
	for _, ballot := range record.Ballots {
		p.ballots[ballot.Voter] = &Ballot{
			Commitment: append([]byte{}, ballot.Commitment...),
			Weight:     ballot.Weight,
			Revealed:   ballot.Revealed,
			Choice:     Choice(ballot.Choice),
			Claimed:    ballot.Claimed,
		}
	}
	b.polls[record.ID] = p
	if record.ID >= b.nextID {
		b.nextID = record.ID + 1
	}
}
