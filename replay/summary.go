package replay

// Summary is replay header metadata plus per-player roster counts. It is
// cheaper to keep around than a decoded Game and is what the corpus index
// stores.
type Summary struct {
	Width, Height int
	NumFrames     int
	Players       []PlayerSummary
}

// PlayerSummary describes one player of a replay.
type PlayerSummary struct {
	Name string
	ID   int
	// RosterFrames counts frames where the player had at least one ship.
	RosterFrames int
}

// Summarize validates the replay sections and counts, per player, the frames
// with a non-empty ship roster. Frame deltas are not applied.
func Summarize(raw []byte) (*Summary, error) {
	r, err := parseRaw(raw)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Width:     r.ProductionMap.Width,
		Height:    r.ProductionMap.Height,
		NumFrames: len(r.Frames),
	}
	index := make(map[int]int, len(r.Players))
	for i, p := range r.Players {
		s.Players = append(s.Players, PlayerSummary{Name: p.Name, ID: p.PlayerID})
		index[p.PlayerID] = i
	}
	for _, f := range r.Frames {
		for ownerKey, ships := range f.Entities {
			if len(ships) == 0 {
				continue
			}
			owner, err := parseOwner(ownerKey)
			if err != nil {
				return nil, err
			}
			if i, ok := index[owner]; ok {
				s.Players[i].RosterFrames++
			}
		}
	}
	return s, nil
}

// Player returns the summary entry matching name (see MatchesPlayer).
func (s *Summary) Player(name string) (PlayerSummary, bool) {
	for _, p := range s.Players {
		if MatchesPlayer(p.Name, name) {
			return p, true
		}
	}
	return PlayerSummary{}, false
}
