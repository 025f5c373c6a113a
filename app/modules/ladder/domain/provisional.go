package ladderdomain

// ProvisionalMatchesRequired is the number of settled matches after which a
// provisional player becomes regular.
const ProvisionalMatchesRequired = 3

type ProvisionalUpdate struct {
	WasProvisional bool
	BecameRegular  bool
	Provisional    bool
	MatchesPlayed  int
	Remaining      int
}

// UpdateProvisionalStatus counts one settled match toward promotion.
func UpdateProvisionalStatus(provisional bool, matchesPlayed int) ProvisionalUpdate {
	if !provisional {
		return ProvisionalUpdate{MatchesPlayed: matchesPlayed}
	}

	played := matchesPlayed + 1
	if played >= ProvisionalMatchesRequired {
		return ProvisionalUpdate{
			WasProvisional: true,
			BecameRegular:  true,
			MatchesPlayed:  played,
		}
	}
	return ProvisionalUpdate{
		WasProvisional: true,
		Provisional:    true,
		MatchesPlayed:  played,
		Remaining:      ProvisionalMatchesRequired - played,
	}
}
