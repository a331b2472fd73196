package models

import "time"

// Bounds every landmark boundary must fall within, in sets per week.
const (
	MinLandmarkSets = 4
	MaxLandmarkSets = 35
)

// Landmark is the per-user, per-muscle-group volume landmark (MEV/MAV/MRV)
// together with the current training state derived from feedback.
type Landmark struct {
	UserID          int       `json:"user_id"`
	MuscleGroupID   int       `json:"muscle_group_id"`
	MEV             int       `json:"mev"`
	MAV             int       `json:"mav"`
	MRV             int       `json:"mrv"`
	CurrentVolume   int       `json:"current_volume"`
	TargetVolume    int       `json:"target_volume"`
	RecoveryLevel   int       `json:"recovery_level"`
	AdaptationLevel int       `json:"adaptation_level"`
	LastUpdated     time.Time `json:"last_updated"`
}

// NewLandmark builds a landmark with current and target volume starting at MEV
// and neutral recovery/adaptation levels.
func NewLandmark(userID, muscleGroupID, mev, mav, mrv int, now time.Time) (Landmark, error) {
	if err := ValidateBoundaries(mev, mav, mrv); err != nil {
		return Landmark{}, err
	}
	return Landmark{
		UserID:          userID,
		MuscleGroupID:   muscleGroupID,
		MEV:             mev,
		MAV:             mav,
		MRV:             mrv,
		CurrentVolume:   mev,
		TargetVolume:    mev,
		RecoveryLevel:   5,
		AdaptationLevel: 5,
		LastUpdated:     now,
	}, nil
}

// ValidateBoundaries checks mev < mav < mrv with each inside [MinLandmarkSets, MaxLandmarkSets].
func ValidateBoundaries(mev, mav, mrv int) error {
	for _, b := range []struct {
		name string
		v    int
	}{{"mev", mev}, {"mav", mav}, {"mrv", mrv}} {
		if b.v < MinLandmarkSets || b.v > MaxLandmarkSets {
			return Invariant("landmark bounds", "%s=%d outside [%d,%d]", b.name, b.v, MinLandmarkSets, MaxLandmarkSets)
		}
	}
	if mev >= mav || mav >= mrv {
		return Invariant("mev < mav < mrv", "mev=%d mav=%d mrv=%d", mev, mav, mrv)
	}
	return nil
}

// Validate checks the boundaries, the 1-10 levels, and that the volumes stay
// inside [floor, mrv]. floor is MEV outside a deload and may be lower during one.
func (l Landmark) Validate(floor int) error {
	if err := ValidateBoundaries(l.MEV, l.MAV, l.MRV); err != nil {
		return err
	}
	if l.RecoveryLevel < 1 || l.RecoveryLevel > 10 {
		return Invariant("recovery level in [1,10]", "got %d", l.RecoveryLevel)
	}
	if l.AdaptationLevel < 1 || l.AdaptationLevel > 10 {
		return Invariant("adaptation level in [1,10]", "got %d", l.AdaptationLevel)
	}
	if l.CurrentVolume < floor || l.CurrentVolume > l.MRV {
		return Invariant("current volume within bounds", "current=%d bounds=[%d,%d]", l.CurrentVolume, floor, l.MRV)
	}
	if l.TargetVolume < floor || l.TargetVolume > l.MRV {
		return Invariant("target volume within bounds", "target=%d bounds=[%d,%d]", l.TargetVolume, floor, l.MRV)
	}
	return nil
}

// ClampVolume limits v to [floor, l.MRV].
func (l Landmark) ClampVolume(v, floor int) int {
	if v < floor {
		return floor
	}
	if v > l.MRV {
		return l.MRV
	}
	return v
}
