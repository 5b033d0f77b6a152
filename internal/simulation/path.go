package simulation

// Point is the balance at the start of one simulated age.
type Point struct {
	Age     int     `json:"age"`
	Balance float64 `json:"balance"`
}

// WealthPath is one balance per simulated year in age order.
type WealthPath []Point

// Balances returns the balances of the path in order.
func (p WealthPath) Balances() []float64 {
	out := make([]float64, len(p))
	for i, pt := range p {
		out[i] = pt.Balance
	}
	return out
}

// At returns the balance recorded at age.
func (p WealthPath) At(age int) (float64, bool) {
	if len(p) == 0 {
		return 0, false
	}
	idx := age - p[0].Age
	if idx < 0 || idx >= len(p) {
		return 0, false
	}
	return p[idx].Balance, true
}

// Max returns the largest balance on the path.
func (p WealthPath) Max() float64 {
	max := 0.0
	for _, pt := range p {
		if pt.Balance > max {
			max = pt.Balance
		}
	}
	return max
}

// KeyPoints are the derived facts about one path.
type KeyPoints struct {
	// TargetAge is nil when the target is never reached.
	TargetAge       *int    `json:"targetAge,omitempty"`
	TargetValue     float64 `json:"targetValue"`
	RetirementValue float64 `json:"retirementValue"`
	// DepletionAge is the age whose withdrawal exhausted the balance, nil
	// when the balance lasts through age 100.
	DepletionAge *int    `json:"depletionAge,omitempty"`
	EndValue     float64 `json:"endValue"`
	// FinalBalance is the balance carried out of the age-100 year.
	FinalBalance float64 `json:"finalBalance"`
}

// TargetReached reports whether the path ever met the target.
func (k KeyPoints) TargetReached() bool {
	return k.TargetAge != nil
}

// Depleted reports whether the balance ran out.
func (k KeyPoints) Depleted() bool {
	return k.DepletionAge != nil
}

// YearsSupported is how many years withdrawals were funded after retirement.
// The second value is false when the balance never ran out.
func (k KeyPoints) YearsSupported(retireAge int) (int, bool) {
	if k.DepletionAge == nil {
		return 0, false
	}
	return *k.DepletionAge - retireAge, true
}

// ExtractKeyPoints derives key points from a finished series and the balance
// carried out of its last year. Depletion is dated like Project dates it: an
// empty balance at retireAge depletes at retireAge, otherwise the year before
// the first empty balance, or the last year when only final is empty.
func ExtractKeyPoints(path WealthPath, final, target float64, retireAge int) KeyPoints {
	kp := KeyPoints{FinalBalance: final}
	for _, pt := range path {
		if kp.TargetAge == nil && pt.Balance >= target {
			age := pt.Age
			kp.TargetAge = &age
			kp.TargetValue = pt.Balance
		}
		if pt.Age == retireAge {
			kp.RetirementValue = pt.Balance
		}
		if kp.DepletionAge == nil && pt.Age >= retireAge && pt.Balance <= 0 {
			age := pt.Age
			if age > retireAge {
				age--
			}
			kp.DepletionAge = &age
		}
	}
	if len(path) == 0 {
		return kp
	}

	last := path[len(path)-1]
	kp.EndValue = last.Balance
	if kp.DepletionAge == nil && last.Age >= retireAge && final <= 0 {
		age := last.Age
		kp.DepletionAge = &age
	}
	return kp
}
