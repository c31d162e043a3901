package filter

import (
	"fmt"
	"math"
)

// ButterworthLP designs a lowpass Butterworth cascade.
//
// For odd orders, the final section is first-order (B2=A2=0).
func ButterworthLP(cutoffHz float64, order int, sampleRate float64) (*Chain, error) {
	if err := validateDesign(cutoffHz, order, sampleRate); err != nil {
		return nil, err
	}

	sections := make([]Coefficients, 0, (order+1)/2)

	for i := order/2 - 1; i >= 0; i-- {
		sections = append(sections, lowpassSection(cutoffHz, butterworthQ(order, i), sampleRate))
	}

	if order%2 != 0 {
		sections = append(sections, firstOrderLP(cutoffHz, sampleRate))
	}

	return NewChain(sections), nil
}

// ButterworthHP designs a highpass Butterworth cascade.
//
// For odd orders, the final section is first-order (B2=A2=0).
func ButterworthHP(cutoffHz float64, order int, sampleRate float64) (*Chain, error) {
	if err := validateDesign(cutoffHz, order, sampleRate); err != nil {
		return nil, err
	}

	sections := make([]Coefficients, 0, (order+1)/2)

	for i := order/2 - 1; i >= 0; i-- {
		sections = append(sections, highpassSection(cutoffHz, butterworthQ(order, i), sampleRate))
	}

	if order%2 != 0 {
		sections = append(sections, firstOrderHP(cutoffHz, sampleRate))
	}

	return NewChain(sections), nil
}

// ButterworthBP designs a bandpass cascade as a highpass at lowHz followed
// by a lowpass at highHz, each of the given order.
func ButterworthBP(lowHz, highHz float64, order int, sampleRate float64) (*Chain, error) {
	if !(lowHz < highHz) {
		return nil, fmt.Errorf("filter: band edges must satisfy low < high: %g >= %g", lowHz, highHz)
	}

	hp, err := ButterworthHP(lowHz, order, sampleRate)
	if err != nil {
		return nil, err
	}

	lp, err := ButterworthLP(highHz, order, sampleRate)
	if err != nil {
		return nil, err
	}

	sections := make([]Coefficients, 0, hp.NumSections()+lp.NumSections())
	for i := range hp.sections {
		sections = append(sections, hp.sections[i].Coefficients)
	}

	for i := range lp.sections {
		sections = append(sections, lp.sections[i].Coefficients)
	}

	return NewChain(sections), nil
}

func validateDesign(freq float64, order int, sampleRate float64) error {
	if order <= 0 {
		return fmt.Errorf("filter: order must be > 0: %d", order)
	}

	if sampleRate <= 0 {
		return fmt.Errorf("filter: sample rate must be > 0: %g", sampleRate)
	}

	if freq <= 0 || freq >= sampleRate/2 {
		return fmt.Errorf("filter: cutoff must be in (0, nyquist): %g Hz at fs=%g", freq, sampleRate)
	}

	return nil
}

// butterworthQ returns the quality factor for a Butterworth filter section.
// index ranges from 0 to (order/2 - 1) for the biquad sections.
func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))

	s := math.Sin(theta)
	if s == 0 {
		return 1 / math.Sqrt2
	}

	return 1 / (2 * s)
}

// lowpassSection designs one second-order lowpass section via the bilinear
// transform with frequency prewarping.
func lowpassSection(freq, q, sampleRate float64) Coefficients {
	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k/q + k*k)

	return Coefficients{
		B0: k * k * norm,
		B1: 2 * k * k * norm,
		B2: k * k * norm,
		A1: 2 * (k*k - 1) * norm,
		A2: (1 - k/q + k*k) * norm,
	}
}

func highpassSection(freq, q, sampleRate float64) Coefficients {
	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k/q + k*k)

	return Coefficients{
		B0: norm,
		B1: -2 * norm,
		B2: norm,
		A1: 2 * (k*k - 1) * norm,
		A2: (1 - k/q + k*k) * norm,
	}
}

// firstOrderLP designs a first-order lowpass Butterworth section,
// used for odd-order cascades.
func firstOrderLP(freq, sampleRate float64) Coefficients {
	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)

	return Coefficients{
		B0: k * norm,
		B1: k * norm,
		A1: (k - 1) * norm,
	}
}

// firstOrderHP designs a first-order highpass Butterworth section,
// used for odd-order cascades.
func firstOrderHP(freq, sampleRate float64) Coefficients {
	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)

	return Coefficients{
		B0: norm,
		B1: -norm,
		A1: (k - 1) * norm,
	}
}
