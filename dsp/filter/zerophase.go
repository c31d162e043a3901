package filter

import "fmt"

// ZeroPhase applies the cascade forward and backward, cancelling the
// filter's phase response. The effective magnitude response is |H(f)|^2.
//
// Both passes run on a copy of data extended at each end with an
// odd-symmetric reflection (3x the filter order, clamped to len(data)-1)
// so startup transients decay outside the returned range. The chain state
// is reset before each pass and left reset on return.
func ZeroPhase(c *Chain, data []float64) ([]float64, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("filter: zero-phase input must not be empty")
	}

	pad := 3 * c.Order()
	if pad > len(data)-1 {
		pad = len(data) - 1
	}

	ext := make([]float64, pad+len(data)+pad)
	for i := 0; i < pad; i++ {
		ext[i] = 2*data[0] - data[pad-i]
		ext[pad+len(data)+i] = 2*data[len(data)-1] - data[len(data)-2-i]
	}

	copy(ext[pad:], data)

	c.Reset()
	c.ProcessBlock(ext)
	reverse(ext)

	c.Reset()
	c.ProcessBlock(ext)
	reverse(ext)

	c.Reset()

	out := make([]float64, len(data))
	copy(out, ext[pad:pad+len(data)])

	return out, nil
}

func reverse(buf []float64) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}
