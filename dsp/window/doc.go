// Package window generates taper coefficients for spectral framing.
//
// The set is restricted to the windows commonly used for background-noise
// PSD estimation. Names accepted by [Parse] follow the vocabulary common
// in spectral-analysis tooling so configuration read from the outside
// world maps directly onto [Type].
package window
