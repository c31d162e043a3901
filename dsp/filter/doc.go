// Package filter provides Butterworth filter design and zero-phase
// application for waveform pre-conditioning.
//
// Filters are realized as cascades of Direct Form II Transposed biquad
// sections. [ZeroPhase] runs a cascade forward and backward so the
// pre-filter step does not shift arrival times in the data.
package filter
