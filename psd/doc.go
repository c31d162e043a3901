// Package psd estimates acceleration noise power spectra from raw seismic
// waveform segments.
//
// The pipeline follows the PQLX / McNamara-Buland approach to long-term
// site-noise characterization: a Welch spectral estimate of the
// conditioned waveform is clipped, optionally corrected for the
// theoretical instrument response, converted to acceleration power in dB,
// smoothed over full-octave period bands, and histogrammed on a fixed
// 1 dB grid so that results from many files can later be combined into a
// probability density function (see the pdf package).
package psd
