// Package pdf persists PSD calculation results as msgpack artifacts and
// aggregates them across files into probability density functions.
//
// Each artifact filename embeds its start timestamp, so the aggregator
// can apply a time-window filter without opening files outside the
// window. Aggregation is associative: partial accumulators merged
// together equal one accumulator fed everything, which allows streaming
// over large file sets.
package pdf
