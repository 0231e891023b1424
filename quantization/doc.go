// Package quantization provides range quantization of feature vectors.
//
// Associative memories store integer levels, not floats. A fold's features
// are mapped onto a grid of `size` levels between the smallest and largest
// value observed in that fold:
//
//	r, _ := quantization.FitRange(trainFeatures, testFeatures)
//	code := quantization.Quantize(vector, 64, r)  // levels in [0, 63]
//
// # Rounding
//
// Halfway values round to even (0.5 -> 0, 1.5 -> 2, 2.5 -> 2).
//
// # Degenerate ranges
//
// When every value of a fold is equal (min == max) there is no scale to
// divide by. Every coordinate maps to level 0 and Range.Degenerate reports
// true; results built on such codes carry no discriminative power.
//
// # Reconstruction
//
// Dequantize maps levels back to the value grid. The undefined level used by
// memories for "no answer" (level == size) becomes NaN:
//
//	features := quantization.Dequantize(recalled, 64, r)
package quantization
