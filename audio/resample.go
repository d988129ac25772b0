package audio

// Resample converts mono samples from origRate to targetRate by linear
// interpolation over evenly spaced points across the buffer's duration.
// When the rates match the input is returned as is, and an empty input
// always yields an empty output.
func Resample(samples []float32, origRate, targetRate int) []float32 {
	if origRate == targetRate {
		return samples
	}
	if len(samples) == 0 || origRate <= 0 || targetRate <= 0 {
		return nil
	}

	duration := float64(len(samples)) / float64(origRate)
	targetLen := int(duration * float64(targetRate))
	if targetLen <= 0 {
		return nil
	}

	out := make([]float32, targetLen)
	if len(samples) == 1 || targetLen == 1 {
		for i := range out {
			out[i] = samples[0]
		}
		return out
	}

	// Both grids span [0, duration] inclusive, so output point j lands at
	// fractional source index j*(n-1)/(m-1).
	scale := float64(len(samples)-1) / float64(targetLen-1)
	for j := range out {
		pos := float64(j) * scale
		i := int(pos)
		if i >= len(samples)-1 {
			out[j] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(i)
		a := float64(samples[i])
		b := float64(samples[i+1])
		out[j] = float32(a + frac*(b-a))
	}
	return out
}
