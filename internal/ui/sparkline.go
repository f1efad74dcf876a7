package ui

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the last width values of data as Unicode block
// characters, left-padded with the lowest block. Heights are relative to the
// largest rendered value.
func Sparkline(data []float64, width int) string {
	if width <= 0 {
		return ""
	}

	samples := make([]float64, width)
	if len(data) >= width {
		copy(samples, data[len(data)-width:])
	} else {
		copy(samples[width-len(data):], data)
	}

	peak := 0.0
	for _, v := range samples {
		peak = max(peak, v)
	}

	out := make([]rune, width)
	top := len(sparkBlocks) - 1
	for i, v := range samples {
		if peak <= 0 || v <= 0 {
			out[i] = sparkBlocks[0]
			continue
		}
		out[i] = sparkBlocks[min(int(v/peak*float64(top)), top)]
	}
	return string(out)
}
