package demo

import "math/rand"

// RandomNoise jitters synthetic heatmap history by [-10, +9].
type RandomNoise struct{}

func (RandomNoise) Jitter(string, int) int { return rand.Intn(20) - 10 }
