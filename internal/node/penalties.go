package node

import "math"

// Penalties is a load score, lower is better. A node that has not reported
// stats yet scores 0.
func (n *Node) Penalties() int {
	stats, ok := n.Stats()
	if !ok {
		return 0
	}
	penalties := stats.Players
	penalties += int(math.Round(math.Pow(1.05, 100*stats.CPU.SystemLoad)*10 - 10))
	if fs := stats.FrameStats; fs != nil {
		penalties += int(math.Round(math.Pow(1.03, 500*(float64(fs.Deficit)/3000))*600 - 600))
		penalties += int(math.Round(math.Pow(1.03, 500*(float64(fs.Nulled)/3000))*300-300)) * 2
	}
	return penalties
}
