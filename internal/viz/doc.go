// Package viz is a terminal browser for finished integrations, built on
// Bubble Tea.
//
// The browser replays an accepted trajectory point by point. The left panel
// draws either a phase portrait of two components on a Braille canvas or the
// selected component against x; the right panel shows the current point,
// run statistics and the step-size history.
//
// # Key Bindings
//
//	Space - Play/Pause replay
//	[ ]   - Step back/forward one point
//	Home  - Jump to the first point, End to the last
//	Tab   - Cycle the plotted component
//	P     - Toggle phase portrait / time series
//	?     - Show help overlay
//	Q     - Quit
package viz
