// Package viz draws density frames in the terminal.
//
//   - [Model]: Bubble Tea player that replays sampled frames
//   - [Canvas]: Braille pixel canvas the player draws on
//   - [PlotRow], [PlotSeries]: static ASCII charts
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	R     - Restart from the first frame
//	[ ]   - Step one frame back or forward
//	S     - Save a snapshot of the canvas
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
