// Package viz provides an interactive terminal replay of a finished PMAC run.
//
// The replay walks the recorded series with a moving window and draws the
// field and normalized density with asciigraph, next to the instantaneous
// readings for the sample under the cursor.
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	+/-   - Faster/slower playback
//	[ ]   - Step back/forward one controller interval
//	Home  - Jump to start
//	End   - Jump to end
//	T     - Cycle color themes
//	Q     - Quit
package viz
