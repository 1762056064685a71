// Package testing provides deterministic test doubles for livequery:
// a controllable clock, a scripted source, and a snapshot recorder.
//
// Together they make every timing-sensitive lifecycle scenario
// reproducible without sleeping:
//
//	clk := livetest.NewFakeClock()
//	src := livetest.NewScriptedSource[string]()
//	coord := lifecycle.New(src.Factory(), lifecycle.Options[string]{Clock: clk})
//
//	clk.Advance(50 * time.Millisecond)
//	src.EmitValue("X")
//	clk.Advance(150 * time.Millisecond) // loading dwell elapses, "X" applies
package testing
