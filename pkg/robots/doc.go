// Package robots implements the robots plan manager: the per-tick store of what the dispatcher has decided for
// each robot so far this tick. It is constructed fresh from the fleet
// snapshot at the start of every tick and discarded at the end of it —
// nothing here persists across ticks.
package robots
