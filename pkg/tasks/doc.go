// Package tasks implements the tasks manager:
// the per-tick, priority-ordered view of the task backlog the dispatcher
// draws from. Like the robots package, it is rebuilt fresh every tick from
// whatever backlog the caller supplies and discarded at the end of it.
package tasks
