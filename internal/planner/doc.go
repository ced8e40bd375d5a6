// Package planner turns a size budget and a probed duration into an
// EncodePlan: either relay the source untouched because it already fits, or
// encode at a bitrate derived from the budget.
package planner
