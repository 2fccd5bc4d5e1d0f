// Package grammar turns a declarative rule table into executable generators.
//
// A grammar is an ordered table of type definitions loaded from YAML. Compile
// translates the table into a Registry of factories, one per type name; each
// factory consumes decisions from a decision.Source and produces a tree
// value. Declaration order is semantically significant everywhere: it fixes
// the numbering of choice decisions, so it must be identical between the
// recording run and every replay.
package grammar
