// Package gamedata holds the typed song, key, collection, avatar and tip
// records, and the adapter that builds them from decoded behaviour trees.
//
// The raw song table stores ratings and charters as positional lists whose
// trailing entries carry meaning. ChartsFromLegacy turns them into four
// explicit tier slots so later stages never inspect list lengths.
package gamedata
