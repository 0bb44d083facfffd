// Package locator finds the game-data behaviours among the objects of a
// loaded archive and decodes them with their schema entries.
package locator
