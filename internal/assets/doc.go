// Package assets reads Unity game data out of an Android package.
//
// OpenArchive loads the configured zip entries, unpacking UnityFS bundles
// (uncompressed or LZ4 blocks) and parsing the serialized files they hold.
// Objects expose their class id, resolve behaviour script names through
// the m_Script pointer, and decode their payload into ordered Fields trees
// driven by typetree node lists supplied by the caller. Embedded type trees
// are skipped; the caller's schema is the only layout source.
package assets
