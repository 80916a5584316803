// Package content loads the static Big Book text and serves read-only lookups.
//
// Content is described by a metadata file (chapters.yaml) listing every
// chapter in reading order, plus one plain-text source file per chapter.
// Source files use a small line-oriented format:
//
//	@page xiii
//	First paragraph of the page. Paragraphs are separated
//	by blank lines and may wrap across several lines.
//
//	_An italic paragraph is wrapped in underscores._
//
//	@page xiv
//	...
//
// The default content pack is embedded into the binary. A directory with the
// same layout can be used instead:
//
//	table, err := content.Load(ctx, os.DirFS("/srv/bigbook"), content.LoadOptions{})
//
// Chapter sources are parsed concurrently and assembled into an immutable
// Table. The Table is built once at start-up and never changes afterwards,
// so it is safe to share between goroutines without locking.
package content
