package digest

// ---------------------------------------------------------------------------
// Frozen tag bytes for the plan digest serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// all previously recorded digests.
// ---------------------------------------------------------------------------

// Version is the version prefix for the serialization format.
// Bumping this invalidates all existing digests.
const Version byte = 1

// Record tags. Each tag identifies one record kind in the byte stream.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	// Elements
	TagElement byte = 0x01 // element with child elements
	TagLeaf    byte = 0x02 // element with text and no children

	// Element parts
	TagAttr byte = 0x03

	// Reserved 0xFE-0xFF
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagElement, TagLeaf,
	TagAttr,
}
