// Package annotation defines the markup model: strokes, text boxes, shapes
// and stamps, signatures, form values, watermarks and page rotations.
//
// Every spatial attribute is stored in normalized page space (see package
// coords), which keeps a stored annotation valid for any preview zoom,
// device pixel ratio or export page size.
package annotation
