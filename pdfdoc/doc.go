// Package pdfdoc is the document writer used by the bake pipeline.
//
// A Document wraps the original PDF bytes and one display list per output
// page. Drawing calls append primitive operations (lines, rectangles,
// circles, text, raster images) in PDF page space, origin bottom-left.
// Nothing touches the original bytes until a Serializer replays the display
// lists over the imported source pages, so a Document can be inspected
// primitive by primitive before it is written.
package pdfdoc
