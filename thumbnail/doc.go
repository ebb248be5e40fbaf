// Package thumbnail derives small preview images for stored media.
//
// Photo thumbnails are produced from the payload itself: the image is fitted
// to a bounded edge and re-encoded as a JPEG data: URI, so the preview lives
// inside the stored row and outlives the session that created it.
//
// Video thumbnails need a decoded frame. A FrameSampler supplies one at
// capture time; there is no recovery path for videos afterwards.
//
// The Recoverer repairs photo thumbnails that are missing or only hold a
// transient blob: handle. It runs on a bounded ants worker pool and never
// fails the caller; a thumbnail that cannot be built is left empty.
package thumbnail
