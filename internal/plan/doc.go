// Package plan scans a directory for media files, classifies them by
// extension, and assembles the ordered processing plan: at most one intro
// image, then videos, then audio clips, each group sorted by the person name
// derived from the filename convention.
package plan
