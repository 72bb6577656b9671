// Command montage builds a single concatenated montage video from a folder
// of media files, reusing cached temp segments across runs.
package main
