// Package bulk applies one suggestion batch to a file or a directory tree of
// HTML documents, walking directories concurrently with fastwalk and
// selecting files with a doublestar pattern.
package bulk
