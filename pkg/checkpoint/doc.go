// Package checkpoint saves and resumes feed export progress.
//
// A checkpoint records where an export of one page stopped: the paging.next
// URL of the first page not yet written, how many pages and posts are done,
// and the export window. The exporter saves it after every page, so an
// interrupted run can continue with --resume.
//
// Checkpoints are stored in platform-specific data directories:
//   - Linux: $XDG_DATA_HOME/stopsum/checkpoints/ or ~/.local/share/stopsum/checkpoints/
//   - macOS: ~/Library/Application Support/stopsum/checkpoints/
//   - Windows: %APPDATA%/stopsum/checkpoints/
//
// Files are written to a temporary path and renamed into place.
package checkpoint
