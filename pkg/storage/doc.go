// Package storage writes exported posts to CSV files.
//
// A CSVSink owns one output file. A fresh sink truncates the file and writes
// the header; a resumed sink appends to the existing file and remembers the
// post ids already in it, so a page fetched twice after an interruption is
// not written twice.
//
// Usage:
//
//	sink, err := storage.NewCSVSink("exports", "nytimes", false)
//	if err != nil {
//	    return err
//	}
//	defer sink.Close()
//
//	if err := sink.Write(post); err != nil {
//	    return err
//	}
//	// flush at page boundaries so a checkpoint never runs ahead of the file
//	if err := sink.Flush(); err != nil {
//	    return err
//	}
package storage
