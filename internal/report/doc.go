// Package report renders run and sweep results.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with tables and a mermaid status chart
//
// Report data structures live in the model package; writers only format
// them. Writers implement the Writer interface so they can be used
// interchangeably and composed with MultiWriter.
package report
