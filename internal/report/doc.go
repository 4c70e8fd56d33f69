// Package report renders discovery results and page reports.
//
// JSONWriter, MarkdownWriter and CSVWriter produce the file exports that
// Exporter writes to the output directory. ConsoleWriter prints the
// human-readable progress of a run.
package report
