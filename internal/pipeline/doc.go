// Package pipeline runs the page analysis steps and the provider discovery
// loop.
//
// A page moves through fetch, snapshot, extract and link check steps, each
// filling part of its model.PageReport. BatchProcessor runs one pipeline per
// page with bounded concurrency; a failing or panicking page is recorded as
// a failed report and never stops the batch. DiscoverProviders does the same
// for providers, one at a time.
package pipeline
