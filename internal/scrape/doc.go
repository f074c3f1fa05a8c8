// Package scrape defines core types and interfaces shared across the
// scraping subsystems: candidates discovered on roster pages, athlete and
// club records bound for storage, the document capability used by the
// extractors, and the fetch failure taxonomy.
package scrape
