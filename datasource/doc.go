// Package datasource acquires the raw material indexed for an instrument:
// a fundamentals summary from Yahoo Finance and a digest of recent news from
// NewsAPI or an RSS feed.
//
// Fetcher turns both into the two rag.Document values a session indexes.
// Fundamentals failures are errors; news failures degrade to a placeholder
// digest so a session can still be built.
package datasource
