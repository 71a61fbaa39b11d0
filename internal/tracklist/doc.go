// Package tracklist turns the raw text recognized in a tracklist screenshot into search-ready song titles.
//
// Two strategies sit behind the [Normalizer] interface:
//
//   - [TitleNormalizer] : multi-title mode. [Segment] groups OCR lines into one candidate per
//     "artist - title" entry, then [NormalizeTitles] cleans and deduplicates them.
//   - [QueryNormalizer] : single-query mode. [NormalizeQuery] strips the whole block down to one
//     noisy search string.
//
// [NewNormalizer] selects a strategy by [Mode].
package tracklist
