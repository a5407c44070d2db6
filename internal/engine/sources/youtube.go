package sources

// YouTube implementation is split across files by responsibility:
//   youtube_innertube.go  - Innertube API types, constants, and low-level HTTP primitives
//   youtube_transcript.go - caption listing (watch page + ANDROID player) and track fetching
//                           (timedtext XML, engagement panel for PoToken-gated tracks)
//   youtube_auth.go       - the same listing with a session cookie jar attached
