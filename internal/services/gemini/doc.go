// Package gemini wraps the Gemini generateContent API for the analysis and
// sequence-generation stages.
//
// Media is attached using one of two transports chosen by payload size:
// small files travel inline as base64 request data, larger files are
// uploaded through the Files API first and referenced by URI once the
// upload reaches the ACTIVE state.
package gemini
