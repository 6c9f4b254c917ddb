// Command reframe turns a video URL or local media file into a written
// analysis report and a derived sequence guide by chaining a yt-dlp fetch
// with two Gemini generation passes.
package main
