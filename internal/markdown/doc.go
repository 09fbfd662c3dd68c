// Package markdown turns markdown source into Confluence storage markup.
// It owns front matter decoding, the goldmark based renderer, local path
// resolution for links and images, and extraction of the binary files a
// document references so they can be uploaded as attachments.
package markdown
