// Package pages turns markdown files into publishable documents and groups
// them into a Book for a single publish run.
package pages
