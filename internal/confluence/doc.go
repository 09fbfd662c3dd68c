// Package confluence implements interfaces.ContentStore against the
// Confluence REST API (/rest/api/content), plus an in-memory store used for
// dry runs and tests.
package confluence
