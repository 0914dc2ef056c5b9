// Package confluence is a thin client for the Atlassian Confluence
// Cloud REST API: accessible-resources discovery, CQL text search,
// page fetch, and page creation. Calls are authorized with the
// process-wide credential from the auth store and scoped by the
// resolved cloud id.
package confluence
