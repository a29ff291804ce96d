// Package mcp implements the Model Context Protocol server for sitelens.
//
// The mcp package provides:
// - MCP server over stdio
// - Tools fetching site data and related sites for a domain
package mcp
