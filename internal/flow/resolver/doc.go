// Package resolver turns parsed chains into resolved flows. Each flow is
// walked chain by chain against a registry of operations; ports are matched
// by name or capitalized alias and data types are inherited along chains.
// Conflicts skip the offending chain and are reported as diagnostics.
package resolver
