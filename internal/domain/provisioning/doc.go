// Package provisioning defines the domain model for project and membership
// synchronization against a flat identity service: directories holding
// projects and users, roles granted per (user, project) pair, and the name
// sanitization rules that map external resource identifiers onto identity
// service names. The identity service is the sole source of truth; nothing
// in this package caches remote state.
package provisioning
