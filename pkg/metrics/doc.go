// Package metrics defines the Prometheus collectors shared by the auth,
// acl and email packages.
package metrics
