// Package services holds the shared error taxonomy for external service
// clients (kworb, spotify) and its subpackages implement those clients.
package services
