// Vesta is a versioned configuration store with envelope encryption,
// multi-tier caching, and a tamper-evident audit trail.
//
// It serves configuration values over a REST API and a local CLI,
// providing:
//   - Per-key version history with rollback
//   - Environment layering with fallback to base values
//   - AES-256-GCM envelope encryption for secrets
//   - Role-based access control with hot-reloaded policy files
//   - A gap-free, asynchronously written audit trail
//
// Usage:
//
//	# Start the server with default configuration
//	vesta run
//
//	# Start with a custom configuration file
//	vesta run --config /etc/vesta/config.yaml
//
//	# Read and write values directly against the configured backend
//	vesta set payments db.host db.internal --environment production
//	vesta get payments db.host --environment production
//
//	# Inspect history and roll back
//	vesta history payments db.host
//	vesta rollback payments db.host 2
//
//	# Generate encryption key material
//	vesta keygen
package main

func main() {
	Execute()
}
