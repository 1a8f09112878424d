// Package app composes the MedFin services into a running application.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── domain/             # Domain models and pure rules
//	│   ├── family/         # Household members, policy assignments, pending actions
//	│   ├── savings/        # Savings events and aggregate views
//	│   ├── insurance/      # Explicit policy schema
//	│   └── costs/          # Cost estimation math and catalog types
//	├── storage/            # KV persistence interface and backends
//	├── services/           # Store containers and supporting services
//	├── httpapi/            # HTTP API handlers
//	├── system/             # Lifecycle management
//	└── metrics/            # Prometheus collectors
//
// The app package wires the local stores, the backend API client, and the
// background reminder scanner together; business rules live in domain/ and
// services/.
package app
