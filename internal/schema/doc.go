// Package schema defines the entity kinds synchronized between the local
// durable store and the remote backend, along with their validation rules.
//
// Each kind carries two wire representations:
//
//   - The local form uses camelCase JSON field names and is what the durable
//     store persists (the on-device working copy).
//   - The remote form uses snake_case column names and is what the gateway
//     sends to and receives from the backend.
//
// The mapping between the two forms is a fixed, exhaustive list per kind.
// It cannot be derived automatically because several fields change shape in
// transit (local timestamps become created_at columns, the local integer id
// never leaves the device, and the remote row id only appears locally once
// the row is confirmed).
package schema
