// Package store defines interfaces for data persistence and for the shared
// remote key-value store. These interfaces abstract the underlying storage
// mechanisms from the application's core logic, allowing the coordination
// layer to remain independent of specific backing technologies.
package store
