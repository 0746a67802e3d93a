// Package persistence keeps plugin runtime state across restarts.
//
// The state file is JSON and maps each hardware address the plugin owns to
// the ref the controller assigned when the entity was created, so a
// restarted plugin can reattach to its devices instead of creating them
// again.
package persistence
