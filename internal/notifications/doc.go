// Package notifications delivers engine milestones via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Per-event toggles (runs, undo, errors) let users silence categories without
// losing the rest. The engine depends only on the Service interface, so
// alternative transports slot in without touching run logic.
package notifications
