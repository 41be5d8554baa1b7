// Package notifications delivers job outcome alerts.
//
// The default implementation publishes to an ntfy topic configured under
// [notifications] and degrades to a no-op when no topic is set. Workflow code
// depends only on the Service interface.
package notifications
