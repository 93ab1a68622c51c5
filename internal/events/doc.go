// Package events carries installer progress from the backend to the task
// tracker. It defines the three progress topics, their payloads and an
// in-memory Bus that delivers each published event synchronously, in
// publish order, to every handler subscribed to the topic.
package events
