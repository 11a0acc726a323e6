// Package sightings implements the backend for a citizen science sighting
// application: Firebase backed user accounts, cookie backed admin accounts,
// geolocated sighting posts, and a role gated moderation workflow.
package sightings
