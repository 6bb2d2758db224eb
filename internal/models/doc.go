// Package models defines domain entities for the spotizip playlist archive service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs passed between layers
//   - [Playlist] : Playlist metadata from the Spotify Web API
//   - [Track] : Song metadata used to build acquisition queries
//   - [TrackReport] : Per-track outcome row of a finished pipeline run
//
// 2. Persistent Entities: Database-backed records
//   - [TokenRecord] : OAuth token cached across restarts, keyed by user
//   - [SearchHit] : Resolved search result cached for repeat runs
//
// Persistent entities implement the Model interface providing identity,
// timestamps, and validation.
package models
