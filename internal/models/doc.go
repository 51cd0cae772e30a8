// Package models defines the entities exchanged with the video backend and held by the watch-time tracker.
//
// The package contains two categories of types:
//
// 1. Identity: who is watching
//   - [Viewer] : an authenticated user or an anonymous guest
//   - [User] : profile returned by the backend on login
//
// 2. Data Transfer Objects: backend JSON payloads
//   - [Video] : feed and detail entries
//   - [HistoryEntry] : one row of the viewer's watch history with resume progress
//   - [Analytics] : per-video view and watch-time breakdown for the owner
//   - [LoginResponse] : token and user returned by /users/login
//   - [Comment] : one comment on a video's watch page
//   - [VideoUpdate], [ProfileUpdate], [PasswordChange] : edit request bodies
//   - [Message], [RegisterResponse], [AvatarResponse] : account acknowledgements
//
// The backend uses Mongo-style "_id" fields; [HistoryEntry] accepts its video either populated or as a bare id.
package models
