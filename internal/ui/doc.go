// Package ui implements the interactive terminal player using bubbletea's Elm architecture.
//
// The player has two views:
//  1. [BrowseView] : pick a video from the feed
//  2. [PlayerView] : play, pause and end the current video while watched, synced and pending seconds update live
//
// Key presses are translated into tracker lifecycle events. Moving to the next or previous video
// goes through [tracker.Tracker.Load], which flushes the previous video first. Quitting closes the
// tracker and waits briefly for the final watch-time request.
//
// Completed backend requests arrive through the tracker's OnEvent hook and are shown under the player.
// Logs are written to a file by the caller so they don't tear the rendered view.
package ui
