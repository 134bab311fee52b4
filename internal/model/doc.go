package model

// Package model defines domain data structures shared across the bot: download
// requests, jobs and their state machine, process outcomes and artifacts.
