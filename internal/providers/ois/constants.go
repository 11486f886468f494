package ois

import "time"

const (
	sourceName         = "ois"
	defaultBaseURL     = "https://judge.science.unitn.it/ranking"
	defaultHTTPTimeout = 5 * time.Second
	maxErrorBody       = 512

	pathTeams  = "/teams"
	pathUsers  = "/users"
	pathTasks  = "/tasks"
	pathScores = "/scores"
)
